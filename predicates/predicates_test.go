package predicates

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/lottieschema/augment"
	"github.com/reoring/lottieschema/eval"
	"github.com/reoring/lottieschema/jsonschema"
)

type result struct {
	Path     string
	Code     string
	Severity eval.Severity
}

func compile(t *testing.T, root *jsonschema.Schema) *eval.Validator {
	t.Helper()
	c := eval.NewCompiler()
	if err := Register(c); err != nil {
		t.Fatal(err)
	}
	if err := c.AddResource("lottie.json", root); err != nil {
		t.Fatal(err)
	}
	v, err := c.Compile("#")
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func run(v *eval.Validator, doc any) (bool, []result) {
	res := v.Validate(jsonschema.Normalize(doc))
	out := []result{}
	for _, e := range res.Errors {
		out = append(out, result{e.InstancePath, e.Code, e.Severity})
	}
	return res.Valid, out
}

func withExtra(s *jsonschema.Schema, kw string, payload any) *jsonschema.Schema {
	s.SetExtra(kw, payload)
	return s
}

func TestRegister_Twice(t *testing.T) {
	c := eval.NewCompiler()
	if err := Register(c); err != nil {
		t.Fatal(err)
	}
	if err := Register(c); err == nil {
		t.Fatal("expected duplicate keyword error")
	}
}

func TestCompile_RejectsWrongPayload(t *testing.T) {
	root := withExtra(&jsonschema.Schema{}, augment.KeywordKeyframe, "not a rule")
	c := eval.NewCompiler()
	_ = Register(c)
	_ = c.AddResource("x.json", root)
	if _, err := c.Compile("#"); err == nil {
		t.Fatal("expected payload type error")
	}
}

func dispatchRoot(failUnknown bool) *jsonschema.Schema {
	t := augment.NewTable("ty", failUnknown)
	_ = t.Add(augment.Entry{Tag: 4.0, Target: "#/$defs/shape"})
	_ = t.Add(augment.Entry{Tag: "gr", Schema: &jsonschema.Schema{Required: []string{"it"}}})
	return &jsonschema.Schema{
		Defs: map[string]*jsonschema.Schema{
			"shape": {Required: []string{"shapes"}},
		},
		Items: withExtra(&jsonschema.Schema{}, augment.KeywordTypeDispatch, t),
	}
}

func TestDispatch(t *testing.T) {
	v := compile(t, dispatchRoot(false))
	valid, got := run(v, []any{
		map[string]any{"ty": 4, "shapes": []any{}},
		map[string]any{"ty": 4},
		map[string]any{"ty": "gr"},
		map[string]any{"ty": 99},
		map[string]any{"nm": "no tag"},
		"not an object",
	})
	want := []result{
		{"/1", eval.CodeRequired, eval.SeverityError},
		{"/2", eval.CodeRequired, eval.SeverityError},
		{"/3", CodeDiscriminatorUnknown, eval.SeverityWarning},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if valid {
		t.Fatal("required failures must invalidate")
	}

	valid, got = run(v, []any{map[string]any{"ty": 99}})
	if !valid || len(got) != 1 {
		t.Fatalf("unknown tag must only warn: %v %+v", valid, got)
	}
}

func TestDispatch_FailUnknown(t *testing.T) {
	v := compile(t, dispatchRoot(true))
	valid, got := run(v, []any{map[string]any{"ty": "4"}})
	want := []result{{"/0", CodeDiscriminatorUnknown, eval.SeverityError}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if valid {
		t.Fatal("unknown tag must fail")
	}
}

func TestDispatch_Default(t *testing.T) {
	tb := augment.NewTable("s", false, augment.WithDefault(false))
	_ = tb.Add(augment.Entry{Tag: true, Schema: &jsonschema.Schema{Required: []string{"x"}}})
	_ = tb.Add(augment.Entry{Tag: false, Schema: &jsonschema.Schema{Required: []string{"k"}}})
	v := compile(t, withExtra(&jsonschema.Schema{}, augment.KeywordSplitDispatch, tb))

	_, got := run(v, map[string]any{})
	if len(got) != 1 || got[0].Code != eval.CodeRequired {
		t.Fatalf("missing marker must use the default: %+v", got)
	}
	if valid, got := run(v, map[string]any{"s": true, "x": 1}); !valid || len(got) != 0 {
		t.Fatalf("split: %+v", got)
	}
}

func TestAssetDispatch(t *testing.T) {
	root := &jsonschema.Schema{
		Defs: map[string]*jsonschema.Schema{
			"image":          {Required: []string{"p"}},
			"precomposition": {Required: []string{"id"}},
		},
		Items: withExtra(&jsonschema.Schema{}, augment.KeywordAssetDispatch, &augment.AssetDispatch{
			Indicator: "layers", WithIndicator: "#/$defs/precomposition", Default: "#/$defs/image",
		}),
	}
	_, got := run(compile(t, root), []any{
		map[string]any{"id": "a", "layers": []any{}},
		map[string]any{"layers": []any{}},
		map[string]any{"id": "b"},
		map[string]any{"id": "c", "p": "x.png"},
	})
	want := []result{
		{"/1", eval.CodeRequired, eval.SeverityError},
		{"/2", eval.CodeRequired, eval.SeverityError},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func keyframes(kfs ...map[string]any) map[string]any {
	k := make([]any, len(kfs))
	for i, kf := range kfs {
		k[i] = kf
	}
	return map[string]any{"k": k}
}

func TestKeyframe(t *testing.T) {
	kf := withExtra(&jsonschema.Schema{}, augment.KeywordKeyframe, &augment.KeyframeRule{Time: "t", Hold: "h", In: "i"})
	root := &jsonschema.Schema{
		Properties: map[string]*jsonschema.Schema{
			"k":      {Items: kf},
			"single": kf,
		},
	}
	v := compile(t, root)
	cases := []struct {
		name string
		doc  map[string]any
		want []result
	}{
		{
			name: "ordered",
			doc:  keyframes(map[string]any{"t": 0, "i": 1}, map[string]any{"t": 5, "i": 1}, map[string]any{"t": 9}),
			want: []result{},
		},
		{
			name: "missing in tangent",
			doc:  keyframes(map[string]any{"t": 0}, map[string]any{"t": 5, "h": 1}, map[string]any{"t": 9, "h": 0}, map[string]any{"t": 10}),
			want: []result{
				{"/k/0", eval.CodeRequired, eval.SeverityError},
				{"/k/2", eval.CodeRequired, eval.SeverityError},
			},
		},
		{
			name: "descending",
			doc:  keyframes(map[string]any{"t": 5, "i": 1}, map[string]any{"t": 2}),
			want: []result{{"/k/1", CodeKeyframeOrder, eval.SeverityError}},
		},
		{
			name: "two equal times are allowed",
			doc:  keyframes(map[string]any{"t": 3, "i": 1}, map[string]any{"t": 3}),
			want: []result{},
		},
		{
			name: "three equal times",
			doc:  keyframes(map[string]any{"t": 3, "i": 1}, map[string]any{"t": 3, "i": 1}, map[string]any{"t": 3}),
			want: []result{{"/k/2", CodeKeyframeMultiplicity, eval.SeverityError}},
		},
		{
			name: "outside a sequence",
			doc:  map[string]any{"single": map[string]any{"t": 1}},
			want: []result{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, got := run(v, tc.doc)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestEnum(t *testing.T) {
	v := compile(t, withExtra(&jsonschema.Schema{}, augment.KeywordEnum, &augment.Enum{Values: []any{1.0, 2.0}}))
	if valid, _ := run(v, 2); !valid {
		t.Fatal("2 is allowed")
	}
	res := v.Validate(3.0)
	if res.Valid || len(res.Errors) != 1 || res.Errors[0].Code != eval.CodeInvalidEnum || res.Errors[0].Params["value"] != "3" {
		t.Fatalf("unexpected result %+v", res)
	}
	res = v.Validate("x")
	if res.Errors[0].Message != "x is not a valid enumeration value" {
		t.Fatalf("strings are rendered bare, got %q", res.Errors[0].Message)
	}
}

func TestAssetReference(t *testing.T) {
	ref := withExtra(&jsonschema.Schema{}, augment.KeywordAssetReference, &augment.AssetReference{Collection: "assets", IDField: "id"})
	root := &jsonschema.Schema{Properties: map[string]*jsonschema.Schema{
		"layers": {Items: &jsonschema.Schema{Properties: map[string]*jsonschema.Schema{"refId": ref}}},
	}}
	v := compile(t, root)
	doc := map[string]any{
		"assets": []any{map[string]any{"id": "img_0"}, "junk"},
		"layers": []any{map[string]any{"refId": "img_0"}, map[string]any{"refId": "img_1"}},
	}
	_, got := run(v, doc)
	if diff := cmp.Diff([]result{{"/layers/1/refId", CodeAssetReference, eval.SeverityError}}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	_, got = run(v, map[string]any{"layers": []any{map[string]any{"refId": "img_0"}}})
	if len(got) != 1 {
		t.Fatalf("no assets means no valid id: %+v", got)
	}
}

func TestExtraProps(t *testing.T) {
	v := compile(t, withExtra(&jsonschema.Schema{}, augment.KeywordExtraProps, augment.NewPropertySet("ty", "nm")))
	res := v.Validate(map[string]any{"ty": 4.0, "nm": "x", "zz": 1.0, "aa": 2.0})
	if !res.Valid {
		t.Fatal("unknown properties never fail")
	}
	var got []string
	for _, e := range res.Errors {
		if e.Severity != eval.SeverityWarning || e.Category != CategoryProperty {
			t.Fatalf("unexpected error %+v", e)
		}
		got = append(got, e.Params["property"])
	}
	if diff := cmp.Diff([]string{"aa", "zz"}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestTruthy(t *testing.T) {
	for v, want := range map[any]bool{nil: false, false: false, true: true, 0.0: false, 1.0: true, "": false, "y": true} {
		if truthy(v) != want {
			t.Fatalf("truthy(%v) != %v", v, want)
		}
	}
}
