package augment

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/reoring/lottieschema/jsonschema"
)

const fixture = `{
	"$id": "https://example.com/lottie.schema.json",
	"$ref": "#/$defs/composition/animation",
	"$defs": {
		"composition": {
			"animation": {
				"type": "object",
				"properties": {
					"layers": {"type": "array", "items": {"$ref": "#/$defs/layers/all-layers"}},
					"assets": {"type": "array", "items": {"$ref": "#/$defs/assets/all-assets"}}
				}
			}
		},
		"assets": {
			"asset": {"type": "object", "properties": {"id": {"type": "string"}}},
			"image": {"type": "object", "allOf": [{"$ref": "#/$defs/assets/asset"}, {"properties": {"p": {"type": "string"}}}]},
			"precomposition": {"type": "object", "allOf": [{"$ref": "#/$defs/assets/asset"}, {"properties": {"layers": {"type": "array"}}}]},
			"all-assets": {"oneOf": [{"$ref": "#/$defs/assets/image"}, {"$ref": "#/$defs/assets/precomposition"}]}
		},
		"layers": {
			"layer": {
				"type": "object",
				"properties": {"ty": {"type": "integer"}, "nm": {"type": "string"}, "ks": {"$ref": "#/$defs/helpers/transform"}}
			},
			"null-layer": {
				"type": "object",
				"title": "Null",
				"allOf": [{"$ref": "#/$defs/layers/layer"}, {"properties": {"ty": {"const": 3}}}]
			},
			"image-layer": {
				"type": "object",
				"allOf": [{"$ref": "#/$defs/layers/layer"}, {"properties": {"ty": {"const": 2}, "refId": {"type": "string"}}}]
			},
			"text-layer": {
				"type": "object",
				"allOf": [{"$ref": "#/$defs/layers/layer"}, {"properties": {"ty": {"const": "3"}}}]
			},
			"all-layers": {"oneOf": [{"$ref": "#/$defs/layers/null-layer"}, {"$ref": "#/$defs/layers/image-layer"}]}
		},
		"helpers": {
			"transform": {
				"type": "object",
				"properties": {
					"p": {"$ref": "#/$defs/properties/splittable-position-property"},
					"o": {"$ref": "#/$defs/properties/scalar-property"}
				}
			},
			"loop-a": {"type": "object", "properties": {"a": {}}, "anyOf": [{"$ref": "#/$defs/helpers/loop-b"}]},
			"loop-b": {"type": "object", "properties": {"b": {}}, "anyOf": [{"$ref": "#/$defs/helpers/loop-a"}]},
			"free": {"type": "object", "properties": {"x": {}}, "additionalProperties": true}
		},
		"properties": {
			"base-keyframe": {"type": "object", "properties": {"t": {"type": "number"}, "i": {}, "h": {}}},
			"scalar-property": {
				"type": "object",
				"properties": {"ix": {"type": "integer"}},
				"oneOf": [
					{"properties": {"a": {"const": 0}, "k": {"type": "number"}}},
					{"properties": {"a": {"const": 1}, "k": {"type": "array", "items": {"$ref": "#/$defs/properties/base-keyframe"}}}}
				]
			},
			"position-property": {
				"type": "object",
				"oneOf": [
					{"properties": {"k": {"type": "array"}}},
					{"type": "object", "properties": {"k": {"type": "array"}, "x": {}}}
				]
			},
			"split-position": {"type": "object", "properties": {"s": {"const": true}, "x": {}, "y": {}}},
			"splittable-position-property": {
				"oneOf": [{"$ref": "#/$defs/properties/split-position"}, {"$ref": "#/$defs/properties/position-property"}]
			},
			"gradient-property": {
				"type": "object",
				"properties": {
					"p": {"type": "integer"},
					"k": {"oneOf": [{"properties": {"a": {"const": 0}}}, {"properties": {"a": {"const": 1}}}]}
				}
			}
		},
		"constants": {
			"fill-rule": {"type": "integer", "title": "Fill Rule", "oneOf": [{"const": 1}, {"const": 2}]}
		}
	}
}`

func loadFixture(t *testing.T) *jsonschema.Schema {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(fixture), &v); err != nil {
		t.Fatal(err)
	}
	s, err := jsonschema.FromMap(v)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func build(t *testing.T) *Augmented {
	t.Helper()
	a, err := Build(loadFixture(t), Options{DocsURL: "https://docs.example"})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func mustResolve(t *testing.T, s *jsonschema.Schema, ptr string) *jsonschema.Schema {
	t.Helper()
	n, ok := s.Resolve(ptr)
	if !ok {
		t.Fatalf("%s does not resolve", ptr)
	}
	return n
}

func TestBuild_NilSchema(t *testing.T) {
	if _, err := Build(nil, Options{}); err != ErrNilSchema {
		t.Fatalf("expected ErrNilSchema, got %v", err)
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	s := loadFixture(t)
	if _, err := Build(s, Options{}); err != nil {
		t.Fatal(err)
	}
	untouched := loadFixture(t)
	if diff := cmp.Diff(untouched, s); diff != "" {
		t.Fatalf("input schema was modified (-want +got):\n%s", diff)
	}
}

func TestBuild_TypeTable(t *testing.T) {
	a := build(t)
	table := a.Tables[Pointer("layers", "all-layers")]
	if table == nil {
		t.Fatal("no table for all-layers")
	}
	var got []string
	for _, e := range table.Entries() {
		got = append(got, e.Key.String()+"="+e.Target)
	}
	want := []string{
		`2=#/$defs/layers/image-layer`,
		`3=#/$defs/layers/null-layer`,
		`"3"=#/$defs/layers/text-layer`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if table.FailUnknown() {
		t.Fatal("layer tags must not fail on unknown values")
	}
	all := mustResolve(t, a.Schema, "#/$defs/layers/all-layers")
	if all.OneOf != nil || all.Extra[KeywordTypeDispatch] != table {
		t.Fatalf("all-layers not rewritten: %+v", all)
	}
	if _, ok := table.Lookup(3.0); !ok {
		t.Fatal("number 3 must be found")
	}
	if e, ok := table.Lookup("3"); !ok || e.Target != Pointer("layers", "text-layer") {
		t.Fatal(`string "3" must select text-layer`)
	}
	// shapes is absent from the fixture
	if !a.Diag.HasWarnings() || !containsLine(a.Diag.Warnings(), `discriminated category "shapes" not found`) {
		t.Fatalf("missing diagnostic, got %v", a.Diag.Warnings())
	}
}

func containsLine(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func TestBuild_PropertyUnions(t *testing.T) {
	a := build(t)

	scalar := a.Tables[Pointer("properties", "scalar-property")]
	if scalar == nil || scalar.Field() != "a" || !scalar.FailUnknown() || scalar.Len() != 2 {
		t.Fatalf("unexpected scalar table %+v", scalar)
	}
	for _, tag := range []float64{0, 1} {
		e, ok := scalar.Lookup(tag)
		if !ok || e.Schema == nil || e.Schema.Type != "object" {
			t.Fatalf("tag %v: %+v", tag, e)
		}
	}

	// Alternatives without a marker constant are keyed by position.
	pos := a.Tables[Pointer("properties", "position-property")]
	if e, ok := pos.Lookup(1.0); !ok || e.Schema.Properties["x"] == nil {
		t.Fatalf("positional tag not found: %+v", e)
	}

	split := a.Tables[Pointer("properties", "splittable-position-property")]
	if split == nil || split.Field() != "s" {
		t.Fatalf("unexpected split table %+v", split)
	}
	if def, ok := split.Default(); !ok || def != false {
		t.Fatalf("unexpected split table %+v", split)
	}
	if e, _ := split.Lookup(true); e.Target != Pointer("properties", "split-position") {
		t.Fatalf("s=true must select split-position, got %+v", e)
	}
	if e, _ := split.Lookup(false); e.Target != Pointer("properties", "position-property") {
		t.Fatalf("s=false must select position-property, got %+v", e)
	}

	grad := a.Tables["#/$defs/properties/gradient-property/properties/k"]
	if grad == nil || grad.Len() != 2 {
		t.Fatalf("gradient nested value not rewritten: %+v", grad)
	}
	if g := mustResolve(t, a.Schema, "#/$defs/properties/gradient-property"); g.Extra[KeywordPropertyDispatch] != nil {
		t.Fatal("the gradient wrapper itself must not dispatch")
	}
}

func TestBuild_KeyframeEnumAssetsReferences(t *testing.T) {
	a := build(t)

	kf := mustResolve(t, a.Schema, "#/$defs/properties/base-keyframe")
	if diff := cmp.Diff(&KeyframeRule{Time: "t", Hold: "h", In: "i"}, kf.Extra[KeywordKeyframe]); diff != "" {
		t.Fatalf("keyframe rule (-want +got):\n%s", diff)
	}

	fr := mustResolve(t, a.Schema, "#/$defs/constants/fill-rule")
	if diff := cmp.Diff(&Enum{Values: []any{1.0, 2.0}}, fr.Extra[KeywordEnum]); diff != "" {
		t.Fatalf("enum (-want +got):\n%s", diff)
	}
	if fr.OneOf != nil {
		t.Fatal("enum alternatives must be dropped")
	}

	all := mustResolve(t, a.Schema, "#/$defs/assets/all-assets")
	want := &AssetDispatch{Indicator: "layers", WithIndicator: "#/$defs/assets/precomposition", Default: "#/$defs/assets/image"}
	if diff := cmp.Diff(want, all.Extra[KeywordAssetDispatch]); diff != "" {
		t.Fatalf("asset dispatch (-want +got):\n%s", diff)
	}
	if all.Type != "object" || all.OneOf != nil || all.Doc == nil {
		t.Fatalf("all-assets not replaced: %+v", all)
	}

	ref := mustResolve(t, a.Schema, "#/$defs/layers/image-layer/allOf/1/properties/refId")
	if diff := cmp.Diff(&AssetReference{Collection: "assets", IDField: "id"}, ref.Extra[KeywordAssetReference]); diff != "" {
		t.Fatalf("asset reference (-want +got):\n%s", diff)
	}
	// precomposition-layer is absent from the fixture
	if !containsLine(a.Diag.Warnings(), `precomposition-layer: reference field "refId" not found`) {
		t.Fatalf("missing diagnostic, got %v", a.Diag.Warnings())
	}
}

func TestBuild_UnknownPropertySets(t *testing.T) {
	a := build(t)
	names := func(ptr string) []string {
		t.Helper()
		set, ok := mustResolve(t, a.Schema, ptr).Extra[KeywordExtraProps].(*PropertySet)
		if !ok {
			return nil
		}
		return set.Names()
	}

	if diff := cmp.Diff([]string{"ks", "nm", "ty"}, names("#/$defs/layers/null-layer")); diff != "" {
		t.Fatalf("null-layer (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "ix", "k"}, names("#/$defs/properties/scalar-property")); diff != "" {
		t.Fatalf("scalar-property (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"k", "s", "x", "y"}, names("#/$defs/properties/splittable-position-property")); diff != "" {
		t.Fatalf("splittable-position-property (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names("#/$defs/helpers/loop-a")); diff != "" {
		t.Fatalf("cyclic closure (-want +got):\n%s", diff)
	}
	// Mixin bases, skipped closures and pure references carry no set.
	for _, ptr := range []string{
		"#/$defs/layers/layer",
		"#/$defs/assets/asset",
		"#/$defs/helpers/free",
		"#/$defs/helpers/transform/properties/o",
	} {
		if got := names(ptr); got != nil {
			t.Fatalf("%s must not warn, got %v", ptr, got)
		}
	}
}

func TestBuild_Docs(t *testing.T) {
	a := build(t)
	cases := []struct {
		ptr  string
		want jsonschema.DocAnchor
	}{
		{"#/$defs/layers/null-layer", jsonschema.DocAnchor{URL: "https://docs.example/specs/layers/#null-layer", DisplayName: "Null", AnchorName: "Null"}},
		{"#/$defs/layers/image-layer/allOf/1/properties/refId", jsonschema.DocAnchor{URL: "https://docs.example/specs/layers/#image-layer", DisplayName: "Image Layer.refId", AnchorName: "Image Layer"}},
		{"#/$defs/layers/all-layers", jsonschema.DocAnchor{URL: "https://docs.example/specs/layers/", DisplayName: "Layer", AnchorName: "Layer"}},
		{"#/$defs/helpers/free/properties/x", jsonschema.DocAnchor{URL: "https://docs.example/specs/helpers/#free", DisplayName: "Free.x", AnchorName: "Free"}},
	}
	for _, tc := range cases {
		got := mustResolve(t, a.Schema, tc.ptr).Doc
		if got == nil {
			t.Fatalf("%s: no anchor", tc.ptr)
		}
		if diff := cmp.Diff(tc.want, *got); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", tc.ptr, diff)
		}
	}
}

func TestBuild_FlatDefinitions(t *testing.T) {
	s := &jsonschema.Schema{Defs: map[string]*jsonschema.Schema{
		"point": {Type: "object", Properties: map[string]*jsonschema.Schema{"x": {}, "y": {}}},
	}}
	a, err := Build(s, Options{DocsURL: "https://d"})
	if err != nil {
		t.Fatal(err)
	}
	p := a.Schema.Defs["point"]
	if p.Doc == nil || p.Doc.URL != "https://d/specs/#point" || p.Doc.DisplayName != "Point" {
		t.Fatalf("unexpected anchor %+v", p.Doc)
	}
	if _, ok := p.Extra[KeywordExtraProps]; !ok {
		t.Fatal("flat definitions get unknown property sets too")
	}
}

func TestBuild_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if _, err := Build(loadFixture(t), Options{Logger: log}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "schema augmented") {
		t.Fatalf("summary not logged: %s", buf.String())
	}
}

func TestBuild_CustomDialect(t *testing.T) {
	d := DefaultDialect()
	d.Discriminated = []Discriminated{{Category: "layers", All: "all-layers", FailUnknown: true}}
	d.References = nil
	a, err := Build(loadFixture(t), Options{Dialect: &d})
	if err != nil {
		t.Fatal(err)
	}
	if !a.Tables[Pointer("layers", "all-layers")].FailUnknown() {
		t.Fatal("dialect not applied")
	}
	if containsLine(a.Diag.Warnings(), "shapes") {
		t.Fatalf("shapes must not be looked up: %v", a.Diag.Warnings())
	}
}

func TestBuild_GradientAlternativesWarn(t *testing.T) {
	a := build(t)
	grad := a.Tables["#/$defs/properties/gradient-property/properties/k"]
	if grad == nil {
		t.Fatal("no gradient table")
	}
	for _, e := range grad.Entries() {
		set, ok := e.Schema.Extra[KeywordExtraProps].(*PropertySet)
		if !ok {
			t.Fatalf("alternative %s carries no property set", e.Key)
		}
		if diff := cmp.Diff([]string{"a"}, set.Names()); diff != "" {
			t.Fatalf("alternative %s (-want +got):\n%s", e.Key, diff)
		}
	}
}

func TestBuild_TablesSealed(t *testing.T) {
	a := build(t)
	for ptr, table := range a.Tables {
		if err := table.Add(Entry{Tag: "late", Target: "#/$defs/x"}); !errors.Is(err, ErrTableSealed) {
			t.Fatalf("%s: expected ErrTableSealed, got %v", ptr, err)
		}
	}
	if _, ok := a.Tables[Pointer("layers", "all-layers")].Lookup("late"); ok {
		t.Fatal("rejected entry must not be visible")
	}
}

func TestNewTable_Default(t *testing.T) {
	if _, ok := NewTable("s", false).Default(); ok {
		t.Fatal("no default unless requested")
	}
	tb := NewTable("s", false, WithDefault(false))
	if def, ok := tb.Default(); !ok || def != false {
		t.Fatalf("default = %v, %v", def, ok)
	}
	if err := tb.Add(Entry{Tag: true, Target: "#/a"}); err != nil {
		t.Fatal(err)
	}
	if err := tb.Add(Entry{Tag: 1.0, Target: "#/b"}); err != nil {
		t.Fatalf("number 1 and true are distinct tags: %v", err)
	}
	if err := tb.Add(Entry{Tag: true, Target: "#/c"}); err == nil {
		t.Fatal("expected duplicate tag error")
	}
}

func TestBuild_DuplicateTagFirstWins(t *testing.T) {
	var v any
	if err := json.Unmarshal([]byte(fixture), &v); err != nil {
		t.Fatal(err)
	}
	layers := v.(map[string]any)["$defs"].(map[string]any)["layers"].(map[string]any)
	// sorts before image-layer, which declares the same tag
	layers["a-image-layer"] = map[string]any{
		"type":       "object",
		"properties": map[string]any{"ty": map[string]any{"const": 2.0}},
	}
	s, err := jsonschema.FromMap(v)
	if err != nil {
		t.Fatal(err)
	}
	a, err := Build(s, Options{})
	if err != nil {
		t.Fatal(err)
	}
	e, ok := a.Tables[Pointer("layers", "all-layers")].Lookup(2.0)
	if !ok || e.Target != Pointer("layers", "a-image-layer") {
		t.Fatalf("tag 2 must keep the first definition, got %+v", e)
	}
	if !containsLine(a.Diag.Warnings(), "#/$defs/layers/image-layer: tag 2 already maps to #/$defs/layers/a-image-layer") {
		t.Fatalf("missing duplicate diagnostic, got %v", a.Diag.Warnings())
	}
}
