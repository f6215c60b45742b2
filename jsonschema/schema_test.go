package jsonschema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustFromMap(t *testing.T, v any) *Schema {
	t.Helper()
	s, err := FromMap(v)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	return s
}

func TestFromMap_GroupingDefs(t *testing.T) {
	s := mustFromMap(t, map[string]any{
		"$defs": map[string]any{
			"layers": map[string]any{
				"null-layer": map[string]any{"type": "object"},
			},
			"flat":  map[string]any{"type": "string"},
			"empty": map[string]any{},
		},
	})
	if g := s.Defs["layers"]; g == nil || !g.Grouping || g.Defs["null-layer"].Type != "object" {
		t.Fatalf("layers should be a grouping: %+v", g)
	}
	if s.Defs["flat"].Grouping || s.Defs["empty"].Grouping {
		t.Fatal("definitions must not be groupings")
	}
}

func TestFromMap_Keywords(t *testing.T) {
	s := mustFromMap(t, map[string]any{
		"type":                 []any{"integer", "null"},
		"minimum":              1,
		"maxItems":             3.0,
		"required":             []any{"a"},
		"enum":                 []any{1, "x"},
		"const":                nil,
		"additionalProperties": false,
		"x-custom":             "kept",
	})
	if diff := cmp.Diff([]string{"integer", "null"}, s.Types); diff != "" {
		t.Fatalf("types (-want +got):\n%s", diff)
	}
	if *s.Minimum != 1 || *s.MaxItems != 3 || s.Required[0] != "a" {
		t.Fatalf("unexpected schema %+v", s)
	}
	if diff := cmp.Diff([]any{1.0, "x"}, s.Enum); diff != "" {
		t.Fatalf("enum (-want +got):\n%s", diff)
	}
	if s.Const == nil || *s.Const != nil {
		t.Fatal("null const must be kept")
	}
	if !s.AdditionalProperties.IsFalse() {
		t.Fatal("false must convert to the false schema")
	}
	if s.Extra["x-custom"] != "kept" {
		t.Fatalf("unknown keyword lost: %v", s.Extra)
	}
}

func TestFromMap_Errors(t *testing.T) {
	bad := []any{
		"string",
		map[string]any{"type": 3},
		map[string]any{"minLength": 1.5},
		map[string]any{"required": "a"},
		map[string]any{"properties": map[string]any{"a": 1}},
	}
	for _, v := range bad {
		if _, err := FromMap(v); err == nil {
			t.Fatalf("expected error for %v", v)
		}
	}
}

func TestClone_IsDeepAndKeepsSharing(t *testing.T) {
	shared := &Schema{Type: "number"}
	s := &Schema{
		Properties: map[string]*Schema{"a": shared, "b": shared},
		Required:   []string{"a"},
		Doc:        &DocAnchor{DisplayName: "X"},
	}
	c := s.Clone()
	c.Properties["a"].Type = "string"
	c.Required[0] = "z"
	c.Doc.DisplayName = "Y"
	if shared.Type != "number" || s.Required[0] != "a" || s.Doc.DisplayName != "X" {
		t.Fatal("clone shares state with the original")
	}
	if c.Properties["a"] != c.Properties["b"] {
		t.Fatal("shared sub-schemas must stay shared in the clone")
	}
}

func TestEachChild_Order(t *testing.T) {
	s := &Schema{
		Properties: map[string]*Schema{"b": {}, "a/x": {}},
		Items:      &Schema{},
		AllOf:      []*Schema{{}, {}},
		Not:        &Schema{},
	}
	var got []string
	s.EachChild(func(key string, _ *Schema) bool {
		got = append(got, key)
		return true
	})
	want := []string{"properties/a~1x", "properties/b", "items", "allOf/0", "allOf/1", "not"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	s := mustFromMap(t, map[string]any{
		"$defs": map[string]any{
			"shapes": map[string]any{
				"fill": map[string]any{
					"allOf": []any{
						map[string]any{"type": "object"},
						map[string]any{"properties": map[string]any{"c/d": map[string]any{"type": "string"}}},
					},
				},
			},
		},
	})
	cases := map[string]string{
		"#/$defs/shapes/fill/allOf/0":                 "object",
		"#/$defs/shapes/fill/allOf/1/properties/c~1d": "string",
	}
	for ptr, typ := range cases {
		got, ok := s.Resolve(ptr)
		if !ok || got.Type != typ {
			t.Fatalf("%s: got %+v, %v", ptr, got, ok)
		}
	}
	for _, ptr := range []string{"#/$defs/shapes/none", "#/$defs/shapes/fill/allOf/5", "#/$defs/shapes/fill/bogus"} {
		if _, ok := s.Resolve(ptr); ok {
			t.Fatalf("%s should not resolve", ptr)
		}
	}
	if got, ok := s.Resolve("#"); !ok || got != s {
		t.Fatal("# must resolve to the root")
	}
}

func TestPointerHelpers(t *testing.T) {
	if got := EscapeToken("a/b~c"); got != "a~1b~0c" {
		t.Fatalf("EscapeToken = %q", got)
	}
	if got := UnescapeToken("a~1b~0c"); got != "a/b~c" {
		t.Fatalf("UnescapeToken = %q", got)
	}
	if diff := cmp.Diff([]string{"layers", "0", "a/b"}, SplitPointer("#/layers/0/a~1b")); diff != "" {
		t.Fatalf("SplitPointer (-want +got):\n%s", diff)
	}
	id := "https://example.com/lottie.schema.json"
	if got := LocalRef(id, id+"#/$defs/x"); got != "#/$defs/x" {
		t.Fatalf("LocalRef = %q", got)
	}
	if got := LocalRef(id, "other.json#/$defs/x"); got != "other.json#/$defs/x" {
		t.Fatalf("LocalRef must keep foreign refs, got %q", got)
	}
}

func TestEqual(t *testing.T) {
	eq := [][2]any{
		{1, 1.0},
		{int64(4), 4.0},
		{"a", "a"},
		{nil, nil},
		{[]any{1.0, "x"}, []any{1, "x"}},
		{map[string]any{"a": 1.0}, map[string]any{"a": 1}},
	}
	for _, p := range eq {
		if !Equal(p[0], p[1]) {
			t.Fatalf("%v should equal %v", p[0], p[1])
		}
	}
	ne := [][2]any{
		{"4", 4.0},
		{true, 1.0},
		{nil, false},
		{[]any{1.0}, []any{1.0, 2.0}},
		{map[string]any{"a": 1.0}, map[string]any{"b": 1.0}},
	}
	for _, p := range ne {
		if Equal(p[0], p[1]) {
			t.Fatalf("%v should differ from %v", p[0], p[1])
		}
	}
}
