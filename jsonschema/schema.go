package jsonschema

import (
	"maps"
	"slices"
	"strconv"
)

// DocAnchor links a schema node back to the documentation of the concept it
// describes.
type DocAnchor struct {
	URL         string `json:"url" yaml:"url"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	AnchorName  string `json:"anchor_name" yaml:"anchor_name"`
}

// Schema is a JSON Schema (2020-12 dialect) node.
//
// Since this struct mirrors a JSON value, nil slices and maps are absent while
// empty ones are present. Keywords this struct does not model are kept in
// Extra, which is also where schema augmentation stores custom keyword
// payloads.
type Schema struct {
	// core
	ID        string
	SchemaURI string
	Ref       string
	Comment   string
	Defs      map[string]*Schema
	// Grouping marks a $defs entry that only namespaces nested definitions
	// (for example $defs/layers). It carries no validation keywords.
	Grouping bool

	// metadata
	Title       string
	Description string
	Default     any

	// validation
	// Use Type for a single type, or Types for multiple types; never both.
	Type             string
	Types            []string
	Enum             []any
	Const            *any // JSON null is a valid const.
	MultipleOf       *float64
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MinLength        *int
	MaxLength        *int
	Pattern          string
	Format           string

	// arrays
	Items       *Schema
	PrefixItems []*Schema
	MinItems    *int
	MaxItems    *int
	UniqueItems bool
	Contains    *Schema

	// objects
	MinProperties        *int
	MaxProperties        *int
	Required             []string
	Properties           map[string]*Schema
	PatternProperties    map[string]*Schema
	AdditionalProperties *Schema

	// logic
	AllOf []*Schema
	AnyOf []*Schema
	OneOf []*Schema
	Not   *Schema

	// conditional
	If   *Schema
	Then *Schema
	Else *Schema

	// Doc is written by the metadata patcher; nil on raw schemas.
	Doc *DocAnchor

	// Extra holds keywords not modelled above.
	Extra map[string]any
}

// Ptr returns a pointer to a new variable whose value is x.
func Ptr[T any](x T) *T { return &x }

// String returns a short description of the schema.
func (s *Schema) String() string {
	switch {
	case s == nil:
		return "<nil schema>"
	case s.ID != "":
		return s.ID
	case s.Ref != "":
		return "$ref " + s.Ref
	case s.Title != "":
		return s.Title
	}
	return "<anonymous schema>"
}

// IsFalse reports whether s is the schema that rejects everything ({"not": {}}).
func (s *Schema) IsFalse() bool {
	if s == nil || s.Not == nil || !s.Not.IsEmpty() {
		return false
	}
	c := *s
	c.Not = nil
	c.Doc = nil
	return c.IsEmpty()
}

// IsEmpty reports whether s carries no keywords at all, which makes it accept
// every instance.
func (s *Schema) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Ref == "" && s.Type == "" && s.Types == nil && s.Enum == nil && s.Const == nil &&
		s.MultipleOf == nil && s.Minimum == nil && s.Maximum == nil && s.ExclusiveMinimum == nil &&
		s.ExclusiveMaximum == nil && s.MinLength == nil && s.MaxLength == nil && s.Pattern == "" &&
		s.Items == nil && s.PrefixItems == nil && s.MinItems == nil && s.MaxItems == nil &&
		!s.UniqueItems && s.Contains == nil && s.MinProperties == nil && s.MaxProperties == nil &&
		s.Required == nil && s.Properties == nil && s.PatternProperties == nil &&
		s.AdditionalProperties == nil && s.AllOf == nil && s.AnyOf == nil && s.OneOf == nil &&
		s.Not == nil && s.If == nil && s.Then == nil && s.Else == nil && len(s.Extra) == 0
}

// SetExtra stores a keyword payload in Extra, allocating the map if needed.
func (s *Schema) SetExtra(keyword string, payload any) {
	if s.Extra == nil {
		s.Extra = make(map[string]any)
	}
	s.Extra[keyword] = payload
}

// Clone returns a deep copy of the schema tree rooted at s. Sub-schemas shared
// within the tree remain shared in the copy. Extra maps are copied shallowly.
func (s *Schema) Clone() *Schema {
	return s.clone(make(map[*Schema]*Schema))
}

func (s *Schema) clone(seen map[*Schema]*Schema) *Schema {
	if s == nil {
		return nil
	}
	if c, ok := seen[s]; ok {
		return c
	}
	c := *s
	seen[s] = &c
	c.Types = slices.Clone(s.Types)
	c.Enum = slices.Clone(s.Enum)
	c.Required = slices.Clone(s.Required)
	c.Extra = maps.Clone(s.Extra)
	if s.Doc != nil {
		d := *s.Doc
		c.Doc = &d
	}
	c.Defs = cloneMap(s.Defs, seen)
	c.Properties = cloneMap(s.Properties, seen)
	c.PatternProperties = cloneMap(s.PatternProperties, seen)
	c.PrefixItems = cloneSlice(s.PrefixItems, seen)
	c.AllOf = cloneSlice(s.AllOf, seen)
	c.AnyOf = cloneSlice(s.AnyOf, seen)
	c.OneOf = cloneSlice(s.OneOf, seen)
	c.Items = s.Items.clone(seen)
	c.Contains = s.Contains.clone(seen)
	c.AdditionalProperties = s.AdditionalProperties.clone(seen)
	c.Not = s.Not.clone(seen)
	c.If = s.If.clone(seen)
	c.Then = s.Then.clone(seen)
	c.Else = s.Else.clone(seen)
	return &c
}

func cloneMap(m map[string]*Schema, seen map[*Schema]*Schema) map[string]*Schema {
	if m == nil {
		return nil
	}
	out := make(map[string]*Schema, len(m))
	for k, v := range m {
		out[k] = v.clone(seen)
	}
	return out
}

func cloneSlice(ss []*Schema, seen map[*Schema]*Schema) []*Schema {
	if ss == nil {
		return nil
	}
	out := make([]*Schema, len(ss))
	for i, v := range ss {
		out[i] = v.clone(seen)
	}
	return out
}

// EachChild calls f for every immediate sub-schema of s, in a deterministic
// order. The key is the JSON Pointer suffix leading from s to the child, such
// as "properties/w" or "allOf/1". Definitions under $defs are not visited.
// EachChild stops when f returns false.
func (s *Schema) EachChild(f func(key string, child *Schema) bool) bool {
	if s == nil {
		return true
	}
	single := func(key string, c *Schema) bool { return c == nil || f(key, c) }
	list := func(key string, cs []*Schema) bool {
		for i, c := range cs {
			if !f(key+"/"+strconv.Itoa(i), c) {
				return false
			}
		}
		return true
	}
	dict := func(key string, m map[string]*Schema) bool {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if !f(key+"/"+EscapeToken(k), m[k]) {
				return false
			}
		}
		return true
	}
	return dict("properties", s.Properties) &&
		dict("patternProperties", s.PatternProperties) &&
		single("additionalProperties", s.AdditionalProperties) &&
		single("items", s.Items) &&
		list("prefixItems", s.PrefixItems) &&
		single("contains", s.Contains) &&
		list("allOf", s.AllOf) &&
		list("anyOf", s.AnyOf) &&
		list("oneOf", s.OneOf) &&
		single("not", s.Not) &&
		single("if", s.If) &&
		single("then", s.Then) &&
		single("else", s.Else)
}

// EachDef calls f for every definition under s.Defs in name order, descending
// through grouping entries. The pointer is relative to s, e.g.
// "$defs/layers/shape-layer".
func (s *Schema) EachDef(f func(pointer string, def *Schema)) {
	var walk func(prefix string, defs map[string]*Schema)
	walk = func(prefix string, defs map[string]*Schema) {
		for _, k := range slices.Sorted(maps.Keys(defs)) {
			d := defs[k]
			p := prefix + "/" + EscapeToken(k)
			if d.Grouping {
				walk(p, d.Defs)
				continue
			}
			f(p, d)
		}
	}
	walk("$defs", s.Defs)
}
