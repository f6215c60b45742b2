package augment

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/reoring/lottieschema/jsonschema"
)

// TagKey is the typed identity of a tag value. The string "4" and the
// number 4 are different keys.
type TagKey struct {
	Kind  string
	Value string
}

func (k TagKey) String() string {
	if k.Kind == "string" {
		return strconv.Quote(k.Value)
	}
	return k.Value
}

// KeyOf returns the key of a scalar tag value. Objects, arrays and null are
// not usable as tags.
func KeyOf(v any) (TagKey, bool) {
	switch t := v.(type) {
	case string:
		return TagKey{Kind: "string", Value: t}, true
	case bool:
		return TagKey{Kind: "boolean", Value: strconv.FormatBool(t)}, true
	}
	if f, ok := jsonschema.ToFloat(v); ok {
		return TagKey{Kind: "number", Value: strconv.FormatFloat(f, 'g', -1, 64)}, true
	}
	return TagKey{}, false
}

// Entry is one alternative of a Table. Exactly one of Target and Schema is
// set: Target is a schema identifier, Schema an inline alternative.
type Entry struct {
	Tag    any
	Key    TagKey
	Target string
	Schema *jsonschema.Schema
}

// Table dispatches on the value of a field. Its settings are fixed by
// NewTable; Build seals every table it creates, after which Add fails.
type Table struct {
	field       string
	failUnknown bool
	def         any
	hasDefault  bool
	sealed      bool

	entries []Entry
	index   map[TagKey]int
}

// ErrTableSealed is returned by Add on a table handed out by Build.
var ErrTableSealed = errors.New("augment: table is sealed")

// TableOption configures a Table at construction.
type TableOption func(*Table)

// WithDefault makes a missing field dispatch as if it held v. Without it a
// missing field passes.
func WithDefault(v any) TableOption {
	return func(t *Table) { t.def, t.hasDefault = v, true }
}

// NewTable returns an empty table dispatching on field. failUnknown reports
// an unknown tag as an error rather than a warning.
func NewTable(field string, failUnknown bool, opts ...TableOption) *Table {
	t := &Table{field: field, failUnknown: failUnknown, index: make(map[TagKey]int)}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Field returns the name of the dispatch field.
func (t *Table) Field() string { return t.field }

// FailUnknown reports whether an unknown tag is an error.
func (t *Table) FailUnknown() bool { return t.failUnknown }

// Default returns the value standing in for a missing field.
func (t *Table) Default() (any, bool) { return t.def, t.hasDefault }

func (t *Table) seal() { t.sealed = true }

// Add appends an entry. A tag that is not a scalar or that is already
// present is rejected.
func (t *Table) Add(e Entry) error {
	if t.sealed {
		return ErrTableSealed
	}
	key, ok := KeyOf(e.Tag)
	if !ok {
		return fmt.Errorf("tag %v is not a scalar", e.Tag)
	}
	if i, dup := t.index[key]; dup {
		return fmt.Errorf("tag %s already maps to %s", key, t.entries[i].name())
	}
	e.Key = key
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, e)
	return nil
}

// Lookup returns the entry for a document value.
func (t *Table) Lookup(v any) (Entry, bool) {
	key, ok := KeyOf(v)
	if !ok {
		return Entry{}, false
	}
	i, ok := t.index[key]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns the entries in insertion order.
func (t *Table) Entries() []Entry { return append([]Entry(nil), t.entries...) }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

func (e Entry) name() string {
	if e.Target != "" {
		return e.Target
	}
	return e.Schema.String()
}

// ExtractTag returns the constant of s.properties[field]. A node without
// properties is searched through its oneOf, anyOf and allOf branches, first
// match wins.
func ExtractTag(s *jsonschema.Schema, field string) (any, bool) {
	if s == nil {
		return nil, false
	}
	if s.Properties != nil {
		p := s.Properties[field]
		if p == nil || p.Const == nil {
			return nil, false
		}
		return *p.Const, true
	}
	for _, branches := range [][]*jsonschema.Schema{s.OneOf, s.AnyOf, s.AllOf} {
		for _, b := range branches {
			if tag, ok := ExtractTag(b, field); ok {
				return tag, true
			}
		}
	}
	return nil, false
}

// AssetDispatch selects the asset definition from the presence of
// Indicator.
type AssetDispatch struct {
	Indicator     string
	WithIndicator string
	Default       string
}

// KeyframeRule configures the keyframe sequence checks.
type KeyframeRule struct {
	Time string
	Hold string
	In   string
}

// AssetReference checks that a value names an entry of the root asset
// collection.
type AssetReference struct {
	Collection string
	IDField    string
}

// Enum lists the allowed constant values of an enumeration.
type Enum struct {
	Values []any
}
