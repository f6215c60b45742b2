// Package augment rewrites a raw Lottie JSON Schema into the form the
// validator compiles: documentation anchors on every node, discriminator
// tables in place of tagged unions, marker dispatch for animatable
// properties, and the custom keyword payloads read by package predicates.
//
// Build never mutates its input; it works on a deep clone.
package augment

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/reoring/lottieschema/jsonschema"
)

// Custom keywords written into Schema.Extra.
const (
	KeywordTypeDispatch     = "ty_oneof"
	KeywordPropertyDispatch = "prop_oneof"
	KeywordSplitDispatch    = "splitpos_oneof"
	KeywordAssetDispatch    = "asset_oneof"
	KeywordKeyframe         = "keyframe"
	KeywordEnum             = "enum_oneof"
	KeywordAssetReference   = "reference_asset"
	KeywordExtraProps       = "warn_extra_props"
)

// ErrNilSchema is returned by Build when no schema is given.
var ErrNilSchema = errors.New("augment: nil schema")

// Augmented is the result of Build.
type Augmented struct {
	Schema   *jsonschema.Schema
	Closures *ClosureMap
	// Tables maps the pointer of every node given a dispatch table
	// ("#/$defs/layers/all-layers") to that table.
	Tables  map[string]*Table
	Dialect Dialect
	Diag    Diag
}

type builder struct {
	root    *jsonschema.Schema
	d       Dialect
	docsURL string
	log     *slog.Logger
	diag    *simpleDiag
	out     *Augmented
}

// Build clones root and augments the clone.
func Build(root *jsonschema.Schema, opts Options) (*Augmented, error) {
	if root == nil {
		return nil, ErrNilSchema
	}
	d := opts.dialect()
	s := root.Clone()
	closures := NewClosureMap(s.ID, d.PropertySuffix)
	b := &builder{
		root:    s,
		d:       d,
		docsURL: opts.DocsURL,
		log:     opts.logger(),
		diag:    closures.diag,
		out: &Augmented{
			Schema:   s,
			Closures: closures,
			Tables:   make(map[string]*Table),
			Dialect:  d,
		},
	}

	b.patchDefinitions()
	for _, disc := range d.Discriminated {
		b.typeTable(disc)
	}
	b.propertyUnions()
	b.keyframes()
	b.enums()
	b.assets()
	b.references()
	n := closures.Finalize(KeywordExtraProps)
	for _, t := range b.out.Tables {
		t.seal()
	}

	b.log.Debug("schema augmented",
		"closures", closures.Len(),
		"warning_closures", n,
		"tables", len(b.out.Tables),
		"diagnostics", len(b.diag.ws))
	b.out.Diag = b.diag
	return b.out, nil
}

// Pointer returns the fragment identifier of a categorized definition.
func Pointer(category, name string) string {
	return "#/$defs/" + jsonschema.EscapeToken(category) + "/" + jsonschema.EscapeToken(name)
}

func (b *builder) category(name string) *jsonschema.Schema {
	c := b.root.Defs[name]
	if c == nil || !c.Grouping {
		return nil
	}
	return c
}

func (b *builder) def(category, name string) *jsonschema.Schema {
	c := b.category(category)
	if c == nil {
		return nil
	}
	return c.Defs[name]
}

func (b *builder) patchDefinitions() {
	for _, cat := range slices.Sorted(maps.Keys(b.root.Defs)) {
		group := b.root.Defs[cat]
		if !group.Grouping {
			title := group.Title
			if title == "" {
				title = KebabToTitle(cat)
			}
			PatchDocs(group, jsonschema.DocAnchor{URL: b.docsURL + "/specs/#" + cat, DisplayName: title, AnchorName: title})
			id := "#/$defs/" + jsonschema.EscapeToken(cat)
			b.out.Closures.Extract(group, id, b.out.Closures.Create(id, group))
			continue
		}
		for _, name := range slices.Sorted(maps.Keys(group.Defs)) {
			def := group.Defs[name]
			PatchDocs(def, DefinitionAnchor(b.docsURL, cat, name, def, b.d.PlainDefinitions))
			id := Pointer(cat, name)
			b.out.Closures.Extract(def, id, b.out.Closures.Create(id, def))
		}
	}
}

func (b *builder) typeTable(disc Discriminated) {
	group := b.category(disc.Category)
	if group == nil {
		b.diag.warnf("discriminated category %q not found", disc.Category)
		return
	}
	all := group.Defs[disc.All]
	if all == nil {
		b.diag.warnf("discriminated category %q has no %q definition", disc.Category, disc.All)
		return
	}
	t := NewTable(b.d.TagField, disc.FailUnknown)
	for _, name := range slices.Sorted(maps.Keys(group.Defs)) {
		if name == disc.All {
			continue
		}
		tag, ok := ExtractTag(group.Defs[name], b.d.TagField)
		if !ok {
			b.log.Debug("definition has no tag", "category", disc.Category, "definition", name)
			continue
		}
		if err := t.Add(Entry{Tag: tag, Target: Pointer(disc.Category, name)}); err != nil {
			b.diag.warnf("%s: %v", Pointer(disc.Category, name), err)
		}
	}
	all.OneOf = nil
	all.SetExtra(KeywordTypeDispatch, t)
	ptr := Pointer(disc.Category, disc.All)
	b.out.Tables[ptr] = t
	b.log.Debug("discriminator table", "definition", ptr, "entries", t.Len())
}

func (b *builder) propertyUnions() {
	cat := b.d.PropertyCategory
	group := b.category(cat)
	if group == nil {
		b.diag.warnf("property category %q not found", cat)
		return
	}
	for _, name := range slices.Sorted(maps.Keys(group.Defs)) {
		if b.d.PropertySuffix == "" || !strings.HasSuffix(name, b.d.PropertySuffix) {
			continue
		}
		b.propertyUnion(name, group.Defs[name], Pointer(cat, name))
	}
}

func (b *builder) propertyUnion(name string, s *jsonschema.Schema, ptr string) {
	if field, ok := b.d.NestedValue[name]; ok {
		inner := s.Properties[field]
		if inner == nil {
			b.diag.warnf("%s: nested value %q not declared", ptr, field)
			return
		}
		s, ptr = inner, ptr+"/properties/"+jsonschema.EscapeToken(field)
	}

	if sp := b.d.SplitPosition; name == sp.Property {
		t := NewTable(sp.Marker, false, WithDefault(false))
		_ = t.Add(Entry{Tag: true, Target: Pointer(b.d.PropertyCategory, sp.Split)})
		_ = t.Add(Entry{Tag: false, Target: Pointer(b.d.PropertyCategory, sp.Unified)})
		s.OneOf = nil
		s.SetExtra(KeywordSplitDispatch, t)
		b.out.Tables[ptr] = t
		return
	}

	if len(s.OneOf) == 0 {
		b.diag.warnf("%s: property has no oneOf alternatives", ptr)
		return
	}
	t := NewTable(b.d.PropertyMarker, true)
	for i, alt := range s.OneOf {
		// alt stays the node its closure was extracted from, so the
		// unknown property keyword attached later is reachable.
		if alt.Type == "" && alt.Types == nil {
			alt.Type = "object"
		}
		tag := any(float64(i))
		if m := alt.Properties[b.d.PropertyMarker]; m != nil && m.Const != nil {
			tag = *m.Const
		}
		if err := t.Add(Entry{Tag: tag, Schema: alt}); err != nil {
			b.diag.warnf("%s/oneOf/%d: %v", ptr, i, err)
		}
	}
	s.OneOf = nil
	s.SetExtra(KeywordPropertyDispatch, t)
	b.out.Tables[ptr] = t
}

func (b *builder) keyframes() {
	kf := b.d.Keyframe
	def := b.def(b.d.PropertyCategory, kf.Definition)
	if def == nil {
		b.diag.warnf("keyframe definition %q not found", kf.Definition)
		return
	}
	def.SetExtra(KeywordKeyframe, &KeyframeRule{Time: kf.Time, Hold: kf.Hold, In: kf.In})
}

func (b *builder) enums() {
	group := b.category(b.d.EnumCategory)
	if group == nil {
		return
	}
	for _, name := range slices.Sorted(maps.Keys(group.Defs)) {
		def := group.Defs[name]
		if def.OneOf == nil {
			continue
		}
		e := &Enum{}
		for i, alt := range def.OneOf {
			if alt.Const == nil {
				b.diag.warnf("%s/oneOf/%d: enumeration value has no const", Pointer(b.d.EnumCategory, name), i)
				continue
			}
			e.Values = append(e.Values, *alt.Const)
		}
		def.OneOf = nil
		def.SetExtra(KeywordEnum, e)
	}
}

func (b *builder) assets() {
	ad := b.d.Assets
	group := b.category(ad.Category)
	if group == nil || group.Defs[ad.All] == nil {
		b.diag.warnf("asset definition %q not found", Pointer(ad.Category, ad.All))
		return
	}
	old := group.Defs[ad.All]
	repl := &jsonschema.Schema{Type: "object", Doc: old.Doc}
	repl.SetExtra(KeywordAssetDispatch, &AssetDispatch{
		Indicator:     ad.Indicator,
		WithIndicator: Pointer(ad.Category, ad.WithIndicator),
		Default:       Pointer(ad.Category, ad.Default),
	})
	group.Defs[ad.All] = repl
}

func (b *builder) references() {
	ref := &AssetReference{Collection: b.d.Assets.Collection, IDField: b.d.Assets.IDField}
	for _, site := range b.d.References {
		def := b.def(site.Category, site.Definition)
		field := findProperty(def, site.Field)
		if field == nil {
			b.diag.warnf("%s: reference field %q not found", Pointer(site.Category, site.Definition), site.Field)
			continue
		}
		field.SetExtra(KeywordAssetReference, ref)
	}
}

// findProperty returns the schema of a declared property of s, looking
// through allOf branches.
func findProperty(s *jsonschema.Schema, name string) *jsonschema.Schema {
	if s == nil {
		return nil
	}
	if p := s.Properties[name]; p != nil {
		return p
	}
	for _, branch := range s.AllOf {
		if p := findProperty(branch, name); p != nil {
			return p
		}
	}
	return nil
}
