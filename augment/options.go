package augment

import (
	"fmt"
	"io"
	"log/slog"
)

// Options controls schema augmentation.
type Options struct {
	// DocsURL is the base of documentation links; category pages live
	// under DocsURL + "/specs/<category>/".
	DocsURL string
	// Dialect names the schema vocabulary. The zero value means
	// DefaultDialect().
	Dialect *Dialect
	// Logger receives Debug records about the tables and closures built.
	// Nil discards.
	Logger *slog.Logger
}

func (o Options) dialect() Dialect {
	if o.Dialect == nil {
		return DefaultDialect()
	}
	return *o.Dialect
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Dialect names every definition and field the augmentation pass relies on.
// All names are relative to the root $defs.
type Dialect struct {
	// TagField is the type tag read by the discriminator tables.
	TagField string `yaml:"tag_field"`
	// Discriminated lists the categories rewritten into tag dispatch.
	Discriminated []Discriminated `yaml:"discriminated"`

	// PropertyCategory holds animatable property definitions; those whose
	// name ends in PropertySuffix get a marker-driven dispatch.
	PropertyCategory string `yaml:"property_category"`
	PropertySuffix   string `yaml:"property_suffix"`
	// PropertyMarker is the field distinguishing static from animated
	// representations.
	PropertyMarker string `yaml:"property_marker"`
	// NestedValue maps a property definition to the field whose schema
	// carries the actual union (gradient-property -> k).
	NestedValue   map[string]string `yaml:"nested_value"`
	SplitPosition SplitPosition     `yaml:"split_position"`
	Keyframe      KeyframeFields    `yaml:"keyframe"`

	// EnumCategory holds enumerations written as oneOf of const values.
	EnumCategory string `yaml:"enum_category"`

	Assets AssetDialect `yaml:"assets"`
	// References lists the fields holding an asset id.
	References []ReferenceSite `yaml:"references"`

	// LabelField is the human label of tagged document nodes.
	LabelField string `yaml:"label_field"`
	// PlainDefinitions keep the category anchor even though they are
	// typed objects.
	PlainDefinitions []string `yaml:"plain_definitions"`
}

// Discriminated names a category and its "all alternatives" anchor.
type Discriminated struct {
	Category string `yaml:"category"`
	All      string `yaml:"all"`
	// FailUnknown makes an unknown tag an error instead of a warning.
	FailUnknown bool `yaml:"fail_unknown"`
}

// SplitPosition describes the two-way dispatch of a splittable position.
type SplitPosition struct {
	Property string `yaml:"property"`
	Marker   string `yaml:"marker"`
	Split    string `yaml:"split"`
	Unified  string `yaml:"unified"`
}

// KeyframeFields names the keyframe definition and the fields its
// sequence checks read.
type KeyframeFields struct {
	Definition string `yaml:"definition"`
	Time       string `yaml:"time"`
	Hold       string `yaml:"hold"`
	In         string `yaml:"in"`
}

// AssetDialect describes asset dispatch and lookup.
type AssetDialect struct {
	Category string `yaml:"category"`
	All      string `yaml:"all"`
	// Indicator present in an asset selects WithIndicator, otherwise
	// Default applies.
	Indicator     string `yaml:"indicator"`
	WithIndicator string `yaml:"with_indicator"`
	Default       string `yaml:"default"`
	// Collection is the root document field listing assets; IDField is
	// the identifier inside each entry.
	Collection string `yaml:"collection"`
	IDField    string `yaml:"id_field"`
}

// ReferenceSite is a field of a definition that must name an existing asset.
type ReferenceSite struct {
	Category   string `yaml:"category"`
	Definition string `yaml:"definition"`
	Field      string `yaml:"field"`
}

// DefaultDialect returns the Lottie vocabulary.
func DefaultDialect() Dialect {
	return Dialect{
		TagField: "ty",
		Discriminated: []Discriminated{
			{Category: "layers", All: "all-layers"},
			{Category: "shapes", All: "all-graphic-elements"},
		},
		PropertyCategory: "properties",
		PropertySuffix:   "-property",
		PropertyMarker:   "a",
		NestedValue:      map[string]string{"gradient-property": "k"},
		SplitPosition: SplitPosition{
			Property: "splittable-position-property",
			Marker:   "s",
			Split:    "split-position",
			Unified:  "position-property",
		},
		Keyframe:     KeyframeFields{Definition: "base-keyframe", Time: "t", Hold: "h", In: "i"},
		EnumCategory: "constants",
		Assets: AssetDialect{
			Category:      "assets",
			All:           "all-assets",
			Indicator:     "layers",
			WithIndicator: "precomposition",
			Default:       "image",
			Collection:    "assets",
			IDField:       "id",
		},
		References: []ReferenceSite{
			{Category: "layers", Definition: "image-layer", Field: "refId"},
			{Category: "layers", Definition: "precomposition-layer", Field: "refId"},
		},
		LabelField:       "nm",
		PlainDefinitions: []string{"base-gradient"},
	}
}

// Diag carries non-fatal warnings produced during augmentation.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool        { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string       { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(f string, a ...any) { d.ws = append(d.ws, fmt.Sprintf(f, a...)) }
