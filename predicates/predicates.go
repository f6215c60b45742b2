// Package predicates implements the custom keywords written by package
// augment: tag and marker dispatch, asset dispatch and references, keyframe
// sequence checks, enumerations and unknown property warnings.
package predicates

import (
	"fmt"

	"github.com/reoring/lottieschema/augment"
	"github.com/reoring/lottieschema/eval"
	"github.com/reoring/lottieschema/jsonschema"
)

// Finding codes reported by the keywords of this package.
const (
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeKeyframeOrder        = "keyframe_order"
	CodeKeyframeMultiplicity = "keyframe_multiplicity"
	CodeAssetReference       = "asset_reference"
	CodeUnknownKey           = "unknown_key"
)

// Categories attached to warnings so callers can filter them.
const (
	CategoryType     = "type"
	CategoryProperty = "property"
)

// Keywords returns every keyword of the package.
func Keywords() []eval.Keyword {
	return []eval.Keyword{
		{Name: augment.KeywordTypeDispatch, Compile: compileDispatch, Validate: validateDispatch},
		{Name: augment.KeywordPropertyDispatch, Compile: compileDispatch, Validate: validateDispatch},
		{Name: augment.KeywordSplitDispatch, Compile: compileDispatch, Validate: validateDispatch},
		{Name: augment.KeywordAssetDispatch, Compile: compileAssetDispatch, Validate: validateAssetDispatch},
		{Name: augment.KeywordKeyframe, Compile: expect[*augment.KeyframeRule](augment.KeywordKeyframe), Validate: validateKeyframe},
		{Name: augment.KeywordEnum, Compile: expect[*augment.Enum](augment.KeywordEnum), Validate: validateEnum},
		{Name: augment.KeywordAssetReference, Compile: expect[*augment.AssetReference](augment.KeywordAssetReference), Validate: validateAssetReference},
		{Name: augment.KeywordExtraProps, Compile: expect[*augment.PropertySet](augment.KeywordExtraProps), Validate: validateExtraProps},
	}
}

// Register adds every keyword of the package to c.
func Register(c *eval.Compiler) error {
	for _, k := range Keywords() {
		if err := c.RegisterKeyword(k); err != nil {
			return err
		}
	}
	return nil
}

func expect[T any](keyword string) func(*eval.Compiler, any) (any, error) {
	return func(_ *eval.Compiler, payload any) (any, error) {
		if _, ok := payload.(T); !ok {
			return nil, fmt.Errorf("%s: unexpected payload %T", keyword, payload)
		}
		return payload, nil
	}
}

// plain renders strings bare and every other value as JSON.
func plain(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return eval.Text(v)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := jsonschema.ToFloat(v); ok {
		return f != 0
	}
	return true
}
