package predicates

import (
	"maps"
	"slices"

	"github.com/reoring/lottieschema/augment"
	"github.com/reoring/lottieschema/eval"
	"github.com/reoring/lottieschema/jsonschema"
)

func validateEnum(ctx *eval.Context, payload any, v any) bool {
	e := payload.(*augment.Enum)
	for _, allowed := range e.Values {
		if jsonschema.Equal(allowed, v) {
			return true
		}
	}
	ctx.Report(eval.Error{
		Code:   eval.CodeInvalidEnum,
		Params: map[string]string{"value": plain(v)},
	})
	return false
}

// validateAssetReference only checks that the id exists; the kind of the
// referenced asset is not compared with the use site.
func validateAssetReference(ctx *eval.Context, payload any, v any) bool {
	p := payload.(*augment.AssetReference)
	if root, ok := ctx.Root().(map[string]any); ok {
		assets, _ := root[p.Collection].([]any)
		for _, a := range assets {
			asset, ok := a.(map[string]any)
			if !ok {
				continue
			}
			if id, has := asset[p.IDField]; has && jsonschema.Equal(id, v) {
				return true
			}
		}
	}
	ctx.Report(eval.Error{
		Code:   CodeAssetReference,
		Params: map[string]string{"value": eval.Text(v)},
	})
	return false
}

// validateExtraProps warns once per key outside the allowed set. It never
// fails.
func validateExtraProps(ctx *eval.Context, payload any, v any) bool {
	set := payload.(*augment.PropertySet)
	obj, ok := v.(map[string]any)
	if !ok {
		return true
	}
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		if set.Has(key) {
			continue
		}
		ctx.Report(eval.Error{
			Severity: eval.SeverityWarning,
			Code:     CodeUnknownKey,
			Category: CategoryProperty,
			Params:   map[string]string{"property": key},
		})
	}
	return true
}
