package predicates

import (
	"github.com/reoring/lottieschema/augment"
	"github.com/reoring/lottieschema/eval"
	"github.com/reoring/lottieschema/jsonschema"
)

// validateKeyframe checks one element of a keyframe sequence against its
// neighbours. Outside a sequence there is nothing to check.
func validateKeyframe(ctx *eval.Context, payload any, v any) bool {
	rule := payload.(*augment.KeyframeRule)
	kf, ok := v.(map[string]any)
	if !ok {
		return true
	}
	seq, isSeq := ctx.Parent().([]any)
	idx, hasIdx := ctx.Index()
	if !isSeq || !hasIdx {
		return true
	}

	ok = true
	if idx < len(seq)-1 && !truthy(kf[rule.Hold]) {
		if _, has := kf[rule.In]; !has {
			ctx.Report(eval.Error{
				Code:   eval.CodeRequired,
				Params: map[string]string{"property": rule.In},
			})
			ok = false
		}
	}

	if idx == 0 {
		return ok
	}
	t, hasT := keyframeTime(kf, rule.Time)
	prev, hasPrev := keyframeTime(seq[idx-1], rule.Time)
	if !hasT || !hasPrev {
		return ok
	}
	switch {
	case t < prev:
		ctx.Report(eval.Error{Code: CodeKeyframeOrder, Params: map[string]string{"field": rule.Time}})
		ok = false
	case t == prev && idx > 1:
		if before, has := keyframeTime(seq[idx-2], rule.Time); has && before == t {
			ctx.Report(eval.Error{Code: CodeKeyframeMultiplicity, Params: map[string]string{"field": rule.Time}})
			ok = false
		}
	}
	return ok
}

func keyframeTime(v any, field string) (float64, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}
	return jsonschema.ToFloat(obj[field])
}
