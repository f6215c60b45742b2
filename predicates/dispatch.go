package predicates

import (
	"fmt"

	"github.com/reoring/lottieschema/augment"
	"github.com/reoring/lottieschema/eval"
)

type dispatch struct {
	table      *augment.Table
	validators map[augment.TagKey]*eval.Validator
}

func compileDispatch(c *eval.Compiler, payload any) (any, error) {
	t, ok := payload.(*augment.Table)
	if !ok {
		return nil, fmt.Errorf("dispatch: unexpected payload %T", payload)
	}
	d := &dispatch{table: t, validators: make(map[augment.TagKey]*eval.Validator, t.Len())}
	for _, e := range t.Entries() {
		var (
			v   *eval.Validator
			err error
		)
		if e.Target != "" {
			v, err = c.Compile(e.Target)
		} else {
			v, err = c.CompileSchema(e.Schema)
		}
		if err != nil {
			return nil, fmt.Errorf("dispatch %s=%s: %w", t.Field(), e.Key, err)
		}
		d.validators[e.Key] = v
	}
	return d, nil
}

// validateDispatch routes an object to the alternative selected by its tag.
// A missing tag passes unless the table has a default; the required check
// of the schema reports it.
func validateDispatch(ctx *eval.Context, payload any, v any) bool {
	d := payload.(*dispatch)
	obj, ok := v.(map[string]any)
	if !ok {
		return true
	}
	tag, present := obj[d.table.Field()]
	if !present {
		def, ok := d.table.Default()
		if !ok {
			return true
		}
		tag = def
	}
	e, found := d.table.Lookup(tag)
	if !found {
		sev := eval.SeverityWarning
		if d.table.FailUnknown() {
			sev = eval.SeverityError
		}
		ctx.Report(eval.Error{
			Severity: sev,
			Code:     CodeDiscriminatorUnknown,
			Category: CategoryType,
			Params:   map[string]string{"field": d.table.Field(), "value": eval.Text(tag)},
		})
		return !d.table.FailUnknown()
	}
	return ctx.Apply(d.validators[e.Key], v)
}

type assetDispatch struct {
	indicator string
	with      *eval.Validator
	without   *eval.Validator
}

func compileAssetDispatch(c *eval.Compiler, payload any) (any, error) {
	p, ok := payload.(*augment.AssetDispatch)
	if !ok {
		return nil, fmt.Errorf("asset dispatch: unexpected payload %T", payload)
	}
	with, err := c.Compile(p.WithIndicator)
	if err != nil {
		return nil, err
	}
	without, err := c.Compile(p.Default)
	if err != nil {
		return nil, err
	}
	return &assetDispatch{indicator: p.Indicator, with: with, without: without}, nil
}

func validateAssetDispatch(ctx *eval.Context, payload any, v any) bool {
	d := payload.(*assetDispatch)
	obj, ok := v.(map[string]any)
	if !ok {
		return true
	}
	if _, has := obj[d.indicator]; has {
		return ctx.Apply(d.with, v)
	}
	return ctx.Apply(d.without, v)
}
