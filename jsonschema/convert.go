package jsonschema

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// keywords lists the keys FromMap models as struct fields.
var keywords = map[string]bool{
	"$id": true, "$schema": true, "$ref": true, "$comment": true, "$defs": true, "definitions": true,
	"title": true, "description": true, "default": true,
	"type": true, "enum": true, "const": true, "multipleOf": true, "minimum": true, "maximum": true,
	"exclusiveMinimum": true, "exclusiveMaximum": true, "minLength": true, "maxLength": true,
	"pattern": true, "format": true,
	"items": true, "prefixItems": true, "minItems": true, "maxItems": true, "uniqueItems": true, "contains": true,
	"minProperties": true, "maxProperties": true, "required": true, "properties": true,
	"patternProperties": true, "additionalProperties": true,
	"allOf": true, "anyOf": true, "oneOf": true, "not": true,
	"if": true, "then": true, "else": true,
}

// FromMap builds a Schema from a decoded JSON or YAML value. A boolean is a
// valid schema: true accepts everything and false rejects everything.
func FromMap(v any) (*Schema, error) {
	return fromValue(v, "#")
}

func fromValue(v any, at string) (*Schema, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return &Schema{}, nil
		}
		return &Schema{Not: &Schema{}}, nil
	case map[string]any:
		return fromMap(t, at)
	default:
		return nil, fmt.Errorf("jsonschema: %s: schema must be an object or boolean, got %T", at, v)
	}
}

func fromMap(m map[string]any, at string) (*Schema, error) {
	s := &Schema{}
	var err error
	str := func(key string, dst *string) {
		if err != nil {
			return
		}
		if raw, ok := m[key]; ok {
			v, ok := raw.(string)
			if !ok {
				err = fmt.Errorf("jsonschema: %s/%s: expected string, got %T", at, key, raw)
				return
			}
			*dst = v
		}
	}
	num := func(key string, dst **float64) {
		if err != nil {
			return
		}
		if raw, ok := m[key]; ok {
			f, ok := ToFloat(raw)
			if !ok {
				err = fmt.Errorf("jsonschema: %s/%s: expected number, got %T", at, key, raw)
				return
			}
			*dst = Ptr(f)
		}
	}
	integer := func(key string, dst **int) {
		if err != nil {
			return
		}
		if raw, ok := m[key]; ok {
			f, ok := ToFloat(raw)
			if !ok || f != math.Trunc(f) {
				err = fmt.Errorf("jsonschema: %s/%s: expected integer, got %v", at, key, raw)
				return
			}
			*dst = Ptr(int(f))
		}
	}
	sub := func(key string, dst **Schema) {
		if err != nil {
			return
		}
		if raw, ok := m[key]; ok {
			*dst, err = fromValue(raw, at+"/"+key)
		}
	}
	list := func(key string, dst *[]*Schema) {
		if err != nil {
			return
		}
		raw, ok := m[key]
		if !ok {
			return
		}
		arr, ok := raw.([]any)
		if !ok {
			err = fmt.Errorf("jsonschema: %s/%s: expected array, got %T", at, key, raw)
			return
		}
		out := make([]*Schema, len(arr))
		for i, item := range arr {
			if out[i], err = fromValue(item, at+"/"+key+"/"+strconv.Itoa(i)); err != nil {
				return
			}
		}
		*dst = out
	}
	dict := func(key string, dst *map[string]*Schema) {
		if err != nil {
			return
		}
		raw, ok := m[key]
		if !ok {
			return
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			err = fmt.Errorf("jsonschema: %s/%s: expected object, got %T", at, key, raw)
			return
		}
		out := make(map[string]*Schema, len(obj))
		for k, item := range obj {
			if out[k], err = fromValue(item, at+"/"+key+"/"+EscapeToken(k)); err != nil {
				return
			}
		}
		*dst = out
	}

	str("$id", &s.ID)
	str("$schema", &s.SchemaURI)
	str("$ref", &s.Ref)
	str("$comment", &s.Comment)
	str("title", &s.Title)
	str("description", &s.Description)
	str("pattern", &s.Pattern)
	str("format", &s.Format)
	num("multipleOf", &s.MultipleOf)
	num("minimum", &s.Minimum)
	num("maximum", &s.Maximum)
	num("exclusiveMinimum", &s.ExclusiveMinimum)
	num("exclusiveMaximum", &s.ExclusiveMaximum)
	integer("minLength", &s.MinLength)
	integer("maxLength", &s.MaxLength)
	integer("minItems", &s.MinItems)
	integer("maxItems", &s.MaxItems)
	integer("minProperties", &s.MinProperties)
	integer("maxProperties", &s.MaxProperties)
	sub("items", &s.Items)
	sub("contains", &s.Contains)
	sub("additionalProperties", &s.AdditionalProperties)
	sub("not", &s.Not)
	sub("if", &s.If)
	sub("then", &s.Then)
	sub("else", &s.Else)
	list("prefixItems", &s.PrefixItems)
	list("allOf", &s.AllOf)
	list("anyOf", &s.AnyOf)
	list("oneOf", &s.OneOf)
	dict("properties", &s.Properties)
	dict("patternProperties", &s.PatternProperties)
	if err != nil {
		return nil, err
	}

	if raw, ok := m["type"]; ok {
		switch t := raw.(type) {
		case string:
			s.Type = t
		case []any:
			for _, x := range t {
				name, ok := x.(string)
				if !ok {
					return nil, fmt.Errorf("jsonschema: %s/type: expected string entries, got %T", at, x)
				}
				s.Types = append(s.Types, name)
			}
		default:
			return nil, fmt.Errorf(`jsonschema: %s: invalid value for "type": %v`, at, raw)
		}
	}
	if raw, ok := m["required"]; ok {
		arr, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("jsonschema: %s/required: expected array, got %T", at, raw)
		}
		for _, x := range arr {
			name, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("jsonschema: %s/required: expected string entries, got %T", at, x)
			}
			s.Required = append(s.Required, name)
		}
	}
	if raw, ok := m["enum"]; ok {
		arr, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("jsonschema: %s/enum: expected array, got %T", at, raw)
		}
		s.Enum = make([]any, len(arr))
		for i, x := range arr {
			s.Enum[i] = Normalize(x)
		}
	}
	if raw, ok := m["const"]; ok {
		s.Const = Ptr(Normalize(raw))
	}
	if raw, ok := m["default"]; ok {
		s.Default = Normalize(raw)
	}
	if raw, ok := m["uniqueItems"]; ok {
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("jsonschema: %s/uniqueItems: expected boolean, got %T", at, raw)
		}
		s.UniqueItems = b
	}

	for _, key := range []string{"$defs", "definitions"} {
		raw, ok := m[key]
		if !ok {
			continue
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("jsonschema: %s/%s: expected object, got %T", at, key, raw)
		}
		defs, err := fromDefs(obj, at+"/"+key)
		if err != nil {
			return nil, err
		}
		if s.Defs == nil {
			s.Defs = defs
		} else {
			for k, d := range defs {
				s.Defs[k] = d
			}
		}
	}

	for k, v := range m {
		if !keywords[k] {
			s.SetExtra(k, v)
		}
	}
	return s, nil
}

// fromDefs converts a $defs object. Entries that are objects of objects
// without any schema keyword are treated as namespaces for nested definitions.
func fromDefs(obj map[string]any, at string) (map[string]*Schema, error) {
	out := make(map[string]*Schema, len(obj))
	for k, raw := range obj {
		p := at + "/" + EscapeToken(k)
		if m, ok := raw.(map[string]any); ok && isGrouping(m) {
			nested, err := fromDefs(m, p)
			if err != nil {
				return nil, err
			}
			out[k] = &Schema{Grouping: true, Defs: nested}
			continue
		}
		d, err := fromValue(raw, p)
		if err != nil {
			return nil, err
		}
		out[k] = d
	}
	return out, nil
}

func isGrouping(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k, v := range m {
		if keywords[k] {
			return false
		}
		if _, ok := v.(map[string]any); !ok {
			return false
		}
	}
	return true
}

// ToFloat converts any numeric value produced by JSON or YAML decoders.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Normalize rewrites decoded values so numbers are float64 throughout, which
// is what document decoding produces.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = Normalize(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Normalize(x)
		}
		return out
	case string, bool, nil, float64:
		return t
	}
	if f, ok := ToFloat(v); ok {
		return f
	}
	return v
}

// Equal reports JSON value equality: numbers compare by value, objects by key
// set and member values, arrays element-wise.
func Equal(a, b any) bool {
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		return ok && slices.EqualFunc(x, y, Equal)
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	return false
}
