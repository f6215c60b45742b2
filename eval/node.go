package eval

import (
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/reoring/lottieschema/i18n"
	"github.com/reoring/lottieschema/jsonschema"
)

type patternProp struct {
	re *regexp.Regexp
	n  *node
}

type boundKeyword struct {
	kw      *Keyword
	payload any
}

// node is the compiled form of one schema node.
type node struct {
	s           *jsonschema.Schema
	falseSchema bool

	ref          *node
	types        []string
	pattern      *regexp.Regexp
	props        map[string]*node
	propNames    []string
	patternProps []patternProp
	additional   *node
	items        *node
	prefixItems  []*node
	contains     *node
	allOf        []*node
	anyOf        []*node
	oneOf        []*node
	not          *node
	ifN          *node
	thenN        *node
	elseN        *node
	keywords     []boundKeyword
}

// location identifies the instance being evaluated: its escaped pointer
// tokens, the container holding it, and its key or index there.
type location struct {
	path   []string
	parent any
	key    any
}

func (l location) child(parent any, key any) location {
	var tok string
	switch k := key.(type) {
	case string:
		tok = jsonschema.EscapeToken(k)
	case int:
		tok = strconv.Itoa(k)
	}
	p := make([]string, len(l.path)+1)
	copy(p, l.path)
	p[len(l.path)] = tok
	return location{path: p, parent: parent, key: key}
}

func (l location) pointer() string {
	if len(l.path) == 0 {
		return ""
	}
	return "/" + strings.Join(l.path, "/")
}

// run is the per-call state: the document root and the findings buffer.
type run struct {
	root any
	errs []Error
}

func (r *run) fail(at location, s *jsonschema.Schema, code string, params map[string]string) {
	r.errs = append(r.errs, Error{
		Severity:     SeverityError,
		Code:         code,
		Message:      i18n.T(code, params),
		InstancePath: at.pointer(),
		Schema:       s,
		Params:       params,
	})
}

// try evaluates f against a scratch region of the findings buffer and hands
// back what f produced without keeping it.
func (r *run) try(f func() bool) (bool, []Error) {
	start := len(r.errs)
	ok := f()
	errs := slices.Clone(r.errs[start:])
	r.errs = r.errs[:start]
	return ok, errs
}

// closest picks the errors to report beside a union summary: those of the
// failed branch whose errors reach deepest into the value, first branch on
// ties. A branch failing only at the union's own path says nothing the
// summary does not, unless it is the only branch. Warnings are dropped.
func closest(at location, failed [][]Error) []Error {
	base := strings.Count(at.pointer(), "/")
	best, depth := -1, base
	for i, errs := range failed {
		d := -1
		for _, e := range errs {
			if e.Severity == SeverityError {
				d = max(d, strings.Count(e.InstancePath, "/"))
			}
		}
		if d > depth || (len(failed) == 1 && d >= 0) {
			best, depth = i, d
		}
	}
	if best < 0 {
		return nil
	}
	var out []Error
	for _, e := range failed[best] {
		if e.Severity == SeverityError {
			out = append(out, e)
		}
	}
	return out
}

func (n *node) validate(r *run, at location, v any) bool {
	if n == nil {
		return true
	}
	s := n.s
	ok := true

	if n.ref != nil && !n.ref.validate(r, at, v) {
		ok = false
	}

	if len(n.types) > 0 && !slices.ContainsFunc(n.types, func(t string) bool { return hasType(v, t) }) {
		r.fail(at, s, CodeInvalidType, map[string]string{"type": strings.Join(n.types, ",")})
		ok = false
	}
	if s.Const != nil && !jsonschema.Equal(*s.Const, v) {
		r.fail(at, s, CodeConst, map[string]string{"value": Text(*s.Const)})
		ok = false
	}
	if s.Enum != nil && !slices.ContainsFunc(s.Enum, func(e any) bool { return jsonschema.Equal(e, v) }) {
		r.fail(at, s, CodeInvalidEnum, map[string]string{"value": Text(v)})
		ok = false
	}

	if f, isNum := jsonschema.ToFloat(v); isNum {
		ok = n.validateNumber(r, at, f) && ok
	}
	if str, isStr := v.(string); isStr {
		ok = n.validateString(r, at, str) && ok
	}
	if arr, isArr := v.([]any); isArr {
		ok = n.validateArray(r, at, arr) && ok
	}
	if obj, isObj := v.(map[string]any); isObj {
		ok = n.validateObject(r, at, obj) && ok
	}

	for _, sub := range n.allOf {
		if !sub.validate(r, at, v) {
			ok = false
		}
	}
	if len(n.anyOf) > 0 {
		matched := false
		var failed [][]Error
		for _, sub := range n.anyOf {
			passed, errs := r.try(func() bool { return sub.validate(r, at, v) })
			if passed {
				r.errs = append(r.errs, errs...)
				matched = true
				break
			}
			failed = append(failed, errs)
		}
		if !matched {
			r.fail(at, s, CodeUnionNoMatch, map[string]string{"keyword": "anyOf"})
			r.errs = append(r.errs, closest(at, failed)...)
			ok = false
		}
	}
	if len(n.oneOf) > 0 {
		passing := 0
		var kept []Error
		var failed [][]Error
		for _, sub := range n.oneOf {
			passed, errs := r.try(func() bool { return sub.validate(r, at, v) })
			if !passed {
				failed = append(failed, errs)
				continue
			}
			passing++
			if passing == 1 {
				kept = errs
			}
		}
		switch passing {
		case 0:
			r.fail(at, s, CodeUnionNoMatch, map[string]string{"keyword": "oneOf"})
			r.errs = append(r.errs, closest(at, failed)...)
			ok = false
		case 1:
			r.errs = append(r.errs, kept...)
		default:
			r.fail(at, s, CodeUnionAmbiguous, nil)
			ok = false
		}
	}
	if n.not != nil {
		if passed, _ := r.try(func() bool { return n.not.validate(r, at, v) }); passed {
			r.fail(at, s, CodeNot, nil)
			ok = false
		}
	}
	if n.ifN != nil {
		passed, _ := r.try(func() bool { return n.ifN.validate(r, at, v) })
		branch := n.elseN
		if passed {
			branch = n.thenN
		}
		if branch != nil && !branch.validate(r, at, v) {
			ok = false
		}
	}

	if len(n.keywords) > 0 {
		ctx := &Context{run: r, at: at, schema: s}
		for _, bk := range n.keywords {
			if !bk.kw.Validate(ctx, bk.payload, v) {
				ok = false
			}
		}
	}
	return ok
}

func (n *node) validateNumber(r *run, at location, f float64) bool {
	s := n.s
	ok := true
	bound := func(failed bool, code, cmp string, limit float64) {
		if failed {
			r.fail(at, s, code, map[string]string{"comparison": cmp, "limit": formatNumber(limit)})
			ok = false
		}
	}
	if s.Minimum != nil {
		bound(f < *s.Minimum, CodeTooSmall, ">=", *s.Minimum)
	}
	if s.ExclusiveMinimum != nil {
		bound(f <= *s.ExclusiveMinimum, CodeTooSmall, ">", *s.ExclusiveMinimum)
	}
	if s.Maximum != nil {
		bound(f > *s.Maximum, CodeTooBig, "<=", *s.Maximum)
	}
	if s.ExclusiveMaximum != nil {
		bound(f >= *s.ExclusiveMaximum, CodeTooBig, "<", *s.ExclusiveMaximum)
	}
	if s.MultipleOf != nil && *s.MultipleOf > 0 {
		q := f / *s.MultipleOf
		if math.Abs(q-math.Round(q)) > 1e-9 {
			r.fail(at, s, CodeMultipleOf, map[string]string{"limit": formatNumber(*s.MultipleOf)})
			ok = false
		}
	}
	return ok
}

func (n *node) validateString(r *run, at location, str string) bool {
	s := n.s
	ok := true
	if s.MinLength != nil || s.MaxLength != nil {
		l := utf8.RuneCountInString(str)
		if s.MinLength != nil && l < *s.MinLength {
			r.fail(at, s, CodeTooShort, map[string]string{"limit": strconv.Itoa(*s.MinLength), "unit": "characters"})
			ok = false
		}
		if s.MaxLength != nil && l > *s.MaxLength {
			r.fail(at, s, CodeTooLong, map[string]string{"limit": strconv.Itoa(*s.MaxLength), "unit": "characters"})
			ok = false
		}
	}
	if n.pattern != nil && !n.pattern.MatchString(str) {
		r.fail(at, s, CodePattern, map[string]string{"pattern": s.Pattern})
		ok = false
	}
	return ok
}

func (n *node) validateArray(r *run, at location, arr []any) bool {
	s := n.s
	ok := true
	if s.MinItems != nil && len(arr) < *s.MinItems {
		r.fail(at, s, CodeTooShort, map[string]string{"limit": strconv.Itoa(*s.MinItems), "unit": "items"})
		ok = false
	}
	if s.MaxItems != nil && len(arr) > *s.MaxItems {
		r.fail(at, s, CodeTooLong, map[string]string{"limit": strconv.Itoa(*s.MaxItems), "unit": "items"})
		ok = false
	}
	if s.UniqueItems {
	dup:
		for i := 1; i < len(arr); i++ {
			for j := 0; j < i; j++ {
				if jsonschema.Equal(arr[i], arr[j]) {
					r.fail(at, s, CodeUniqueItems, map[string]string{"first": strconv.Itoa(j), "second": strconv.Itoa(i)})
					ok = false
					break dup
				}
			}
		}
	}
	for i, item := range arr {
		var sub *node
		switch {
		case i < len(n.prefixItems):
			sub = n.prefixItems[i]
		case n.items != nil:
			sub = n.items
		default:
			continue
		}
		if !sub.validate(r, at.child(arr, i), item) {
			ok = false
		}
	}
	if n.contains != nil {
		found := false
		for i, item := range arr {
			if passed, _ := r.try(func() bool { return n.contains.validate(r, at.child(arr, i), item) }); passed {
				found = true
				break
			}
		}
		if !found {
			r.fail(at, s, CodeContains, nil)
			ok = false
		}
	}
	return ok
}

func (n *node) validateObject(r *run, at location, obj map[string]any) bool {
	s := n.s
	ok := true
	if s.MinProperties != nil && len(obj) < *s.MinProperties {
		r.fail(at, s, CodeTooShort, map[string]string{"limit": strconv.Itoa(*s.MinProperties), "unit": "properties"})
		ok = false
	}
	if s.MaxProperties != nil && len(obj) > *s.MaxProperties {
		r.fail(at, s, CodeTooLong, map[string]string{"limit": strconv.Itoa(*s.MaxProperties), "unit": "properties"})
		ok = false
	}
	for _, name := range s.Required {
		if _, present := obj[name]; !present {
			r.fail(at, s, CodeRequired, map[string]string{"property": name})
			ok = false
		}
	}
	for _, name := range n.propNames {
		if val, present := obj[name]; present {
			if !n.props[name].validate(r, at.child(obj, name), val) {
				ok = false
			}
		}
	}
	if len(n.patternProps) == 0 && n.additional == nil {
		return ok
	}
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		matched := false
		for _, pp := range n.patternProps {
			if pp.re.MatchString(key) {
				matched = true
				if !pp.n.validate(r, at.child(obj, key), obj[key]) {
					ok = false
				}
			}
		}
		if matched || n.additional == nil {
			continue
		}
		if _, declared := n.props[key]; declared {
			continue
		}
		if n.additional.falseSchema {
			r.fail(at, s, CodeAdditionalProperty, map[string]string{"property": key})
			ok = false
			continue
		}
		if !n.additional.validate(r, at.child(obj, key), obj[key]) {
			ok = false
		}
	}
	return ok
}

// TypeOf returns the JSON type name of a decoded value.
func TypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if _, ok := jsonschema.ToFloat(v); ok {
		return "number"
	}
	return "unknown"
}

func hasType(v any, t string) bool {
	switch t {
	case "integer":
		f, ok := jsonschema.ToFloat(v)
		return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
	case "number":
		_, ok := jsonschema.ToFloat(v)
		return ok
	}
	return TypeOf(v) == t
}

// Text renders a value as compact JSON for use in messages.
func Text(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return TypeOf(v)
	}
	return string(b)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
