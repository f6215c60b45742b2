package jsonschema

import (
	"strconv"
	"strings"
)

// EscapeToken escapes a JSON Pointer reference token per RFC 6901.
func EscapeToken(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

// UnescapeToken reverses EscapeToken.
func UnescapeToken(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}

// SplitPointer splits a JSON Pointer (optionally prefixed with "#") into
// unescaped reference tokens.
func SplitPointer(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		parts[i] = UnescapeToken(p)
	}
	return parts
}

// LocalRef strips the base URI from ref when it designates the resource
// identified by id, returning a fragment-only reference such as
// "#/$defs/layers/shape-layer".
func LocalRef(id, ref string) string {
	if strings.HasPrefix(ref, "#") {
		return ref
	}
	base, frag, ok := strings.Cut(ref, "#")
	if ok && (base == id || base == strings.TrimSuffix(id, "#")) {
		return "#" + frag
	}
	return ref
}

// Resolve walks a fragment pointer such as "#/$defs/shapes/fill/allOf/1"
// starting from s. It returns false when any step does not exist.
func (s *Schema) Resolve(ptr string) (*Schema, bool) {
	tokens := SplitPointer(ptr)
	cur := s
	for i := 0; i < len(tokens); i++ {
		if cur == nil {
			return nil, false
		}
		tok := tokens[i]
		if cur.Grouping {
			cur = cur.Defs[tok]
			continue
		}
		next := func() (string, bool) {
			if i+1 >= len(tokens) {
				return "", false
			}
			i++
			return tokens[i], true
		}
		index := func(list []*Schema) *Schema {
			t, ok := next()
			if !ok {
				return nil
			}
			n, err := strconv.Atoi(t)
			if err != nil || n < 0 || n >= len(list) {
				return nil
			}
			return list[n]
		}
		key := func(m map[string]*Schema) *Schema {
			t, ok := next()
			if !ok {
				return nil
			}
			return m[t]
		}
		switch tok {
		case "$defs", "definitions":
			cur = key(cur.Defs)
		case "properties":
			cur = key(cur.Properties)
		case "patternProperties":
			cur = key(cur.PatternProperties)
		case "allOf":
			cur = index(cur.AllOf)
		case "anyOf":
			cur = index(cur.AnyOf)
		case "oneOf":
			cur = index(cur.OneOf)
		case "prefixItems":
			cur = index(cur.PrefixItems)
		case "items":
			cur = cur.Items
		case "contains":
			cur = cur.Contains
		case "additionalProperties":
			cur = cur.AdditionalProperties
		case "not":
			cur = cur.Not
		case "if":
			cur = cur.If
		case "then":
			cur = cur.Then
		case "else":
			cur = cur.Else
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}
