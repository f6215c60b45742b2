package lottieschema

import "strconv"

// Breadcrumbs walks doc along pointer and returns, for every traversed object
// carrying tagField, its labelField value (nil when absent or not a string).
// The walk stops at the first step that does not exist.
func Breadcrumbs(doc any, pointer, tagField, labelField string) []*string {
	names := []*string{}
	cur := doc
	for _, tok := range At(pointer).Tokens() {
		switch c := cur.(type) {
		case map[string]any:
			cur = c[tok]
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(c) {
				return names
			}
			cur = c[i]
		default:
			return names
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			continue
		}
		if _, tagged := obj[tagField]; !tagged {
			continue
		}
		var label *string
		if s, ok := obj[labelField].(string); ok {
			label = &s
		}
		names = append(names, label)
	}
	return names
}
