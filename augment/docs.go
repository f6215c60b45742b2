package augment

import (
	"slices"
	"strings"

	"github.com/reoring/lottieschema/jsonschema"
)

// KebabToTitle turns "shape-layer" into "Shape Layer".
func KebabToTitle(kebab string) string {
	chunks := strings.Split(kebab, "-")
	for i, c := range chunks {
		if c == "" {
			continue
		}
		chunks[i] = strings.ToUpper(c[:1]) + strings.ToLower(c[1:])
	}
	return strings.Join(chunks, " ")
}

// CategoryAnchor is the anchor shared by the untyped definitions of a
// category: the category page and its singular title.
func CategoryAnchor(docsURL, category string) jsonschema.DocAnchor {
	name := KebabToTitle(strings.TrimSuffix(category, "s"))
	return jsonschema.DocAnchor{
		URL:         docsURL + "/specs/" + category + "/",
		DisplayName: name,
		AnchorName:  name,
	}
}

// DefinitionAnchor returns the anchor of one definition. Typed definitions
// get their own fragment and are named by title, falling back to the
// title-cased definition name.
func DefinitionAnchor(docsURL, category, name string, def *jsonschema.Schema, plain []string) jsonschema.DocAnchor {
	a := CategoryAnchor(docsURL, category)
	if (def.Type == "" && def.Types == nil) || slices.Contains(plain, name) {
		return a
	}
	a.URL += "#" + name
	a.DisplayName = def.Title
	if a.DisplayName == "" {
		a.DisplayName = KebabToTitle(name)
	}
	a.AnchorName = a.DisplayName
	return a
}

// PatchDocs writes anchor onto s and every node below it. Property schemas
// extend the display name with ".<field>" while keeping the anchor name and
// URL of the enclosing definition.
func PatchDocs(s *jsonschema.Schema, anchor jsonschema.DocAnchor) {
	if s == nil {
		return
	}
	a := anchor
	s.Doc = &a
	s.EachChild(func(key string, child *jsonschema.Schema) bool {
		sub := anchor
		if field, ok := strings.CutPrefix(key, "properties/"); ok {
			sub.DisplayName += "." + jsonschema.UnescapeToken(field)
		}
		PatchDocs(child, sub)
		return true
	})
}
