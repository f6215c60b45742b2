// Package schemacheck checks a Lottie schema before it is used: Lint walks
// the typed tree for mistakes the evaluator would only trip over late, and
// Compile runs the raw bytes through an independent Draft 2020-12 compiler.
package schemacheck

import (
	"fmt"
	"slices"
	"strings"

	"github.com/reoring/lottieschema/jsonschema"
)

// Problem is one lint finding. Pointer locates the offending node inside
// the schema document ("#" for the root).
type Problem struct {
	Pointer string
	Message string
}

func (p Problem) String() string { return p.Pointer + ": " + p.Message }

var knownTypes = map[string]bool{
	"object":  true,
	"array":   true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"string":  true,
}

type linter struct {
	root     *jsonschema.Schema
	problems []Problem
	used     map[string]bool
	checked  map[string]bool
}

// Lint reports unknown type names, $ref targets that do not resolve and
// typed definitions nothing refers to. The result is sorted by pointer.
func Lint(s *jsonschema.Schema) []Problem {
	if s == nil {
		return []Problem{{Pointer: "#", Message: "nil schema"}}
	}
	l := &linter{root: s, used: map[string]bool{}, checked: map[string]bool{}}
	l.walk("#", s)
	s.EachDef(func(ptr string, def *jsonschema.Schema) {
		l.walk("#/"+ptr, def)
	})
	s.EachDef(func(ptr string, def *jsonschema.Schema) {
		if def.Type == "" && len(def.Types) == 0 {
			return
		}
		if !l.used["#/"+ptr] {
			l.add("#/"+ptr, "unused definition")
		}
	})
	slices.SortStableFunc(l.problems, func(a, b Problem) int {
		return strings.Compare(a.Pointer, b.Pointer)
	})
	return l.problems
}

func (l *linter) add(ptr, format string, args ...any) {
	l.problems = append(l.problems, Problem{Pointer: ptr, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) walk(ptr string, s *jsonschema.Schema) {
	if s.Type != "" && !knownTypes[s.Type] {
		l.add(ptr, "unknown type %q", s.Type)
	}
	for _, t := range s.Types {
		if !knownTypes[t] {
			l.add(ptr, "unknown type %q", t)
		}
	}
	if s.Ref != "" {
		l.checkRef(ptr, s.Ref)
	}
	s.EachChild(func(key string, child *jsonschema.Schema) bool {
		l.walk(ptr+"/"+key, child)
		return true
	})
}

func (l *linter) checkRef(ptr, ref string) {
	local := jsonschema.LocalRef(l.root.ID, ref)
	if l.checked[local] {
		return
	}
	if !strings.HasPrefix(local, "#") {
		l.add(ptr, "external $ref %s", ref)
		return
	}
	if _, ok := l.root.Resolve(local); !ok {
		l.add(ptr, "invalid $ref %s", ref)
		return
	}
	l.checked[local] = true
	l.used[local] = true
}
