package lottieschema

import (
	"fmt"
	"strconv"

	"github.com/reoring/lottieschema/jsonschema"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Findings.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	// Pointer renders the path; the document root is "".
	Pointer() string
	// Tokens returns the unescaped reference tokens.
	Tokens() []string
	Finding(sev Severity, code, msg string, kv ...any) Finding
}

// Root returns the path of the document root.
func Root() PathRef { return &pathRef{} }

// At parses a JSON Pointer such as "/layers/0/ks".
func At(pointer string) PathRef {
	return &pathRef{parts: jsonschema.SplitPointer(pointer)}
}

type pathRef struct {
	parts []string
}

func (p *pathRef) Field(name string) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), name)}
}

func (p *pathRef) Index(i int) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return ""
	}
	b := make([]byte, 0, 16*len(p.parts))
	for _, part := range p.parts {
		b = append(b, '/')
		b = append(b, jsonschema.EscapeToken(part)...)
	}
	return string(b)
}

func (p *pathRef) Tokens() []string { return append([]string(nil), p.parts...) }

func (p *pathRef) Finding(sev Severity, code, msg string, kv ...any) Finding {
	var m map[string]string
	for i := 0; i+1 < len(kv); i += 2 {
		if m == nil {
			m = map[string]string{}
		}
		m[fmt.Sprint(kv[i])] = fmt.Sprint(kv[i+1])
	}
	return FindingAt(p, sev, code, msg, m)
}
