package lottieschema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/lottieschema/eval"
	"github.com/reoring/lottieschema/jsonschema"
	"github.com/reoring/lottieschema/predicates"
)

// Finding codes (exported consts for IDE completion and type safety by convention)
const (
	CodeParseError           = "parse_error"
	CodeMaxDepth             = "max_depth"
	CodeDuplicateKey         = "duplicate_key"
	CodeInvalidType          = eval.CodeInvalidType
	CodeConst                = eval.CodeConst
	CodeInvalidEnum          = eval.CodeInvalidEnum
	CodeRequired             = eval.CodeRequired
	CodeTooSmall             = eval.CodeTooSmall
	CodeTooBig               = eval.CodeTooBig
	CodeTooShort             = eval.CodeTooShort
	CodeTooLong              = eval.CodeTooLong
	CodePattern              = eval.CodePattern
	CodeMultipleOf           = eval.CodeMultipleOf
	CodeUniqueItems          = eval.CodeUniqueItems
	CodeContains             = eval.CodeContains
	CodeAdditionalProperty   = eval.CodeAdditionalProperty
	CodeUnionNoMatch         = eval.CodeUnionNoMatch
	CodeUnionAmbiguous       = eval.CodeUnionAmbiguous
	CodeNot                  = eval.CodeNot
	CodeDiscriminatorUnknown = predicates.CodeDiscriminatorUnknown
	CodeKeyframeOrder        = predicates.CodeKeyframeOrder
	CodeKeyframeMultiplicity = predicates.CodeKeyframeMultiplicity
	CodeAssetReference       = predicates.CodeAssetReference
	CodeUnknownKey           = predicates.CodeUnknownKey
)

// Finding represents a single validation entry.
type Finding struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`

	// Category narrows warnings: "type" for unknown tag values, "property"
	// for unknown properties.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Message is prefixed with the display name of the schema concept, for
	// example "Shape Layer.ks has unknown property 'q'".
	Message string `json:"message" yaml:"message"`
	Path    string `json:"path" yaml:"path"` // JSON Pointer ("" for the document root).

	// PathNames holds the label of every tagged object crossed by Path;
	// nil entries stand for unlabelled ones.
	PathNames []*string             `json:"path_names" yaml:"path_names"`
	Anchor    *jsonschema.DocAnchor `json:"docs,omitempty" yaml:"docs,omitempty"`
	Params    map[string]string     `json:"params,omitempty" yaml:"params,omitempty"`
}

// Findings is a collection of validation results that implements error.
type Findings []Finding

// Error summarizes the first few findings.
func (fs Findings) Error() string {
	if len(fs) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(fs)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		f := fs[i]
		// e.g. required at /layers/0
		fmt.Fprintf(b, "%s at %s", f.Code, displayPath(f.Path))
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// HasErrors reports whether any finding has Error severity.
func (fs Findings) HasErrors() bool {
	for _, f := range fs {
		if f.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns the findings with Error severity.
func (fs Findings) Errors() Findings { return fs.filter(Error) }

// Warnings returns the findings with Warn severity.
func (fs Findings) Warnings() Findings { return fs.filter(Warn) }

func (fs Findings) filter(s Severity) Findings {
	var out Findings
	for _, f := range fs {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// AppendFindings appends findings to the destination, initializing the slice
// when needed.
func AppendFindings(dst Findings, more ...Finding) Findings {
	if dst == nil {
		dst = Findings{}
	}
	return append(dst, more...)
}

// AsFindings extracts Findings from an error using errors.As internally.
func AsFindings(err error) (Findings, bool) {
	if err == nil {
		return nil, false
	}
	var fs Findings
	if errors.As(err, &fs) {
		return fs, true
	}
	return nil, false
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
