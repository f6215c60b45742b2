// Package eval is a collect-all JSON Schema evaluator with pluggable keywords.
//
// A Compiler holds schema resources and keyword registrations. Compile turns
// a schema identifier into a reusable Validator; Validator.Validate never
// stops at the first failure and returns every error and warning it found.
// Custom keywords read their payload from Schema.Extra and receive a Context
// exposing the instance location, the enclosing container and the document
// root.
package eval

import (
	"errors"

	"github.com/reoring/lottieschema/jsonschema"
)

// Severity ranks an Error. Only SeverityError affects validity.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Error codes produced by the structural keywords.
const (
	CodeInvalidType        = "invalid_type"
	CodeConst              = "const"
	CodeInvalidEnum        = "invalid_enum"
	CodeRequired           = "required"
	CodeTooSmall           = "too_small"
	CodeTooBig             = "too_big"
	CodeTooShort           = "too_short"
	CodeTooLong            = "too_long"
	CodePattern            = "pattern"
	CodeMultipleOf         = "multiple_of"
	CodeUniqueItems        = "unique_items"
	CodeContains           = "contains"
	CodeAdditionalProperty = "additional_property"
	CodeUnionNoMatch       = "union_no_match"
	CodeUnionAmbiguous     = "union_ambiguous"
	CodeNot                = "not"
)

var (
	// ErrUnresolvedRef reports a $ref or identifier that names no schema.
	ErrUnresolvedRef = errors.New("eval: unresolved reference")
	// ErrDuplicateKeyword reports a second registration under the same name.
	ErrDuplicateKeyword = errors.New("eval: keyword already registered")
	// ErrNoResource reports compilation before any resource was added.
	ErrNoResource = errors.New("eval: no schema resource")
)

// Error is one evaluation outcome. InstancePath is a JSON Pointer into the
// validated document ("" for the root). Schema is the node whose keyword
// produced the error.
type Error struct {
	Severity     Severity
	Code         string
	Category     string
	Message      string
	InstancePath string
	Schema       *jsonschema.Schema
	Params       map[string]string
}

// Keyword binds a custom keyword name to its implementation.
type Keyword struct {
	Name string
	// Compile converts the payload stored in Schema.Extra into the value
	// handed to Validate. It runs once per schema node. Nil keeps the
	// payload as is.
	Compile func(c *Compiler, payload any) (any, error)
	// Validate checks v and reports findings through ctx. Returning false
	// marks the enclosing schema as failed.
	Validate func(ctx *Context, payload any, v any) bool
}

// Result is the outcome of one Validate call. Valid is false when at least
// one keyword failed; Errors may hold warnings even when Valid is true.
type Result struct {
	Valid  bool
	Errors []Error
}
