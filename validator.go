package lottieschema

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/reoring/lottieschema/augment"
	"github.com/reoring/lottieschema/eval"
	"github.com/reoring/lottieschema/jsonschema"
	"github.com/reoring/lottieschema/predicates"
)

// ErrNilSchema is returned by New when no schema is given.
var ErrNilSchema = augment.ErrNilSchema

// defaultResourceID names a schema that carries no $id.
const defaultResourceID = "lottie.schema.json"

// Validator validates Lottie documents against one augmented, compiled
// schema. It is immutable after New and safe for concurrent use.
type Validator struct {
	opts    Options
	dialect Dialect
	aug     *augment.Augmented
	root    *eval.Validator
	log     *slog.Logger
}

// New augments schema (a private clone; the argument is left untouched) and
// compiles it with the Lottie keywords registered.
func New(schema *jsonschema.Schema, opts Options) (*Validator, error) {
	log := opts.logger()
	aug, err := augment.Build(schema, augment.Options{DocsURL: opts.DocsURL, Dialect: opts.Dialect, Logger: log})
	if err != nil {
		return nil, err
	}
	for _, w := range aug.Diag.Warnings() {
		log.Debug("schema augmentation", "warning", w)
	}

	c := eval.NewCompiler()
	if err := predicates.Register(c); err != nil {
		return nil, fmt.Errorf("lottieschema: register keywords: %w", err)
	}
	id := aug.Schema.ID
	if id == "" {
		id = defaultResourceID
	}
	if err := c.AddResource(id, aug.Schema); err != nil {
		return nil, fmt.Errorf("lottieschema: %w", err)
	}
	root, err := c.Compile("#")
	if err != nil {
		return nil, fmt.Errorf("lottieschema: compile schema: %w", err)
	}
	log.Debug("validator ready", "schema", id, "tables", len(aug.Tables), "closures", aug.Closures.Len())
	return &Validator{opts: opts, dialect: aug.Dialect, aug: aug, root: root, log: log}, nil
}

// NewFromJSON loads a JSON schema document and calls New.
func NewFromJSON(schemaJSON []byte, opts Options) (*Validator, error) {
	s, err := LoadSchema(schemaJSON)
	if err != nil {
		return nil, err
	}
	return New(s, opts)
}

// Schema returns the augmented schema. Callers must not modify it.
func (v *Validator) Schema() *jsonschema.Schema { return v.aug.Schema }

// Diag returns the non-fatal warnings produced while augmenting the schema.
func (v *Validator) Diag() augment.Diag { return v.aug.Diag }

// Validate parses raw and validates it. A document that cannot be parsed
// yields exactly one parse_error finding. The result is sorted by Path and
// is empty, not nil, for a valid document.
func (v *Validator) Validate(raw []byte) Findings {
	doc, dups, fatal := decodeDocument(raw, v.opts.Duplicates, v.opts.MaxDepth, v.opts.Language)
	if fatal != nil {
		v.log.Debug("document rejected", "code", fatal[0].Code, "message", fatal[0].Message)
		return fatal
	}
	return v.run(doc, dups)
}

// ValidateValue validates an already decoded document.
func (v *Validator) ValidateValue(doc any) Findings {
	return v.run(jsonschema.Normalize(doc), nil)
}

func (v *Validator) run(doc any, pre Findings) Findings {
	res := v.root.Validate(doc)
	out := make(Findings, 0, len(pre)+len(res.Errors))
	for _, f := range pre {
		f.PathNames = Breadcrumbs(doc, f.Path, v.dialect.TagField, v.dialect.LabelField)
		out = append(out, f)
	}
	for _, e := range res.Errors {
		out = append(out, v.finding(doc, e))
	}
	slices.SortStableFunc(out, func(a, b Finding) int { return strings.Compare(a.Path, b.Path) })
	v.log.Debug("document validated", "valid", res.Valid, "findings", len(out))
	return out
}

func (v *Validator) finding(doc any, e eval.Error) Finding {
	sev := Error
	if e.Severity == eval.SeverityWarning {
		sev = Warn
	}
	msg := e.Message
	if v.opts.Language != "" {
		msg = message(v.opts.Language, e.Code, e.Params)
	}
	prefix := "Value"
	var anchor *jsonschema.DocAnchor
	if e.Schema != nil && e.Schema.Doc != nil {
		a := *e.Schema.Doc
		anchor = &a
		prefix = a.DisplayName
	}
	return Finding{
		Severity:  sev,
		Code:      e.Code,
		Category:  e.Category,
		Message:   prefix + " " + msg,
		Path:      e.InstancePath,
		PathNames: Breadcrumbs(doc, e.InstancePath, v.dialect.TagField, v.dialect.LabelField),
		Anchor:    anchor,
		Params:    e.Params,
	}
}
