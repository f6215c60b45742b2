package eval

import (
	"github.com/reoring/lottieschema/i18n"
	"github.com/reoring/lottieschema/jsonschema"
)

// Context is handed to custom keywords. It is only valid for the duration
// of the Validate call that received it.
type Context struct {
	run    *run
	at     location
	schema *jsonschema.Schema
}

// InstancePath returns the JSON Pointer of the value under evaluation.
func (c *Context) InstancePath() string { return c.at.pointer() }

// Root returns the whole document being validated.
func (c *Context) Root() any { return c.run.root }

// Parent returns the container holding the current value, or nil at the root.
func (c *Context) Parent() any { return c.at.parent }

// Key returns the property name or array index of the current value inside
// its parent, or nil at the root.
func (c *Context) Key() any { return c.at.key }

// Index reports the array index of the current value when its parent is an
// array.
func (c *Context) Index() (int, bool) {
	i, ok := c.at.key.(int)
	return i, ok
}

// Schema returns the schema node carrying the keyword.
func (c *Context) Schema() *jsonschema.Schema { return c.schema }

// Report records a finding. Empty InstancePath, Schema and Message are
// filled from the context and the active translator.
func (c *Context) Report(e Error) {
	if e.InstancePath == "" {
		e.InstancePath = c.at.pointer()
	}
	if e.Schema == nil {
		e.Schema = c.schema
	}
	if e.Message == "" {
		e.Message = i18n.T(e.Code, e.Params)
	}
	c.run.errs = append(c.run.errs, e)
}

// Apply evaluates data against v at the current location. Findings go to the
// same buffer as the caller's, so enclosing unions see them.
func (c *Context) Apply(v *Validator, data any) bool {
	if v == nil {
		return true
	}
	return v.n.validate(c.run, c.at, data)
}
