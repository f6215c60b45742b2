package eval

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/reoring/lottieschema/jsonschema"
)

// Compiler compiles schema resources into Validators. It is not safe for
// concurrent use; the Validators it returns are.
type Compiler struct {
	resources map[string]*jsonschema.Schema
	defaultID string
	keywords  map[string]*Keyword
	names     []string
	nodes     map[*jsonschema.Schema]*node
}

// NewCompiler returns an empty Compiler.
func NewCompiler() *Compiler {
	return &Compiler{
		resources: make(map[string]*jsonschema.Schema),
		keywords:  make(map[string]*Keyword),
		nodes:     make(map[*jsonschema.Schema]*node),
	}
}

// RegisterKeyword adds a custom keyword. Nodes carrying k.Name in their Extra
// map get k bound at compile time.
func (c *Compiler) RegisterKeyword(k Keyword) error {
	if k.Name == "" || k.Validate == nil {
		return fmt.Errorf("eval: keyword %q: name and Validate are required", k.Name)
	}
	if _, ok := c.keywords[k.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKeyword, k.Name)
	}
	c.keywords[k.Name] = &k
	c.names = append(c.names, k.Name)
	slices.Sort(c.names)
	return nil
}

// AddResource registers a schema tree under id. The first resource added
// becomes the target of fragment-only identifiers such as "#/$defs/x".
func (c *Compiler) AddResource(id string, root *jsonschema.Schema) error {
	if root == nil {
		return fmt.Errorf("eval: resource %q: nil schema", id)
	}
	id = strings.TrimSuffix(id, "#")
	c.resources[id] = root
	if root.ID != "" {
		c.resources[strings.TrimSuffix(root.ID, "#")] = root
	}
	if c.defaultID == "" {
		c.defaultID = id
	}
	return nil
}

// Resolve returns the schema designated by ref, either fragment-only
// ("#/$defs/...") or absolute ("<id>#/$defs/...").
func (c *Compiler) Resolve(ref string) (*jsonschema.Schema, error) {
	if c.defaultID == "" {
		return nil, ErrNoResource
	}
	base, frag, _ := strings.Cut(ref, "#")
	if base == "" {
		base = c.defaultID
	}
	root, ok := c.resources[base]
	if !ok {
		return nil, fmt.Errorf("%w: %s (unknown resource)", ErrUnresolvedRef, ref)
	}
	s, ok := root.Resolve("#" + frag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedRef, ref)
	}
	return s, nil
}

// Compile returns a Validator for the schema designated by ref.
func (c *Compiler) Compile(ref string) (*Validator, error) {
	s, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}
	n, err := c.compile(s)
	if err != nil {
		return nil, fmt.Errorf("eval: compile %s: %w", ref, err)
	}
	return &Validator{n: n}, nil
}

// CompileSchema returns a Validator for a schema that is not addressable by
// identifier, such as one held inside a keyword payload. Its $refs resolve
// against the default resource.
func (c *Compiler) CompileSchema(s *jsonschema.Schema) (*Validator, error) {
	n, err := c.compile(s)
	if err != nil {
		return nil, err
	}
	return &Validator{n: n}, nil
}

func (c *Compiler) compile(s *jsonschema.Schema) (_ *node, err error) {
	if s == nil {
		return nil, nil
	}
	if n, ok := c.nodes[s]; ok {
		return n, nil
	}
	n := &node{s: s, falseSchema: s.IsFalse()}
	c.nodes[s] = n
	defer func() {
		if err != nil {
			delete(c.nodes, s)
		}
	}()

	one := func(sub *jsonschema.Schema) *node {
		if err != nil || sub == nil {
			return nil
		}
		var out *node
		out, err = c.compile(sub)
		return out
	}
	many := func(subs []*jsonschema.Schema) []*node {
		if subs == nil {
			return nil
		}
		out := make([]*node, len(subs))
		for i, sub := range subs {
			out[i] = one(sub)
		}
		return out
	}

	if s.Ref != "" {
		target, rerr := c.Resolve(s.Ref)
		if rerr != nil {
			return nil, rerr
		}
		n.ref = one(target)
	}
	n.types = s.Types
	if s.Type != "" {
		n.types = []string{s.Type}
	}
	if s.Pattern != "" {
		if n.pattern, err = regexp.Compile(s.Pattern); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", s.Pattern, err)
		}
	}
	if s.Properties != nil {
		n.props = make(map[string]*node, len(s.Properties))
		n.propNames = slices.Sorted(maps.Keys(s.Properties))
		for _, k := range n.propNames {
			n.props[k] = one(s.Properties[k])
		}
	}
	for _, k := range slices.Sorted(maps.Keys(s.PatternProperties)) {
		re, rerr := regexp.Compile(k)
		if rerr != nil {
			return nil, fmt.Errorf("patternProperties %q: %w", k, rerr)
		}
		n.patternProps = append(n.patternProps, patternProp{re: re, n: one(s.PatternProperties[k])})
	}
	n.additional = one(s.AdditionalProperties)
	n.items = one(s.Items)
	n.prefixItems = many(s.PrefixItems)
	n.contains = one(s.Contains)
	n.allOf = many(s.AllOf)
	n.anyOf = many(s.AnyOf)
	n.oneOf = many(s.OneOf)
	n.not = one(s.Not)
	n.ifN = one(s.If)
	n.thenN = one(s.Then)
	n.elseN = one(s.Else)
	if err != nil {
		return nil, err
	}

	for _, name := range c.names {
		payload, ok := s.Extra[name]
		if !ok {
			continue
		}
		kw := c.keywords[name]
		if kw.Compile != nil {
			if payload, err = kw.Compile(c, payload); err != nil {
				return nil, fmt.Errorf("keyword %s: %w", name, err)
			}
		}
		n.keywords = append(n.keywords, boundKeyword{kw: kw, payload: payload})
	}
	return n, nil
}

// Validator is a compiled schema. It holds no per-call state and may be
// shared between goroutines.
type Validator struct {
	n *node
}

// Schema returns the schema node the Validator was compiled from.
func (v *Validator) Schema() *jsonschema.Schema { return v.n.s }

// Validate evaluates instance in collect-all mode.
func (v *Validator) Validate(instance any) Result {
	r := &run{root: instance}
	ok := v.n.validate(r, location{}, instance)
	return Result{Valid: ok, Errors: r.errs}
}
