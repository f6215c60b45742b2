package augment

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/reoring/lottieschema/jsonschema"
)

// PropertySet is an immutable, sorted set of property names.
type PropertySet struct {
	names []string
	index map[string]struct{}
}

// NewPropertySet builds a set from names; duplicates collapse.
func NewPropertySet(names ...string) *PropertySet {
	ps := &PropertySet{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		ps.index[n] = struct{}{}
	}
	ps.names = slices.Sorted(maps.Keys(ps.index))
	return ps
}

// Has reports membership.
func (ps *PropertySet) Has(name string) bool {
	_, ok := ps.index[name]
	return ok
}

// Names returns the members in sorted order.
func (ps *PropertySet) Names() []string { return slices.Clone(ps.names) }

// Len returns the number of members.
func (ps *PropertySet) Len() int { return len(ps.names) }

// Closure is the property record of one schema node, addressed by its
// JSON Pointer id ("#/$defs/layers/shape-layer/properties/ks").
type Closure struct {
	ID     string
	Schema *jsonschema.Schema
	// Properties holds the directly declared names.
	Properties map[string]struct{}
	References map[string]struct{}
	Resolved   bool
	// Skip is set when the node allows additional properties.
	Skip bool

	all map[string]struct{}
}

// Valid reports whether the closure can drive the unknown property warning:
// it must not be skipped and must either declare properties or merge more
// than one reference.
func (c *Closure) Valid() bool {
	return !c.Skip && (len(c.Properties) > 0 || len(c.References) > 1)
}

// ClosureMap is the arena of closures built over a schema.
type ClosureMap struct {
	rootID string
	suffix string
	byID   map[string]*Closure
	// bases records $ref targets reached through allOf; those definitions
	// are mixins and never warn on their own.
	bases map[string]struct{}
	diag  *simpleDiag
}

// NewClosureMap returns an empty arena. Identifiers ending in unionSuffix
// denote property unions whose oneOf alternatives share one closure.
func NewClosureMap(rootID, unionSuffix string) *ClosureMap {
	return &ClosureMap{
		rootID: rootID,
		suffix: unionSuffix,
		byID:   make(map[string]*Closure),
		bases:  make(map[string]struct{}),
		diag:   &simpleDiag{},
	}
}

// Create registers an empty closure for id and returns it.
func (m *ClosureMap) Create(id string, s *jsonschema.Schema) *Closure {
	c := &Closure{
		ID:         id,
		Schema:     s,
		Properties: make(map[string]struct{}),
		References: make(map[string]struct{}),
	}
	m.byID[id] = c
	return c
}

// Get returns the closure registered for id.
func (m *ClosureMap) Get(id string) (*Closure, bool) {
	c, ok := m.byID[id]
	return c, ok
}

// Len returns the number of closures.
func (m *ClosureMap) Len() int { return len(m.byID) }

// IsBase reports whether id was referenced from an allOf branch.
func (m *ClosureMap) IsBase(id string) bool {
	_, ok := m.bases[id]
	return ok
}

// Extract records the properties and references of s into c, creating child
// closures for property schemas and for non-union oneOf alternatives.
func (m *ClosureMap) Extract(s *jsonschema.Schema, id string, c *Closure) {
	m.extract(s, id, c, false)
}

func (m *ClosureMap) extract(s *jsonschema.Schema, id string, c *Closure, viaAllOf bool) {
	if s == nil {
		return
	}
	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		c.Properties[name] = struct{}{}
		pid := id + "/properties/" + jsonschema.EscapeToken(name)
		prop := s.Properties[name]
		m.extract(prop, pid, m.Create(pid, prop), false)
	}
	for i, alt := range s.OneOf {
		oid := id + "/oneOf/" + strconv.Itoa(i)
		target := c
		if m.suffix == "" || !strings.HasSuffix(id, m.suffix) {
			target = m.Create(oid, alt)
		}
		m.extract(alt, oid, target, false)
	}
	for i, alt := range s.AllOf {
		m.extract(alt, id+"/allOf/"+strconv.Itoa(i), c, true)
	}
	if s.AdditionalProperties != nil {
		c.Skip = true
	}
	if s.Ref != "" {
		ref := jsonschema.LocalRef(m.rootID, s.Ref)
		c.References[ref] = struct{}{}
		if viaAllOf {
			m.bases[ref] = struct{}{}
		}
	}
	s.EachChild(func(key string, child *jsonschema.Schema) bool {
		switch {
		case strings.HasPrefix(key, "properties/"),
			strings.HasPrefix(key, "oneOf/"),
			strings.HasPrefix(key, "allOf/"),
			key == "additionalProperties",
			key == "not":
			return true
		}
		m.extract(child, id+"/"+key, c, false)
		return true
	})
}

// Resolve returns the full property set of id, inlining referenced closures.
// Resolution is memoized and terminates on reference cycles: a closure is
// marked resolved before its references are visited.
func (m *ClosureMap) Resolve(id string) (*PropertySet, bool) {
	c, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return NewPropertySet(slices.Collect(maps.Keys(m.resolve(c)))...), true
}

func (m *ClosureMap) resolve(c *Closure) map[string]struct{} {
	if c.Resolved {
		return c.all
	}
	c.Resolved = true
	c.all = maps.Clone(c.Properties)
	for _, ref := range slices.Sorted(maps.Keys(c.References)) {
		target, ok := m.byID[ref]
		if !ok {
			m.diag.warnf("closure %s: reference %s names no definition", c.ID, ref)
			continue
		}
		for name := range m.resolve(target) {
			c.all[name] = struct{}{}
		}
	}
	return c.all
}

// Finalize attaches the unknown property keyword to every valid closure that
// is not a mixin base, and returns how many were attached.
//
// A union over several references gets its own keyword, so an unknown
// property is reported twice: once by the union and once by the
// alternative it dispatches to (splittable-position-property and
// split-position both warn at the same path).
func (m *ClosureMap) Finalize(keyword string) int {
	n := 0
	for _, id := range slices.Sorted(maps.Keys(m.byID)) {
		c := m.byID[id]
		if !c.Valid() || m.IsBase(id) {
			continue
		}
		set, _ := m.Resolve(id)
		c.Schema.SetExtra(keyword, set)
		n++
	}
	return n
}
