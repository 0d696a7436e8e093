package model

import (
	"errors"
	"fmt"
	"sort"
)

// Registry construction errors.
var (
	// ErrDuplicatePath is returned when two entities share the same path.
	ErrDuplicatePath = errors.New("duplicate entity path")

	// ErrUnknownMethod is returned when a namespace lists a method path
	// that does not exist in the registry.
	ErrUnknownMethod = errors.New("unknown method path")

	// ErrNotAMethod is returned when a namespace lists a path that names a
	// non-method entity in its methods.
	ErrNotAMethod = errors.New("listed path is not a method")
)

// Snapshot is the serializable form of a Registry.
// It is the shape of registry dump files and of stored history records.
type Snapshot struct {
	// Name identifies the documentation build (e.g. "sketchup-api").
	Name string `json:"name" yaml:"name"`

	// Entities are all documented objects of the build.
	Entities []Entity `json:"entities" yaml:"entities"`
}

// Registry is the immutable set of documented entities for one build.
//
// Design decision: Entities are copied on construction and kept sorted by
// path, so every report iterates in the same order without re-sorting and
// no caller can mutate the registry after it is built.
type Registry struct {
	// name identifies the documentation build.
	name string

	// entities is sorted ascending by Path.
	entities []*Entity

	// byPath indexes entities by their unique path.
	byPath map[string]*Entity

	// children maps a namespace path to the method entities it owns.
	children map[string][]*Entity
}

// NewRegistry builds a Registry from the given entities.
// It fails when two entities share a path or when a namespace lists a
// method path that is not part of the registry.
func NewRegistry(name string, entities []Entity) (*Registry, error) {
	r := &Registry{
		name:     name,
		entities: make([]*Entity, 0, len(entities)),
		byPath:   make(map[string]*Entity, len(entities)),
		children: make(map[string][]*Entity),
	}

	for _, e := range entities {
		if _, ok := r.byPath[e.Path]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, e.Path)
		}
		c := e.clone()
		r.byPath[c.Path] = c
		r.entities = append(r.entities, c)
		if c.Type == TypeMethod {
			r.children[c.Namespace] = append(r.children[c.Namespace], c)
		}
	}

	for _, e := range r.entities {
		for _, p := range e.Methods {
			m, ok := r.byPath[p]
			if !ok {
				return nil, fmt.Errorf("%w: %s lists %s", ErrUnknownMethod, e.Path, p)
			}
			if m.Type != TypeMethod {
				return nil, fmt.Errorf("%w: %s lists %s %s", ErrNotAMethod, e.Path, m.Type, p)
			}
		}
	}

	sort.Slice(r.entities, func(i, j int) bool {
		return r.entities[i].Path < r.entities[j].Path
	})

	return r, nil
}

// Name returns the build name.
func (r *Registry) Name() string {
	return r.name
}

// Len returns the number of entities.
func (r *Registry) Len() int {
	return len(r.entities)
}

// Entities returns all entities in ascending path order.
// The returned entities must be treated as read-only.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// Lookup returns the entity with the given path.
func (r *Registry) Lookup(path string) (*Entity, bool) {
	e, ok := r.byPath[path]
	return e, ok
}

// Namespaces returns every class and module entity in ascending path order.
func (r *Registry) Namespaces() []*Entity {
	var out []*Entity
	for _, e := range r.entities {
		if e.IsNamespace() {
			out = append(out, e)
		}
	}
	return out
}

// OfType returns all entities of the given type in ascending path order.
func (r *Registry) OfType(typ string) []*Entity {
	var out []*Entity
	for _, e := range r.entities {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Types returns the distinct entity types in ascending order.
func (r *Registry) Types() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range r.entities {
		if !seen[e.Type] {
			seen[e.Type] = true
			out = append(out, e.Type)
		}
	}
	sort.Strings(out)
	return out
}

// MethodsOf returns the methods of a namespace: the method entities whose
// namespace is ns.Path plus the ones ns lists explicitly in Methods.
// A method reachable both ways appears once. The result is sorted by path.
func (r *Registry) MethodsOf(ns *Entity) []*Entity {
	seen := make(map[string]bool)
	var out []*Entity
	for _, m := range r.children[ns.Path] {
		seen[m.Path] = true
		out = append(out, m)
	}
	for _, p := range ns.Methods {
		if seen[p] {
			continue
		}
		if m, ok := r.byPath[p]; ok {
			seen[p] = true
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

// CheckVersionTags parses the version tag of every entity and returns the
// first *MalformedVersionTagError, in path order.
func (r *Registry) CheckVersionTags(parser *VersionParser) error {
	for _, e := range r.entities {
		if _, _, err := parser.EntityVersion(e); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the serializable form of the registry.
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Name:     r.name,
		Entities: make([]Entity, len(r.entities)),
	}
	for i, e := range r.entities {
		s.Entities[i] = *e.clone()
	}
	return s
}
