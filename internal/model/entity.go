package model

import "strings"

// Entity types recognized by the report generator.
// Registries may contain other kinds; they are carried through untouched.
const (
	// TypeClass is a documented class.
	TypeClass = "class"

	// TypeModule is a documented module.
	TypeModule = "module"

	// TypeMethod is a documented class or instance method.
	TypeMethod = "method"

	// TypeConstant is a documented constant.
	TypeConstant = "constant"
)

// Method scopes.
const (
	// ScopeClass marks a class-level (singleton) method.
	ScopeClass = "class"

	// ScopeInstance marks an instance method.
	ScopeInstance = "instance"
)

// VersionTagName is the tag that records the release an entity first appeared in.
const VersionTagName = "version"

// Entity is a single documented object from the documentation registry.
//
// The struct mirrors the query surface of the external documentation tool:
// the report generator never parses source text itself, it only reads these
// fields.
type Entity struct {
	// Path is the unique, fully-qualified name (e.g. "Sketchup::Model#entities").
	Path string `json:"path" yaml:"path" validate:"required"`

	// Type is the entity category (class, module, method, ...).
	Type string `json:"type" yaml:"type" validate:"required"`

	// Namespace is the path of the owning class or module.
	// Empty for top-level entities.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Name is the short name. When empty it is derived from Path.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Scope is "class" or "instance" for methods, empty otherwise.
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty" validate:"omitempty,oneof=class instance"`

	// Tags maps tag names to tag text. Only "version" is interpreted.
	Tags map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Methods lists paths of additional method entities that belong to this
	// namespace, such as methods mixed in from another module.
	Methods []string `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// ShortName returns Name, or the last segment of Path when Name is empty.
// Instance separators ("#") win over class separators (".") and scope
// separators ("::").
func (e *Entity) ShortName() string {
	if e.Name != "" {
		return e.Name
	}
	if i := strings.LastIndex(e.Path, "#"); i >= 0 {
		return e.Path[i+1:]
	}
	if i := strings.LastIndex(e.Path, "."); i >= 0 {
		return e.Path[i+1:]
	}
	if i := strings.LastIndex(e.Path, "::"); i >= 0 {
		return e.Path[i+2:]
	}
	return e.Path
}

// IsNamespace reports whether the entity is a class or module.
func (e *Entity) IsNamespace() bool {
	return e.Type == TypeClass || e.Type == TypeModule
}

// VersionText returns the raw "version" tag text and whether it is present.
func (e *Entity) VersionText() (string, bool) {
	v, ok := e.Tags[VersionTagName]
	return v, ok
}

// clone returns a deep copy so a Registry never shares maps or slices with callers.
func (e Entity) clone() *Entity {
	c := e
	if e.Tags != nil {
		c.Tags = make(map[string]string, len(e.Tags))
		for k, v := range e.Tags {
			c.Tags[k] = v
		}
	}
	if e.Methods != nil {
		c.Methods = append([]string(nil), e.Methods...)
	}
	return &c
}
