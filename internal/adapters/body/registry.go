// Package body resolves the task bodies named in the configuration.
package body

import (
	"maps"
	"slices"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/zerr"
)

// Builder creates a body for task from its configured arguments.
type Builder func(task domain.Task, args map[string]any) (ports.TaskBody, error)

// Registry implements ports.BodyFactory over a table of builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates a registry holding the built-in bodies.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.Register(KindIdentity, newIdentity)
	r.Register(KindCopy, newCopy)
	r.Register(KindToggle, newToggle)
	r.Register(KindCounter, newCounter)
	r.Register(KindCommand, newCommand)
	return r
}

// Register adds or replaces the builder for kind.
func (r *Registry) Register(kind string, b Builder) {
	r.builders[kind] = b
}

// Kinds returns the registered body kinds, sorted.
func (r *Registry) Kinds() []string {
	return slices.Sorted(maps.Keys(r.builders))
}

// Body implements ports.BodyFactory. Tasks without a body kind get the identity body.
func (r *Registry) Body(task domain.Task) (ports.TaskBody, error) {
	kind := task.Body.Kind
	if kind == "" {
		kind = KindIdentity
	}

	build, ok := r.builders[kind]
	if !ok {
		return nil, zerr.With(domain.ErrBodyNotFound, "kind", kind)
	}
	body, err := build(task, task.Body.Args)
	if err != nil {
		return nil, zerr.With(err, "kind", kind)
	}
	return body, nil
}
