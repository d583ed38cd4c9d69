package kplanfile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/birdayz/kplan/koperator"
)

var (
	ErrUnknownType   = errors.New("unknown operator type")
	ErrDuplicateType = errors.New("operator type already registered")
)

// Factory returns a fresh operator instance. It must return a pointer to a
// struct so that type config can be decoded into it.
type Factory func() koperator.Operator

// Registry maps the type names used in plan files to operator factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownType)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, name)
	}
	r.factories[name] = factory
	return nil
}

func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

func (r *Registry) New(name string) (koperator.Operator, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return factory(), nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
