package kserde

import (
	"fmt"
	"reflect"
	"slices"
)

// TypeName returns the fully qualified name of v's type with any pointer
// indirection removed, e.g. "github.com/birdayz/kplan/operators.Console[string]".
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// Registry maps type names to factories so that operator codecs can create a
// fresh instance before decoding state into it. Factories must return a
// pointer.
type Registry struct {
	factories map[string]func() any
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() any)}
}

// Register adds a factory under the type name of the value it produces.
func (r *Registry) Register(factory func() any) (string, error) {
	name := TypeName(factory())
	if _, exists := r.factories[name]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateType, name)
	}
	r.factories[name] = factory
	return name, nil
}

// RegisterType registers new(T) as the factory for T.
func RegisterType[T any](r *Registry) (string, error) {
	return r.Register(func() any { return new(T) })
}

// New returns a fresh instance of the named type.
func (r *Registry) New(name string) (any, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return factory(), nil
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
