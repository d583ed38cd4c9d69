package kattr

import (
	"fmt"
	"reflect"
	"sync"
)

// Scope names the kind of graph element a key is meant to configure.
// Maps themselves are scope-free; the scope is used to enumerate keys for
// bulk loading and documentation.
type Scope int

const (
	ScopeDAG Scope = iota
	ScopeOperator
	ScopePort
)

func (s Scope) String() string {
	switch s {
	case ScopeDAG:
		return "DAG"
	case ScopeOperator:
		return "Operator"
	case ScopePort:
		return "Port"
	default:
		return "Unknown"
	}
}

// AnyKey is the type-erased view of a Key. It is what registries, loaders and
// serializers work with.
type AnyKey interface {
	Name() string
	Scope() Scope
	Type() reflect.Type
	DefaultValue() any
}

// Key is a typed attribute key. It carries the value type and a default that
// Get returns when the key was never set on a map.
type Key[T any] struct {
	name  string
	scope Scope
	def   T
}

// NewKey creates and registers a key. Key names are global; registering the
// same name twice panics, as it is a programming error.
func NewKey[T any](scope Scope, name string, def T) *Key[T] {
	k := &Key[T]{name: name, scope: scope, def: def}
	register(k)
	return k
}

func (k *Key[T]) Name() string       { return k.name }
func (k *Key[T]) Scope() Scope       { return k.scope }
func (k *Key[T]) Default() T         { return k.def }
func (k *Key[T]) DefaultValue() any  { return k.def }
func (k *Key[T]) Type() reflect.Type { return reflect.TypeFor[T]() }

func (k *Key[T]) String() string {
	return fmt.Sprintf("%s(%s)", k.name, k.Type())
}

var registry = struct {
	sync.RWMutex
	byName map[string]AnyKey
	order  []AnyKey
}{
	byName: make(map[string]AnyKey),
}

func register(k AnyKey) {
	registry.Lock()
	defer registry.Unlock()

	if _, exists := registry.byName[k.Name()]; exists {
		panic(fmt.Sprintf("kattr: key %q registered twice", k.Name()))
	}
	registry.byName[k.Name()] = k
	registry.order = append(registry.order, k)
}

// Lookup returns the registered key with the given name.
func Lookup(name string) (AnyKey, bool) {
	registry.RLock()
	defer registry.RUnlock()

	k, ok := registry.byName[name]
	return k, ok
}

// Keys returns all registered keys of a scope in registration order.
func Keys(scope Scope) []AnyKey {
	registry.RLock()
	defer registry.RUnlock()

	keys := make([]AnyKey, 0, len(registry.order))
	for _, k := range registry.order {
		if k.Scope() == scope {
			keys = append(keys, k)
		}
	}
	return keys
}
