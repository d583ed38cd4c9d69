package kattr

import (
	"fmt"
	"reflect"
	"strings"
)

// Map stores attribute values by key identity. The zero value is not usable;
// create maps with NewMap. A nil *Map behaves like an empty map for reads.
type Map struct {
	values map[AnyKey]any
	order  []AnyKey
}

func NewMap() *Map {
	return &Map{values: make(map[AnyKey]any)}
}

// Get returns the value set for k, or the key's default.
func Get[T any](m *Map, k *Key[T]) T {
	if m != nil {
		if v, ok := m.values[k]; ok {
			return v.(T)
		}
	}
	return k.def
}

// Set stores v for k. Later calls overwrite earlier ones.
func Set[T any](m *Map, k *Key[T], v T) {
	m.put(k, v)
}

// Resolve returns the value of k from the first map that has it set,
// falling back to the key default. Pass maps most specific first.
func Resolve[T any](k *Key[T], maps ...*Map) T {
	for _, m := range maps {
		if m == nil {
			continue
		}
		if v, ok := m.values[k]; ok {
			return v.(T)
		}
	}
	return k.def
}

// SetValue is the untyped form of Set. It fails with ErrTypeMismatch when v is
// not assignable to the key's declared type.
func (m *Map) SetValue(k AnyKey, v any) error {
	want := k.Type()
	if v == nil {
		switch want.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			m.put(k, reflect.Zero(want).Interface())
			return nil
		}
		return fmt.Errorf("%w: %s expects %s, got nil", ErrTypeMismatch, k.Name(), want)
	}
	if got := reflect.TypeOf(v); !got.AssignableTo(want) {
		return fmt.Errorf("%w: %s expects %s, got %s", ErrTypeMismatch, k.Name(), want, got)
	}
	m.put(k, v)
	return nil
}

func (m *Map) put(k AnyKey, v any) {
	if _, exists := m.values[k]; !exists {
		m.order = append(m.order, k)
	}
	m.values[k] = v
}

// Value returns the value explicitly set for k.
func (m *Map) Value(k AnyKey) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[k]
	return v, ok
}

// ValueOrDefault returns the value set for k or its default.
func (m *Map) ValueOrDefault(k AnyKey) any {
	if v, ok := m.Value(k); ok {
		return v
	}
	return k.DefaultValue()
}

func (m *Map) IsSet(k AnyKey) bool {
	_, ok := m.Value(k)
	return ok
}

// Keys returns the keys that have a value, in the order they were first set.
func (m *Map) Keys() []AnyKey {
	if m == nil {
		return nil
	}
	keys := make([]AnyKey, len(m.order))
	copy(keys, m.order)
	return keys
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}

func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", k.Name(), m.values[k])
	}
	sb.WriteByte('}')
	return sb.String()
}
