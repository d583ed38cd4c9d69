package kdag

import (
	"fmt"
	"reflect"

	"github.com/birdayz/kplan/kattr"
	"github.com/birdayz/kplan/koperator"
)

// AddOperator registers op under name and makes it a root operator.
//
// Registering the same instance under the same name again is a no-op that
// returns the existing meta. A name already used by a different instance, or
// an instance already registered under a different name, fails with
// ErrDuplicateOperatorID. Operators must be non-nil pointers.
//
// If op implements koperator.Named it is told its name.
func (d *DAG) AddOperator(name string, op koperator.Operator) (*OperatorMeta, error) {
	if err := validateID("operator", name); err != nil {
		return nil, err
	}
	if !isOperatorPointer(op) {
		return nil, fmt.Errorf("%w: %s: expected a non-nil pointer, got %T", ErrInvalidOperator, name, op)
	}

	if existing, ok := d.operators[name]; ok {
		if existing.op == op {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOperatorID, name)
	}
	if other, ok := d.byInstance[op]; ok {
		return nil, fmt.Errorf("%w: %s: instance already registered as %s", ErrDuplicateOperatorID, name, other.id)
	}

	meta := &OperatorMeta{
		dag:   d,
		id:    name,
		op:    op,
		attrs: kattr.NewMap(),
	}
	d.operators[name] = meta
	d.byInstance[op] = meta
	d.operatorOrder = append(d.operatorOrder, meta)
	d.roots = append(d.roots, meta)

	if named, ok := op.(koperator.Named); ok {
		named.SetName(name)
	}

	d.log.Debug("Operator added", "operator", name, "class", meta.ClassName())
	return meta, nil
}

// Add is the typed form of AddOperator. It returns the registered instance.
func Add[T any](d *DAG, name string, op *T) (*T, error) {
	if _, err := d.AddOperator(name, op); err != nil {
		return nil, err
	}
	return op, nil
}

// MustAdd is like Add but panics on error.
func MustAdd[T any](d *DAG, name string, op *T) *T {
	op, err := Add(d, name, op)
	if err != nil {
		panic(err)
	}
	return op
}

// AddStream creates an empty stream.
func (d *DAG) AddStream(id string) (*StreamMeta, error) {
	if err := validateID("stream", id); err != nil {
		return nil, err
	}
	if _, exists := d.streams[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateStreamID, id)
	}

	s := &StreamMeta{dag: d, id: id}
	d.streams[id] = s
	d.streamOrder = append(d.streamOrder, s)

	d.log.Debug("Stream added", "stream", id)
	return s, nil
}

// AddStreamWithPorts creates a stream, sets its source and adds the sinks in
// order. It stops at the first failure; steps already taken are kept.
func (d *DAG) AddStreamWithPorts(id string, source OutputPort, sinks ...InputPort) (*StreamMeta, error) {
	s, err := d.AddStream(id)
	if err != nil {
		return nil, err
	}
	if err := s.SetSource(source); err != nil {
		return s, err
	}
	for _, sink := range sinks {
		if err := s.AddSink(sink); err != nil {
			return s, err
		}
	}
	return s, nil
}

// MustAddStreamWithPorts is like AddStreamWithPorts but panics on error.
func (d *DAG) MustAddStreamWithPorts(id string, source OutputPort, sinks ...InputPort) *StreamMeta {
	s, err := d.AddStreamWithPorts(id, source, sinks...)
	if err != nil {
		panic(err)
	}
	return s
}

// Connect is AddStreamWithPorts for ports of one payload type, checked at
// compile time.
func Connect[T any](d *DAG, id string, source *koperator.OutputPort[T], sinks ...*koperator.InputPort[T]) (*StreamMeta, error) {
	refs := make([]InputPort, len(sinks))
	for i, sink := range sinks {
		refs[i] = sink
	}
	return d.AddStreamWithPorts(id, source, refs...)
}

// MustConnect is like Connect but panics on error.
func MustConnect[T any](d *DAG, id string, source *koperator.OutputPort[T], sinks ...*koperator.InputPort[T]) *StreamMeta {
	s, err := Connect(d, id, source, sinks...)
	if err != nil {
		panic(err)
	}
	return s
}

func isOperatorPointer(op koperator.Operator) bool {
	v := reflect.ValueOf(op)
	return v.Kind() == reflect.Pointer && !v.IsNil()
}
