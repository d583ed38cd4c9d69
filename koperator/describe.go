package koperator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrNotStructPointer  = errors.New("operator must be a non-nil struct pointer")
	ErrDuplicatePortName = errors.New("duplicate port name")
)

// InputDescriptor describes one input port of an operator.
type InputDescriptor struct {
	Name     string
	Optional bool
	Port     InputPortRef
}

// OutputDescriptor describes one output port of an operator.
type OutputDescriptor struct {
	Name     string
	Optional bool
	Port     OutputPortRef
}

// Ports is the ordered port declaration of one operator.
type Ports struct {
	Inputs  []InputDescriptor
	Outputs []OutputDescriptor
}

// Describer discovers the ports of an operator. Results must be
// deterministic for a given instance.
type Describer interface {
	Describe(op Operator) (Ports, error)
}

// DescriberFunc adapts a function to Describer.
type DescriberFunc func(op Operator) (Ports, error)

func (f DescriberFunc) Describe(op Operator) (Ports, error) { return f(op) }

// PortDescriber is implemented by operators that list their ports
// themselves.
type PortDescriber interface {
	DescribePorts() Ports
}

// DefaultDescriber uses PortDescriber when the operator implements it.
// Otherwise it walks the exported fields of the operator struct in
// declaration order, descending into embedded structs, and picks up every
// field whose address is an InputPortRef or OutputPortRef.
//
// The port name comes from the `port` struct tag and defaults to the field
// name. A tag of `port:"in,optional"` marks the port optional; ports are
// required by default. `port:"-"` skips the field.
var DefaultDescriber Describer = DescriberFunc(describe)

func describe(op Operator) (Ports, error) {
	if pd, ok := op.(PortDescriber); ok {
		ports := pd.DescribePorts()
		return ports, checkUnique(ports)
	}

	v := reflect.ValueOf(op)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return Ports{}, fmt.Errorf("%w: got %T", ErrNotStructPointer, op)
	}

	var ports Ports
	walkFields(v.Elem(), &ports)
	return ports, checkUnique(ports)
}

func walkFields(v reflect.Value, ports *Ports) {
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("port")
		if tag == "-" {
			continue
		}

		fv := v.Field(i)
		addr := fv.Addr().Interface()
		name, optional := parsePortTag(field.Name, tag)

		switch p := addr.(type) {
		case InputPortRef:
			ports.Inputs = append(ports.Inputs, InputDescriptor{Name: name, Optional: optional, Port: p})
		case OutputPortRef:
			ports.Outputs = append(ports.Outputs, OutputDescriptor{Name: name, Optional: optional, Port: p})
		default:
			if field.Anonymous && fv.Kind() == reflect.Struct {
				walkFields(fv, ports)
			}
		}
	}
}

func parsePortTag(fieldName, tag string) (string, bool) {
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = fieldName
	}
	optional := false
	for _, opt := range strings.Split(opts, ",") {
		if strings.TrimSpace(opt) == "optional" {
			optional = true
		}
	}
	return name, optional
}

func checkUnique(ports Ports) error {
	seen := make(map[string]struct{}, len(ports.Inputs)+len(ports.Outputs))
	check := func(name string) error {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePortName, name)
		}
		seen[name] = struct{}{}
		return nil
	}
	for _, in := range ports.Inputs {
		if err := check(in.Name); err != nil {
			return err
		}
	}
	for _, out := range ports.Outputs {
		if err := check(out.Name); err != nil {
			return err
		}
	}
	return nil
}
