package kdag

import (
	"fmt"

	"github.com/birdayz/kplan/kattr"
	"github.com/birdayz/kplan/koperator"
)

// OperatorMeta wraps one operator instance placed in the DAG.
type OperatorMeta struct {
	dag   *DAG
	id    string
	op    koperator.Operator
	attrs *kattr.Map

	// Ports are discovered on first use and cached for the lifetime of the
	// operator.
	discovered  bool
	discoverErr error
	inputs      []*InputPortMeta
	outputs     []*OutputPortMeta

	// Connected streams in connection order.
	inputStreams  []*StreamMeta
	outputStreams []*StreamMeta
}

func (o *OperatorMeta) ID() string                   { return o.id }
func (o *OperatorMeta) Operator() koperator.Operator { return o.op }
func (o *OperatorMeta) Attributes() *kattr.Map       { return o.attrs }

// ClassName is the implementation type name of the wrapped operator.
func (o *OperatorMeta) ClassName() string { return koperator.ClassName(o.op) }

// InputPorts returns the declared input ports in declaration order.
func (o *OperatorMeta) InputPorts() ([]*InputPortMeta, error) {
	if err := o.discover(); err != nil {
		return nil, err
	}
	return o.inputs, nil
}

// OutputPorts returns the declared output ports in declaration order.
func (o *OperatorMeta) OutputPorts() ([]*OutputPortMeta, error) {
	if err := o.discover(); err != nil {
		return nil, err
	}
	return o.outputs, nil
}

// InputPort looks up an input port by name.
func (o *OperatorMeta) InputPort(name string) (*InputPortMeta, error) {
	inputs, err := o.InputPorts()
	if err != nil {
		return nil, err
	}
	for _, p := range inputs {
		if p.name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no input port %s.%s", ErrInvalidPortReference, o.id, name)
}

// OutputPort looks up an output port by name.
func (o *OperatorMeta) OutputPort(name string) (*OutputPortMeta, error) {
	outputs, err := o.OutputPorts()
	if err != nil {
		return nil, err
	}
	for _, p := range outputs {
		if p.name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no output port %s.%s", ErrInvalidPortReference, o.id, name)
}

// InputStreams returns the streams feeding this operator.
func (o *OperatorMeta) InputStreams() []*StreamMeta {
	return append([]*StreamMeta(nil), o.inputStreams...)
}

// OutputStreams returns the streams sourced by this operator.
func (o *OperatorMeta) OutputStreams() []*StreamMeta {
	return append([]*StreamMeta(nil), o.outputStreams...)
}

func (o *OperatorMeta) String() string { return o.id }

func (o *OperatorMeta) discover() error {
	if o.discovered {
		return o.discoverErr
	}
	o.discovered = true

	ports, err := o.dag.describer.Describe(o.op)
	if err != nil {
		o.discoverErr = fmt.Errorf("%w: %s: %w", ErrInvalidOperator, o.id, err)
		return o.discoverErr
	}

	for _, in := range ports.Inputs {
		if other, claimed := o.dag.inputIndex[in.Port]; claimed || in.Port == nil {
			o.discoverErr = fmt.Errorf("%w: %s: input port %q is not owned by this operator (%v)", ErrInvalidOperator, o.id, in.Name, other)
			return o.discoverErr
		}
	}
	for _, out := range ports.Outputs {
		if other, claimed := o.dag.outputIndex[out.Port]; claimed || out.Port == nil {
			o.discoverErr = fmt.Errorf("%w: %s: output port %q is not owned by this operator (%v)", ErrInvalidOperator, o.id, out.Name, other)
			return o.discoverErr
		}
	}

	for _, in := range ports.Inputs {
		pm := &InputPortMeta{operator: o, name: in.Name, optional: in.Optional, port: in.Port, attrs: kattr.NewMap()}
		o.inputs = append(o.inputs, pm)
		o.dag.inputIndex[in.Port] = pm
	}
	for _, out := range ports.Outputs {
		pm := &OutputPortMeta{operator: o, name: out.Name, optional: out.Optional, port: out.Port, attrs: kattr.NewMap()}
		o.outputs = append(o.outputs, pm)
		o.dag.outputIndex[out.Port] = pm
	}

	o.dag.log.Debug("Ports discovered", "operator", o.id, "inputs", len(o.inputs), "outputs", len(o.outputs))
	return nil
}
