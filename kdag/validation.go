package kdag

import (
	"fmt"
)

// Validate checks that the DAG is a well-formed logical plan.
//
// Operators are checked one at a time in registration order, and the first
// failing operator ends validation:
//
//  1. the operator's own constraints (ConstraintViolationError)
//  2. every required input port is connected (ErrMissingRequiredInputPort)
//  3. every required output port is connected
//     (ErrMissingRequiredOutputPort), and an operator with a required output
//     port has at least one connected output (ErrNoConnectedOutput)
//
// Then the whole graph is searched for cycles; all of them are reported
// together in a CycleError. Finally every stream needs a source or a sink
// (ErrDanglingStream).
//
// Ports of all operators are discovered before the per-operator pass, so
// repeated calls only read the DAG.
func (d *DAG) Validate() error {
	d.discoverAll()

	for _, o := range d.operatorOrder {
		if err := d.validateOperator(o); err != nil {
			d.log.Debug("Validation failed", "operator", o.id, "error", err)
			return err
		}
	}

	if cycles := findCycles(d.adjacency()); len(cycles) > 0 {
		d.log.Debug("Cycles detected", "cycles", cycles)
		return &CycleError{Cycles: cycles}
	}

	for _, s := range d.streamOrder {
		if s.source == nil && len(s.sinks) == 0 {
			return fmt.Errorf("%w: %s", ErrDanglingStream, s.id)
		}
	}

	d.log.Debug("DAG validated", "operators", len(d.operatorOrder), "streams", len(d.streamOrder))
	return nil
}

// MustValidate is like Validate but panics on error.
func (d *DAG) MustValidate() {
	if err := d.Validate(); err != nil {
		panic(err)
	}
}

func (d *DAG) validateOperator(o *OperatorMeta) error {
	if d.constraints != nil {
		if err := d.constraints.Check(o.op); err != nil {
			return &ConstraintViolationError{Operator: o.id, Err: err}
		}
	}

	if err := o.discover(); err != nil {
		return err
	}

	for _, in := range o.inputs {
		if !in.optional && in.stream == nil {
			return fmt.Errorf("%w: %s", ErrMissingRequiredInputPort, in)
		}
	}

	requiresOutput := false
	for _, out := range o.outputs {
		if out.optional {
			continue
		}
		requiresOutput = true
		if out.stream == nil {
			return fmt.Errorf("%w: %s", ErrMissingRequiredOutputPort, out)
		}
	}
	if requiresOutput && len(o.outputStreams) == 0 {
		return fmt.Errorf("%w: %s", ErrNoConnectedOutput, o.id)
	}
	return nil
}

// adjacency returns operator ids in registration order and, per operator, the
// ids of the operators its output streams feed.
func (d *DAG) adjacency() ([]string, map[string][]string) {
	nodes := make([]string, 0, len(d.operatorOrder))
	edges := make(map[string][]string, len(d.operatorOrder))
	for _, o := range d.operatorOrder {
		nodes = append(nodes, o.id)
		for _, s := range o.outputStreams {
			for _, sink := range s.sinks {
				edges[o.id] = append(edges[o.id], sink.operator.id)
			}
		}
	}
	return nodes, edges
}
