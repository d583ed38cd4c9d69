package kdag

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/birdayz/kplan/kattr"
	"github.com/birdayz/kplan/koperator"
)

// DAG is a logical plan: operators joined by streams, plus attributes at
// DAG, operator and port scope.
//
// IMPORTANT: DAG is NOT safe for concurrent mutation. It is built by a single
// owner. The first Validate call discovers the ports of every operator, which
// mutates the DAG; after the owner has called Validate once, a DAG that is no
// longer being mutated may be validated from several goroutines.
type DAG struct {
	log         *slog.Logger
	describer   koperator.Describer
	constraints koperator.ConstraintChecker

	operators     map[string]*OperatorMeta
	byInstance    map[koperator.Operator]*OperatorMeta
	operatorOrder []*OperatorMeta
	roots         []*OperatorMeta

	streams     map[string]*StreamMeta
	streamOrder []*StreamMeta

	inputIndex  map[InputPort]*InputPortMeta
	outputIndex map[OutputPort]*OutputPortMeta

	attrs *kattr.Map
}

// New creates an empty DAG.
func New(opts ...Option) *DAG {
	d := &DAG{
		log:         NullLogger(),
		describer:   koperator.DefaultDescriber,
		constraints: koperator.NewStructConstraints(),
		operators:   make(map[string]*OperatorMeta),
		byInstance:  make(map[koperator.Operator]*OperatorMeta),
		streams:     make(map[string]*StreamMeta),
		inputIndex:  make(map[InputPort]*InputPortMeta),
		outputIndex: make(map[OutputPort]*OutputPortMeta),
		attrs:       kattr.NewMap(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromConfig creates an empty DAG and initializes its DAG-scope attributes
// from src. Values that cannot be parsed, or keys of a type that cannot be
// loaded from strings, abort construction.
func NewFromConfig(src kattr.Source, opts ...Option) (*DAG, error) {
	d := New(opts...)
	if err := kattr.Load(d.attrs, src, kattr.Keys(kattr.ScopeDAG)...); err != nil {
		return nil, fmt.Errorf("failed to load DAG attributes: %w", err)
	}
	return d, nil
}

// Attributes returns the DAG-scope attribute map.
func (d *DAG) Attributes() *kattr.Map { return d.attrs }

// Operators returns all operators in registration order.
func (d *DAG) Operators() []*OperatorMeta {
	return slices.Clone(d.operatorOrder)
}

// RootOperators returns the operators without a connected input stream, in
// registration order.
func (d *DAG) RootOperators() []*OperatorMeta {
	return slices.Clone(d.roots)
}

// Streams returns all streams in registration order.
func (d *DAG) Streams() []*StreamMeta {
	return slices.Clone(d.streamOrder)
}

// Operator looks up an operator by id.
func (d *DAG) Operator(id string) (*OperatorMeta, bool) {
	o, ok := d.operators[id]
	return o, ok
}

// OperatorFor looks up the operator wrapping the given instance.
func (d *DAG) OperatorFor(op koperator.Operator) (*OperatorMeta, bool) {
	if !isOperatorPointer(op) {
		return nil, false
	}
	o, ok := d.byInstance[op]
	return o, ok
}

// Stream looks up a stream by id.
func (d *DAG) Stream(id string) (*StreamMeta, bool) {
	s, ok := d.streams[id]
	return s, ok
}

// ClassNames returns the sorted, distinct implementation class names of all
// operators and stream codecs.
func (d *DAG) ClassNames() []string {
	names := make([]string, 0, len(d.operatorOrder)+len(d.streamOrder))
	for _, o := range d.operatorOrder {
		names = append(names, o.ClassName())
	}
	for _, s := range d.streamOrder {
		if s.codec != "" {
			names = append(names, s.codec)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func (d *DAG) removeRoot(o *OperatorMeta) {
	d.roots = slices.DeleteFunc(d.roots, func(r *OperatorMeta) bool { return r == o })
}

// discoverAll runs port discovery for every operator not yet discovered, in
// registration order. Operators whose discovery fails keep the error cached
// and are skipped, so one broken operator does not hide the ports of the
// others; Validate reports it.
func (d *DAG) discoverAll() {
	for _, o := range d.operatorOrder {
		if err := o.discover(); err != nil {
			d.log.Debug("Port discovery failed", "operator", o.id, "error", err)
		}
	}
}

func (d *DAG) resolveInput(port InputPort) (*InputPortMeta, error) {
	if port == nil {
		return nil, fmt.Errorf("%w: nil input port", ErrInvalidPortReference)
	}
	if pm, ok := d.inputIndex[port]; ok {
		return pm, nil
	}
	d.discoverAll()
	if pm, ok := d.inputIndex[port]; ok {
		return pm, nil
	}
	return nil, fmt.Errorf("%w: input port %v", ErrInvalidPortReference, port.PayloadType())
}

func (d *DAG) resolveOutput(port OutputPort) (*OutputPortMeta, error) {
	if port == nil {
		return nil, fmt.Errorf("%w: nil output port", ErrInvalidPortReference)
	}
	if pm, ok := d.outputIndex[port]; ok {
		return pm, nil
	}
	d.discoverAll()
	if pm, ok := d.outputIndex[port]; ok {
		return pm, nil
	}
	return nil, fmt.Errorf("%w: output port %v", ErrInvalidPortReference, port.PayloadType())
}
