package kdag

import (
	"github.com/birdayz/kplan/kattr"
	"github.com/birdayz/kplan/koperator"
)

// InputPort and OutputPort are the untyped port handles accepted by the
// builder. Any *koperator.InputPort[T] / *koperator.OutputPort[T] field of a
// registered operator qualifies.
type (
	InputPort  = koperator.InputPortRef
	OutputPort = koperator.OutputPortRef
)

// InputPortMeta is one named input port of one operator.
type InputPortMeta struct {
	operator *OperatorMeta
	name     string
	optional bool
	port     InputPort
	stream   *StreamMeta
	attrs    *kattr.Map
}

func (p *InputPortMeta) Operator() *OperatorMeta { return p.operator }
func (p *InputPortMeta) Name() string            { return p.name }
func (p *InputPortMeta) Optional() bool          { return p.optional }
func (p *InputPortMeta) Port() InputPort         { return p.port }

// Stream returns the stream this port is a sink of, or nil.
func (p *InputPortMeta) Stream() *StreamMeta { return p.stream }

func (p *InputPortMeta) Attributes() *kattr.Map { return p.attrs }

func (p *InputPortMeta) String() string { return p.operator.id + "." + p.name }

// OutputPortMeta is one named output port of one operator.
type OutputPortMeta struct {
	operator *OperatorMeta
	name     string
	optional bool
	port     OutputPort
	stream   *StreamMeta
	attrs    *kattr.Map
}

func (p *OutputPortMeta) Operator() *OperatorMeta { return p.operator }
func (p *OutputPortMeta) Name() string            { return p.name }
func (p *OutputPortMeta) Optional() bool          { return p.optional }
func (p *OutputPortMeta) Port() OutputPort        { return p.port }

// Stream returns the stream this port is the source of, or nil.
func (p *OutputPortMeta) Stream() *StreamMeta { return p.stream }

func (p *OutputPortMeta) Attributes() *kattr.Map { return p.attrs }

func (p *OutputPortMeta) String() string { return p.operator.id + "." + p.name }
