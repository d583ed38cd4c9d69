package koperator

import (
	"reflect"

	"github.com/birdayz/kplan/kserde"
)

// InputPortRef is the untyped view of an InputPort.
type InputPortRef interface {
	PayloadType() reflect.Type
	StreamCodec() kserde.StreamCodec
	inputPort()
}

// OutputPortRef is the untyped view of an OutputPort.
type OutputPortRef interface {
	PayloadType() reflect.Type
	outputPort()
}

// InputPort receives tuples of type T. A port may declare the codec its
// stream should use; ports without one accept the stream default.
type InputPort[T any] struct {
	codec kserde.StreamCodec
}

// WithStreamCodec returns an input port that requests codec for its stream.
func WithStreamCodec[T any](codec kserde.StreamCodec) InputPort[T] {
	return InputPort[T]{codec: codec}
}

func (p *InputPort[T]) SetStreamCodec(codec kserde.StreamCodec) { p.codec = codec }
func (p *InputPort[T]) StreamCodec() kserde.StreamCodec         { return p.codec }
func (p *InputPort[T]) PayloadType() reflect.Type               { return reflect.TypeFor[T]() }
func (p *InputPort[T]) inputPort()                              {}

// OutputPort emits tuples of type T.
type OutputPort[T any] struct {
	// keeps ports addressable as distinct pointers
	_ byte
}

func (p *OutputPort[T]) PayloadType() reflect.Type { return reflect.TypeFor[T]() }
func (p *OutputPort[T]) outputPort()               {}
