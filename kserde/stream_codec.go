package kserde

import "fmt"

// StreamCodec encodes the tuples that travel on a stream. Name identifies the
// codec class; a plan records it per stream so that the runtime can pick the
// same codec on both ends.
type StreamCodec interface {
	Name() string
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// NewStreamCodec adapts a typed Serde to a StreamCodec.
func NewStreamCodec[T any](name string, serde Serde[T]) StreamCodec {
	return &typedStreamCodec[T]{name: name, serde: serde}
}

type typedStreamCodec[T any] struct {
	name  string
	serde Serde[T]
}

func (c *typedStreamCodec[T]) Name() string { return c.name }

func (c *typedStreamCodec[T]) Encode(v any) ([]byte, error) {
	t, ok := v.(T)
	if !ok {
		return nil, fmt.Errorf("%w: codec %s cannot encode %T", ErrUnexpectedType, c.name, v)
	}
	return c.serde.Serializer(t)
}

func (c *typedStreamCodec[T]) Decode(data []byte) (any, error) {
	return c.serde.Deserializer(data)
}

// Codec class names of the built-in stream codecs.
const (
	CodecJSON    = "kserde.json"
	CodecMsgpack = "kserde.msgpack"
	CodecString  = "kserde.string"
	CodecInt64   = "kserde.int64"
	CodecFloat64 = "kserde.float64"
)

func JSONStreamCodec[T any]() StreamCodec {
	return NewStreamCodec(CodecJSON, JSON[T]())
}

func MsgpackStreamCodec[T any]() StreamCodec {
	return NewStreamCodec(CodecMsgpack, Msgpack[T]())
}

var (
	StringStreamCodec  = NewStreamCodec(CodecString, String)
	Int64StreamCodec   = NewStreamCodec(CodecInt64, Int64)
	Float64StreamCodec = NewStreamCodec(CodecFloat64, Float64)
)
