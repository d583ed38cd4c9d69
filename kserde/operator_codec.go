package kserde

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// OperatorCodec persists operator instances inside a serialized plan. The
// bytes it produces are opaque to the plan format.
type OperatorCodec interface {
	Name() string
	Encode(op any) ([]byte, error)
	Decode(data []byte) (any, error)
}

type jsonEnvelope struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state"`
}

// JSONCodec stores an operator as {"type": ..., "state": ...} where state is
// the JSON encoding of the instance. Decoding requires the type to be known to
// the registry.
type JSONCodec struct {
	types *Registry
}

func NewJSONCodec(types *Registry) *JSONCodec {
	return &JSONCodec{types: types}
}

func (c *JSONCodec) Name() string { return "json" }

func (c *JSONCodec) Encode(op any) ([]byte, error) {
	state, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", TypeName(op), err)
	}
	return json.Marshal(jsonEnvelope{Type: TypeName(op), State: state})
}

func (c *JSONCodec) Decode(data []byte) (any, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode operator envelope: %w", err)
	}
	op, err := c.types.New(env.Type)
	if err != nil {
		return nil, err
	}
	if len(env.State) > 0 {
		if err := json.Unmarshal(env.State, op); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
	}
	return op, nil
}

type msgpackEnvelope struct {
	Type  string             `msgpack:"type"`
	State msgpack.RawMessage `msgpack:"state"`
}

// MsgpackCodec is the msgpack counterpart of JSONCodec. Fields are matched by
// their msgpack tag or field name.
type MsgpackCodec struct {
	types *Registry
}

func NewMsgpackCodec(types *Registry) *MsgpackCodec {
	return &MsgpackCodec{types: types}
}

func (c *MsgpackCodec) Name() string { return "msgpack" }

func (c *MsgpackCodec) Encode(op any) ([]byte, error) {
	state, err := msgpack.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", TypeName(op), err)
	}
	return msgpack.Marshal(msgpackEnvelope{Type: TypeName(op), State: state})
}

func (c *MsgpackCodec) Decode(data []byte) (any, error) {
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode operator envelope: %w", err)
	}
	op, err := c.types.New(env.Type)
	if err != nil {
		return nil, err
	}
	if len(env.State) > 0 {
		if err := msgpack.Unmarshal(env.State, op); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
	}
	return op, nil
}

// NewOperatorCodec returns the codec with the given name ("json" or
// "msgpack").
func NewOperatorCodec(name string, types *Registry) (OperatorCodec, error) {
	switch name {
	case "json":
		return NewJSONCodec(types), nil
	case "msgpack":
		return NewMsgpackCodec(types), nil
	default:
		return nil, fmt.Errorf("%w: operator codec %q", ErrUnknownType, name)
	}
}
