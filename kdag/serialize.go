package kdag

import (
	"fmt"
	"io"
	"reflect"

	"github.com/birdayz/kplan/kattr"
	"github.com/birdayz/kplan/kserde"
	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is the version of the serialized DAG container.
const FormatVersion = 1

type wireDAG struct {
	Version    int            `msgpack:"version"`
	Attributes []wireAttr     `msgpack:"attributes"`
	Operators  []wireOperator `msgpack:"operators"`
	Streams    []wireStream   `msgpack:"streams"`
	Roots      []string       `msgpack:"roots"`
}

type wireAttr struct {
	Key   string             `msgpack:"key"`
	Value msgpack.RawMessage `msgpack:"value"`
}

type wireOperator struct {
	ID         string     `msgpack:"id"`
	Class      string     `msgpack:"class"`
	State      []byte     `msgpack:"state"`
	Attributes []wireAttr `msgpack:"attributes"`
	Inputs     []wirePort `msgpack:"inputs,omitempty"`
	Outputs    []wirePort `msgpack:"outputs,omitempty"`
}

type wirePort struct {
	Name       string     `msgpack:"name"`
	Attributes []wireAttr `msgpack:"attributes"`
}

type wirePortRef struct {
	Operator string `msgpack:"operator"`
	Port     string `msgpack:"port"`
}

type wireStream struct {
	ID     string        `msgpack:"id"`
	Source *wirePortRef  `msgpack:"source"`
	Sinks  []wirePortRef `msgpack:"sinks"`
	Inline bool          `msgpack:"inline"`
	Codec  string        `msgpack:"codec"`
}

// Write serializes d to w. Operator instances are encoded with codec and
// stored as opaque length-prefixed blocks.
func Write(w io.Writer, d *DAG, codec kserde.OperatorCodec) error {
	attrs, err := encodeAttrs(d.attrs)
	if err != nil {
		return err
	}
	wire := wireDAG{Version: FormatVersion, Attributes: attrs}

	for _, o := range d.operatorOrder {
		wo, err := encodeOperator(o, codec)
		if err != nil {
			return err
		}
		wire.Operators = append(wire.Operators, wo)
	}

	for _, s := range d.streamOrder {
		ws := wireStream{ID: s.id, Inline: s.inline, Codec: s.codec}
		if s.source != nil {
			ws.Source = &wirePortRef{Operator: s.source.operator.id, Port: s.source.name}
		}
		for _, sink := range s.sinks {
			ws.Sinks = append(ws.Sinks, wirePortRef{Operator: sink.operator.id, Port: sink.name})
		}
		wire.Streams = append(wire.Streams, ws)
	}

	for _, r := range d.roots {
		wire.Roots = append(wire.Roots, r.id)
	}

	if err := msgpack.NewEncoder(w).Encode(&wire); err != nil {
		return fmt.Errorf("failed to write DAG: %w", err)
	}
	return nil
}

func encodeOperator(o *OperatorMeta, codec kserde.OperatorCodec) (wireOperator, error) {
	state, err := codec.Encode(o.op)
	if err != nil {
		return wireOperator{}, fmt.Errorf("failed to encode operator %s: %w", o.id, err)
	}
	attrs, err := encodeAttrs(o.attrs)
	if err != nil {
		return wireOperator{}, err
	}
	wo := wireOperator{ID: o.id, Class: o.ClassName(), State: state, Attributes: attrs}

	// Undiscovered operators have no port attributes to write.
	for _, in := range o.inputs {
		if in.attrs.Len() == 0 {
			continue
		}
		pa, err := encodeAttrs(in.attrs)
		if err != nil {
			return wireOperator{}, err
		}
		wo.Inputs = append(wo.Inputs, wirePort{Name: in.name, Attributes: pa})
	}
	for _, out := range o.outputs {
		if out.attrs.Len() == 0 {
			continue
		}
		pa, err := encodeAttrs(out.attrs)
		if err != nil {
			return wireOperator{}, err
		}
		wo.Outputs = append(wo.Outputs, wirePort{Name: out.name, Attributes: pa})
	}
	return wo, nil
}

func encodeAttrs(m *kattr.Map) ([]wireAttr, error) {
	attrs := make([]wireAttr, 0, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Value(k)
		raw, err := msgpack.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode attribute %s: %w", k.Name(), err)
		}
		attrs = append(attrs, wireAttr{Key: k.Name(), Value: raw})
	}
	return attrs, nil
}

// Read restores a DAG written by Write. Operator instances are decoded with
// codec; opts configure the restored DAG like New.
func Read(r io.Reader, codec kserde.OperatorCodec, opts ...Option) (*DAG, error) {
	var wire wireDAG
	if err := msgpack.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if wire.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, wire.Version)
	}

	d := New(opts...)
	if err := decodeAttrs(d.attrs, wire.Attributes); err != nil {
		return nil, err
	}

	for _, wo := range wire.Operators {
		if err := d.restoreOperator(wo, codec); err != nil {
			return nil, err
		}
	}

	for _, ws := range wire.Streams {
		if err := d.restoreStream(ws); err != nil {
			return nil, err
		}
	}

	roots := make([]*OperatorMeta, 0, len(wire.Roots))
	for _, id := range wire.Roots {
		o, ok := d.operators[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown root operator %s", ErrInvalidFormat, id)
		}
		roots = append(roots, o)
	}
	d.roots = roots

	return d, nil
}

func (d *DAG) restoreOperator(wo wireOperator, codec kserde.OperatorCodec) error {
	op, err := codec.Decode(wo.State)
	if err != nil {
		return fmt.Errorf("failed to decode operator %s: %w", wo.ID, err)
	}
	if class := kserde.TypeName(op); class != wo.Class {
		return fmt.Errorf("%w: operator %s decoded as %s, expected %s", ErrInvalidFormat, wo.ID, class, wo.Class)
	}

	meta, err := d.AddOperator(wo.ID, op)
	if err != nil {
		return err
	}
	if err := decodeAttrs(meta.attrs, wo.Attributes); err != nil {
		return err
	}
	for _, wp := range wo.Inputs {
		pm, err := meta.InputPort(wp.Name)
		if err != nil {
			return err
		}
		if err := decodeAttrs(pm.attrs, wp.Attributes); err != nil {
			return err
		}
	}
	for _, wp := range wo.Outputs {
		pm, err := meta.OutputPort(wp.Name)
		if err != nil {
			return err
		}
		if err := decodeAttrs(pm.attrs, wp.Attributes); err != nil {
			return err
		}
	}
	return nil
}

func (d *DAG) restoreStream(ws wireStream) error {
	s, err := d.AddStream(ws.ID)
	if err != nil {
		return err
	}
	if ws.Source != nil {
		pm, err := d.outputByName(*ws.Source)
		if err != nil {
			return err
		}
		if err := s.SetSource(pm.port); err != nil {
			return err
		}
	}
	for _, ref := range ws.Sinks {
		pm, err := d.inputByName(ref)
		if err != nil {
			return err
		}
		if err := s.AddSink(pm.port); err != nil {
			return err
		}
	}
	s.inline = ws.Inline
	s.codec = ws.Codec
	return nil
}

func (d *DAG) inputByName(ref wirePortRef) (*InputPortMeta, error) {
	o, ok := d.operators[ref.Operator]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operator %s", ErrInvalidFormat, ref.Operator)
	}
	return o.InputPort(ref.Port)
}

func (d *DAG) outputByName(ref wirePortRef) (*OutputPortMeta, error) {
	o, ok := d.operators[ref.Operator]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operator %s", ErrInvalidFormat, ref.Operator)
	}
	return o.OutputPort(ref.Port)
}

func decodeAttrs(m *kattr.Map, attrs []wireAttr) error {
	for _, a := range attrs {
		k, ok := kattr.Lookup(a.Key)
		if !ok {
			return fmt.Errorf("%w: unknown attribute %s", ErrInvalidFormat, a.Key)
		}
		v := reflect.New(k.Type())
		if err := msgpack.Unmarshal(a.Value, v.Interface()); err != nil {
			return fmt.Errorf("%w: attribute %s: %w", ErrInvalidFormat, a.Key, err)
		}
		if err := m.SetValue(k, v.Elem().Interface()); err != nil {
			return err
		}
	}
	return nil
}
