package kdag

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/kplan/kattr"
	"github.com/birdayz/kplan/koperator"
	"github.com/birdayz/kplan/kserde"
)

func TestNew(t *testing.T) {
	d := New()
	assert.NotZero(t, d)
	assert.Equal(t, 0, len(d.Operators()))
	assert.Equal(t, 0, len(d.Streams()))
	assert.Equal(t, 0, len(d.RootOperators()))
	assert.Equal(t, 3, kattr.Get(d.Attributes(), MaxContainers))
}

func TestAddOperator(t *testing.T) {
	t.Run("registers root operator", func(t *testing.T) {
		d := New()
		r := &reader{}
		meta, err := d.AddOperator("reader", r)
		assert.NoError(t, err)
		assert.Equal(t, "reader", meta.ID())
		assert.True(t, meta.Operator() == any(r))
		assert.Equal(t, []string{"reader"}, ids(d.RootOperators()))
	})

	t.Run("same instance is idempotent", func(t *testing.T) {
		d := New()
		r := &reader{}
		first, err := Add(d, "reader", r)
		assert.NoError(t, err)
		second, err := Add(d, "reader", r)
		assert.NoError(t, err)
		assert.True(t, first == r)
		assert.True(t, second == r)
		assert.Equal(t, 1, len(d.Operators()))
		assert.Equal(t, 1, len(d.RootOperators()))
	})

	t.Run("different instance under same name", func(t *testing.T) {
		d := New()
		MustAdd(d, "reader", &reader{})
		_, err := d.AddOperator("reader", &reader{})
		assert.IsError(t, err, ErrDuplicateOperatorID)
		assert.Equal(t, 1, len(d.Operators()))
	})

	t.Run("same instance under second name", func(t *testing.T) {
		d := New()
		r := MustAdd(d, "reader", &reader{})
		_, err := d.AddOperator("reader2", r)
		assert.IsError(t, err, ErrDuplicateOperatorID)
		_, ok := d.Operator("reader2")
		assert.False(t, ok)
	})

	t.Run("invalid ids", func(t *testing.T) {
		d := New()
		_, err := d.AddOperator("", &reader{})
		assert.IsError(t, err, ErrInvalidID)
		_, err = d.AddOperator("my reader", &reader{})
		assert.IsError(t, err, ErrInvalidID)
	})

	t.Run("non pointer instances", func(t *testing.T) {
		d := New()
		_, err := d.AddOperator("reader", reader{})
		assert.IsError(t, err, ErrInvalidOperator)
		_, err = d.AddOperator("nil", (*reader)(nil))
		assert.IsError(t, err, ErrInvalidOperator)
		_, err = d.AddOperator("none", nil)
		assert.IsError(t, err, ErrInvalidOperator)
	})

	t.Run("named operators learn their id", func(t *testing.T) {
		d := New()
		p := MustAdd(d, "upper", &processor{})
		assert.Equal(t, "upper", p.Name())
	})

	t.Run("must variant panics", func(t *testing.T) {
		d := New()
		MustAdd(d, "reader", &reader{})
		assert.Panics(t, func() { MustAdd(d, "reader", &reader{}) })
	})
}

func TestAddStream(t *testing.T) {
	t.Run("empty stream", func(t *testing.T) {
		d := New()
		s, err := d.AddStream("s1")
		assert.NoError(t, err)
		assert.Zero(t, s.Source())
		assert.Equal(t, 0, len(s.Sinks()))
		assert.False(t, s.Inline())
		assert.Equal(t, "", s.Codec())
	})

	t.Run("duplicate id keeps the original", func(t *testing.T) {
		d := New()
		r := MustAdd(d, "reader", &reader{})
		s := MustConnect(d, "s1", &r.Out)
		_, err := d.AddStream("s1")
		assert.IsError(t, err, ErrDuplicateStreamID)

		got, ok := d.Stream("s1")
		assert.True(t, ok)
		assert.True(t, got == s)
		assert.Equal(t, "reader.out", got.Source().String())
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := New().AddStream(" ")
		assert.IsError(t, err, ErrInvalidID)
	})

	t.Run("inline hint", func(t *testing.T) {
		d := New()
		s, err := d.AddStream("s1")
		assert.NoError(t, err)
		assert.True(t, s.SetInline(true).Inline())
	})
}

func TestSetSource(t *testing.T) {
	t.Run("binds port", func(t *testing.T) {
		d := New()
		r := MustAdd(d, "reader", &reader{})
		s, _ := d.AddStream("s1")
		assert.NoError(t, s.SetSource(&r.Out))

		meta, _ := d.Operator("reader")
		out, err := meta.OutputPort("out")
		assert.NoError(t, err)
		assert.True(t, s.Source() == out)
		assert.True(t, out.Stream() == s)
		assert.Equal(t, []string{"s1"}, streamIDs(meta.OutputStreams()))
	})

	t.Run("port of unregistered operator", func(t *testing.T) {
		d := New()
		MustAdd(d, "reader", &reader{})
		s, _ := d.AddStream("s1")
		stranger := &reader{}
		assert.IsError(t, s.SetSource(&stranger.Out), ErrInvalidPortReference)
		assert.IsError(t, s.SetSource(nil), ErrInvalidPortReference)
	})

	t.Run("port already sources a stream", func(t *testing.T) {
		d := New()
		r := MustAdd(d, "reader", &reader{})
		w := MustAdd(d, "writer", &writer{})
		first := MustConnect(d, "s1", &r.Out, &w.In)

		_, err := d.AddStreamWithPorts("s2", &r.Out)
		assert.IsError(t, err, ErrPortAlreadyConnected)

		// the original binding persists
		meta, _ := d.Operator("reader")
		out, _ := meta.OutputPort("out")
		assert.True(t, out.Stream() == first)
		assert.True(t, first.Source() == out)
		assert.Equal(t, []string{"s1"}, streamIDs(meta.OutputStreams()))
		second, ok := d.Stream("s2")
		assert.True(t, ok)
		assert.Zero(t, second.Source())
	})

	t.Run("stream already has a source", func(t *testing.T) {
		d := New()
		a := MustAdd(d, "a", &reader{})
		b := MustAdd(d, "b", &reader{})
		s := MustConnect(d, "s1", &a.Out)
		assert.IsError(t, s.SetSource(&b.Out), ErrSourceAlreadySet)

		meta, _ := d.Operator("b")
		out, _ := meta.OutputPort("out")
		assert.Zero(t, out.Stream())
	})

	t.Run("payload type mismatch", func(t *testing.T) {
		d := New()
		c := MustAdd(d, "counter", &counter{})
		w := MustAdd(d, "writer", &writer{})
		s, _ := d.AddStream("s1")
		assert.NoError(t, s.AddSink(&w.In))
		assert.IsError(t, s.SetSource(&c.Out), ErrTypeMismatch)
		assert.Zero(t, s.Source())
	})
}

func TestAddSink(t *testing.T) {
	t.Run("removes operator from roots for good", func(t *testing.T) {
		d := New()
		r := MustAdd(d, "reader", &reader{})
		p := MustAdd(d, "processor", &processor{})
		w := MustAdd(d, "writer", &writer{})
		assert.Equal(t, []string{"reader", "processor", "writer"}, ids(d.RootOperators()))

		MustConnect(d, "s1", &r.Out, &p.In)
		assert.Equal(t, []string{"reader", "writer"}, ids(d.RootOperators()))

		MustConnect(d, "s2", &p.Out, &w.In)
		assert.Equal(t, []string{"reader"}, ids(d.RootOperators()))
	})

	t.Run("second input stream keeps operator out of roots", func(t *testing.T) {
		d := New()
		a := MustAdd(d, "a", &reader{})
		b := MustAdd(d, "b", &reader{})
		rl := MustAdd(d, "relay", &relay{})
		MustConnect(d, "s1", &a.Out, &rl.In)
		MustConnect(d, "s2", &b.Out, &rl.Feedback)

		meta, _ := d.Operator("relay")
		assert.Equal(t, []string{"s1", "s2"}, streamIDs(meta.InputStreams()))
		assert.Equal(t, []string{"a", "b"}, ids(d.RootOperators()))
	})

	t.Run("port already connected", func(t *testing.T) {
		d := New()
		a := MustAdd(d, "a", &reader{})
		b := MustAdd(d, "b", &reader{})
		w := MustAdd(d, "writer", &writer{})
		first := MustConnect(d, "s1", &a.Out, &w.In)

		s2 := MustConnect(d, "s2", &b.Out)
		assert.IsError(t, s2.AddSink(&w.In), ErrPortAlreadyConnected)
		assert.Equal(t, 0, len(s2.Sinks()))

		// adding the same sink twice to one stream fails as well
		assert.IsError(t, first.AddSink(&w.In), ErrPortAlreadyConnected)
		assert.Equal(t, 1, len(first.Sinks()))
	})

	t.Run("port of unregistered operator", func(t *testing.T) {
		d := New()
		s, _ := d.AddStream("s1")
		assert.IsError(t, s.AddSink(&(&writer{}).In), ErrInvalidPortReference)
	})

	t.Run("payload type mismatch", func(t *testing.T) {
		d := New()
		c := MustAdd(d, "counter", &counter{})
		w := MustAdd(d, "writer", &writer{})
		s := MustConnect(d, "s1", &c.Out)
		assert.IsError(t, s.AddSink(&w.In), ErrTypeMismatch)
		assert.Equal(t, []string{"counter", "writer"}, ids(d.RootOperators()))
	})
}

func TestStreamCodec(t *testing.T) {
	t.Run("default codec", func(t *testing.T) {
		d, _, _, _ := pipeline()
		s, _ := d.Stream("processed")
		assert.Equal(t, "", s.Codec())
	})

	t.Run("sinks agree", func(t *testing.T) {
		d := New()
		r := MustAdd(d, "reader", &reader{})
		w1 := MustAdd(d, "w1", newJSONWriter())
		w2 := MustAdd(d, "w2", newJSONWriter())
		w3 := MustAdd(d, "w3", &writer{})
		s, err := Connect(d, "s1", &r.Out, &w3.In, &w1.In, &w2.In)
		assert.NoError(t, err)
		assert.Equal(t, kserde.CodecJSON, s.Codec())
		assert.Equal(t, 3, len(s.Sinks()))
	})

	t.Run("sinks conflict", func(t *testing.T) {
		d := New()
		r := MustAdd(d, "reader", &reader{})
		w1 := MustAdd(d, "w1", newJSONWriter())
		w2 := MustAdd(d, "w2", newStringWriter())
		s, err := Connect(d, "s1", &r.Out, &w1.In, &w2.In)
		assert.IsError(t, err, ErrCodecConflict)
		assert.Equal(t, kserde.CodecJSON, s.Codec())
		assert.Equal(t, 1, len(s.Sinks()))

		// the rejected sink stays unconnected and a root
		meta, _ := d.Operator("w2")
		in, _ := meta.InputPort("in")
		assert.Zero(t, in.Stream())
		assert.SliceContains(t, ids(d.RootOperators()), "w2")
	})
}

func TestAddStreamWithPortsIsNotAtomic(t *testing.T) {
	d := New()
	r := MustAdd(d, "reader", &reader{})
	w := MustAdd(d, "writer", &writer{})
	stranger := &writer{}

	s, err := d.AddStreamWithPorts("s1", &r.Out, &w.In, &stranger.In)
	assert.IsError(t, err, ErrInvalidPortReference)
	assert.Equal(t, 1, len(s.Sinks()))
	assert.Equal(t, []string{"reader"}, ids(d.RootOperators()))
}

func TestLazyPortDiscovery(t *testing.T) {
	calls := map[string]int{}
	describer := koperator.DescriberFunc(func(op koperator.Operator) (koperator.Ports, error) {
		calls[koperator.ClassName(op)]++
		return koperator.DefaultDescriber.Describe(op)
	})

	d := New(WithDescriber(describer))
	r := MustAdd(d, "reader", &reader{})
	p := MustAdd(d, "processor", &processor{})
	w := MustAdd(d, "writer", &writer{})
	assert.Equal(t, 0, len(calls))

	MustConnect(d, "s1", &r.Out, &p.In)
	MustConnect(d, "s2", &p.Out, &w.In)
	assert.NoError(t, d.Validate())
	assert.NoError(t, d.Validate())

	for class, n := range calls {
		assert.Equal(t, 1, n, "describer called more than once for %s", class)
	}
	assert.Equal(t, 3, len(calls))
}

func TestDescriberFailure(t *testing.T) {
	errBroken := errors.New("broken")
	d := New(WithDescriber(koperator.DescriberFunc(func(op koperator.Operator) (koperator.Ports, error) {
		if _, ok := op.(*writer); ok {
			return koperator.Ports{}, errBroken
		}
		return koperator.DefaultDescriber.Describe(op)
	})))
	w := MustAdd(d, "writer", &writer{})
	r := MustAdd(d, "reader", &reader{})
	p := MustAdd(d, "processor", &processor{})

	t.Run("other operators still connect", func(t *testing.T) {
		_, err := Connect(d, "s1", &r.Out, &p.In)
		assert.NoError(t, err)
		assert.NoError(t, SetInputPortAttribute(d, &p.In, QueueCapacity, 16))
	})

	t.Run("ports of the broken operator are unknown", func(t *testing.T) {
		_, err := Connect(d, "s2", &p.Out, &w.In)
		assert.IsError(t, err, ErrInvalidPortReference)
	})

	t.Run("validate reports the broken operator", func(t *testing.T) {
		err := d.Validate()
		assert.IsError(t, err, ErrInvalidOperator)
		assert.IsError(t, err, errBroken)
		assert.Contains(t, err.Error(), "writer")
	})
}

func TestNonStructOperatorDoesNotBlockConnect(t *testing.T) {
	d := New()
	_, err := d.AddOperator("bad", new(int))
	assert.NoError(t, err)
	r := MustAdd(d, "reader", &reader{})
	w := MustAdd(d, "writer", &writer{})

	s, err := Connect(d, "s", &r.Out, &w.In)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(s.Sinks()))

	err = d.Validate()
	assert.IsError(t, err, ErrInvalidOperator)
	assert.Contains(t, err.Error(), "bad")
}

func TestQueries(t *testing.T) {
	d, r, _, w := pipeline()

	t.Run("operators in registration order", func(t *testing.T) {
		assert.Equal(t, []string{"reader", "processor", "writer"}, ids(d.Operators()))
	})

	t.Run("streams in registration order", func(t *testing.T) {
		assert.Equal(t, []string{"raw", "processed"}, streamIDs(d.Streams()))
	})

	t.Run("operator by instance", func(t *testing.T) {
		meta, ok := d.OperatorFor(w)
		assert.True(t, ok)
		assert.Equal(t, "writer", meta.ID())

		_, ok = d.OperatorFor(&writer{})
		assert.False(t, ok)
		_, ok = d.OperatorFor(*r)
		assert.False(t, ok)
	})

	t.Run("stream by id", func(t *testing.T) {
		s, ok := d.Stream("raw")
		assert.True(t, ok)
		assert.Equal(t, "reader.out", s.Source().String())
		assert.Equal(t, "processor.in", s.Sinks()[0].String())

		_, ok = d.Stream("missing")
		assert.False(t, ok)
	})

	t.Run("ports by name", func(t *testing.T) {
		meta, _ := d.Operator("reader")
		in, err := meta.InputPort("in")
		assert.NoError(t, err)
		assert.True(t, in.Optional())
		assert.True(t, in.Port() == koperator.InputPortRef(&r.In))

		_, err = meta.InputPort("nope")
		assert.IsError(t, err, ErrInvalidPortReference)
		_, err = meta.OutputPort("nope")
		assert.IsError(t, err, ErrInvalidPortReference)
	})

	t.Run("class names", func(t *testing.T) {
		d := New()
		rd := MustAdd(d, "reader", &reader{})
		w1 := MustAdd(d, "w1", newJSONWriter())
		w2 := MustAdd(d, "w2", &writer{})
		MustConnect(d, "s1", &rd.Out, &w1.In, &w2.In)

		assert.Equal(t, []string{
			"github.com/birdayz/kplan/kdag.reader",
			"github.com/birdayz/kplan/kdag.writer",
			kserde.CodecJSON,
		}, d.ClassNames())
	})
}
