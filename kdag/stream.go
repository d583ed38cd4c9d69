package kdag

import (
	"fmt"
)

// StreamMeta is a named edge with one source port and any number of sink
// ports.
type StreamMeta struct {
	dag    *DAG
	id     string
	source *OutputPortMeta
	sinks  []*InputPortMeta
	inline bool
	codec  string
}

func (s *StreamMeta) ID() string { return s.id }

// Source returns the bound source port, or nil.
func (s *StreamMeta) Source() *OutputPortMeta { return s.source }

// Sinks returns the bound sink ports in the order they were added.
func (s *StreamMeta) Sinks() []*InputPortMeta {
	return append([]*InputPortMeta(nil), s.sinks...)
}

// Inline reports whether source and sinks should be co-located.
func (s *StreamMeta) Inline() bool { return s.inline }

// SetInline sets the co-location hint. It has no effect on validation.
func (s *StreamMeta) SetInline(inline bool) *StreamMeta {
	s.inline = inline
	return s
}

// Codec returns the codec class of the stream, or "" for the default codec.
func (s *StreamMeta) Codec() string { return s.codec }

func (s *StreamMeta) String() string { return s.id }

// SetSource binds an output port of a registered operator as the source of
// this stream. Nothing is changed when an error is returned.
func (s *StreamMeta) SetSource(port OutputPort) error {
	pm, err := s.dag.resolveOutput(port)
	if err != nil {
		return fmt.Errorf("stream %s: %w", s.id, err)
	}
	if pm.stream != nil {
		return fmt.Errorf("%w: %s already sources stream %s", ErrPortAlreadyConnected, pm, pm.stream.id)
	}
	if s.source != nil {
		return fmt.Errorf("%w: stream %s has source %s", ErrSourceAlreadySet, s.id, s.source)
	}
	for _, sink := range s.sinks {
		if err := checkAssignable(pm, sink); err != nil {
			return err
		}
	}

	s.source = pm
	pm.stream = s
	pm.operator.outputStreams = append(pm.operator.outputStreams, s)

	s.dag.log.Debug("Stream source set", "stream", s.id, "port", pm.String())
	return nil
}

// AddSink binds an input port of a registered operator as a sink of this
// stream. The owning operator stops being a root. If the port requests a
// stream codec it must agree with the codec of the stream. Nothing is changed
// when an error is returned.
func (s *StreamMeta) AddSink(port InputPort) error {
	pm, err := s.dag.resolveInput(port)
	if err != nil {
		return fmt.Errorf("stream %s: %w", s.id, err)
	}
	if pm.stream != nil {
		return fmt.Errorf("%w: %s already receives stream %s", ErrPortAlreadyConnected, pm, pm.stream.id)
	}
	if s.source != nil {
		if err := checkAssignable(s.source, pm); err != nil {
			return err
		}
	}

	codec := s.codec
	if c := pm.port.StreamCodec(); c != nil {
		switch {
		case codec == "":
			codec = c.Name()
		case codec != c.Name():
			return fmt.Errorf("%w: stream %s uses %s, %s requests %s", ErrCodecConflict, s.id, codec, pm, c.Name())
		}
	}

	s.sinks = append(s.sinks, pm)
	s.codec = codec
	pm.stream = s

	op := pm.operator
	if len(op.inputStreams) == 0 {
		s.dag.removeRoot(op)
	}
	op.inputStreams = append(op.inputStreams, s)

	s.dag.log.Debug("Stream sink added", "stream", s.id, "port", pm.String())
	return nil
}

// MustSetSource is like SetSource but panics on error.
func (s *StreamMeta) MustSetSource(port OutputPort) *StreamMeta {
	if err := s.SetSource(port); err != nil {
		panic(err)
	}
	return s
}

// MustAddSink is like AddSink but panics on error.
func (s *StreamMeta) MustAddSink(port InputPort) *StreamMeta {
	if err := s.AddSink(port); err != nil {
		panic(err)
	}
	return s
}

func checkAssignable(source *OutputPortMeta, sink *InputPortMeta) error {
	from, to := source.port.PayloadType(), sink.port.PayloadType()
	if !from.AssignableTo(to) {
		return fmt.Errorf("%w: %s emits %v but %s expects %v", ErrTypeMismatch, source, from, sink, to)
	}
	return nil
}
