package kdag

import (
	"errors"
	"slices"

	"github.com/birdayz/kplan/koperator"
	"github.com/birdayz/kplan/kserde"
)

// reader has an optional input and a required output.
type reader struct {
	In  koperator.InputPort[string]  `port:"in,optional"`
	Out koperator.OutputPort[string] `port:"out"`
	Path string
}

// processor has a required input and a required output.
type processor struct {
	koperator.BaseOperator
	In  koperator.InputPort[string]  `port:"in"`
	Out koperator.OutputPort[string] `port:"out"`
}

// writer has a required input and no outputs.
type writer struct {
	In koperator.InputPort[string] `port:"in"`
}

// relay is a processor with an extra optional input for feedback edges.
type relay struct {
	In       koperator.InputPort[string]  `port:"in"`
	Feedback koperator.InputPort[string]  `port:"feedback,optional"`
	Out      koperator.OutputPort[string] `port:"out"`
}

// optionalPorts declares only optional ports.
type optionalPorts struct {
	In  koperator.InputPort[string]  `port:"in,optional"`
	Out koperator.OutputPort[string] `port:"out,optional"`
}

// portless declares no ports at all.
type portless struct {
	Label string
}

// counter emits int64 values.
type counter struct {
	Out koperator.OutputPort[int64] `port:"out"`
}

// fanOut has two required outputs.
type fanOut struct {
	In    koperator.InputPort[string]  `port:"in,optional"`
	Left  koperator.OutputPort[string] `port:"left"`
	Right koperator.OutputPort[string] `port:"right"`
}

// bounded fails its constraints unless Limit is positive.
type bounded struct {
	Out   koperator.OutputPort[string] `port:"out,optional"`
	Limit int                          `validate:"gte=1"`
}

var errOddLimit = errors.New("limit must be even")

// even fails its Validate method for odd limits.
type even struct {
	Limit int
}

func (e *even) Validate() error {
	if e.Limit%2 != 0 {
		return errOddLimit
	}
	return nil
}

func newJSONWriter() *writer {
	return &writer{In: koperator.WithStreamCodec[string](kserde.JSONStreamCodec[string]())}
}

func newStringWriter() *writer {
	return &writer{In: koperator.WithStreamCodec[string](kserde.StringStreamCodec)}
}

func ids(ops []*OperatorMeta) []string {
	out := make([]string, 0, len(ops))
	for _, o := range ops {
		out = append(out, o.ID())
	}
	return out
}

func streamIDs(streams []*StreamMeta) []string {
	out := make([]string, 0, len(streams))
	for _, s := range streams {
		out = append(out, s.ID())
	}
	return out
}

// sortedCycles sorts the members of every cycle and the cycles themselves so
// that results can be compared independent of traversal order.
func sortedCycles(cycles [][]string) [][]string {
	out := make([][]string, 0, len(cycles))
	for _, c := range cycles {
		c = slices.Clone(c)
		slices.Sort(c)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b []string) int { return slices.Compare(a, b) })
	return out
}

// pipeline builds the Reader -> Processor -> Writer plan.
func pipeline() (*DAG, *reader, *processor, *writer) {
	d := New()
	r := MustAdd(d, "reader", &reader{})
	p := MustAdd(d, "processor", &processor{})
	w := MustAdd(d, "writer", &writer{})
	MustConnect(d, "raw", &r.Out, &p.In)
	MustConnect(d, "processed", &p.Out, &w.In)
	return d, r, p, w
}
