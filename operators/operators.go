package operators

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/birdayz/kplan/koperator"
	"github.com/birdayz/kplan/kserde"
)

var ErrInvalidConfig = errors.New("invalid operator config")

type Generator struct {
	koperator.BaseOperator
	Out koperator.OutputPort[int64] `port:"out"`

	Start int64 `hcl:"start,optional"`
	Step  int64 `hcl:"step,optional"`
	Count int64 `hcl:"count,optional" validate:"gte=0"`
	// IntervalMillis is the pause between two values.
	IntervalMillis int `hcl:"interval_millis,optional" validate:"gte=0"`
}

func NewGenerator() *Generator {
	return &Generator{Step: 1}
}

func (g *Generator) Validate() error {
	if g.Step == 0 {
		return fmt.Errorf("%w: step must not be zero", ErrInvalidConfig)
	}
	return nil
}

// Value returns the i-th generated value.
func (g *Generator) Value(i int64) int64 {
	return g.Start + i*g.Step
}

type Passthrough[T any] struct {
	koperator.BaseOperator
	In  koperator.InputPort[T]  `port:"in"`
	Out koperator.OutputPort[T] `port:"out"`
}

func NewPassthrough[T any]() *Passthrough[T] {
	return &Passthrough[T]{In: inputPort[T]()}
}

type Union[T any] struct {
	koperator.BaseOperator
	First  koperator.InputPort[T]  `port:"first"`
	Second koperator.InputPort[T]  `port:"second,optional"`
	Out    koperator.OutputPort[T] `port:"out"`
}

func NewUnion[T any]() *Union[T] {
	return &Union[T]{First: inputPort[T](), Second: inputPort[T]()}
}

type Console[T any] struct {
	koperator.BaseOperator
	In koperator.InputPort[T] `port:"in"`

	Prefix string `hcl:"prefix,optional"`
	// Target is where lines are written: stdout or stderr.
	Target string `hcl:"target,optional" validate:"oneof=stdout stderr"`
}

func NewConsole[T any]() *Console[T] {
	return &Console[T]{In: inputPort[T](), Target: "stdout"}
}

// Line formats one tuple the way it is printed.
func (c *Console[T]) Line(v T) string {
	return fmt.Sprintf("%s%v", c.Prefix, v)
}

type Filter[T any] struct {
	koperator.BaseOperator
	In     koperator.InputPort[T]  `port:"in"`
	Out    koperator.OutputPort[T] `port:"out"`
	Reject koperator.OutputPort[T] `port:"reject,optional"`

	// Pattern is a regular expression matched against the text form of a tuple.
	Pattern string `hcl:"pattern" validate:"required"`
	Invert  bool   `hcl:"invert,optional"`
}

func NewFilter[T any]() *Filter[T] {
	return &Filter[T]{In: inputPort[T]()}
}

func (f *Filter[T]) Validate() error {
	if _, err := regexp.Compile(f.Pattern); err != nil {
		return fmt.Errorf("%w: pattern: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Match reports whether v goes to Out.
func (f *Filter[T]) Match(v T) (bool, error) {
	ok, err := regexp.MatchString(f.Pattern, fmt.Sprint(v))
	if err != nil {
		return false, err
	}
	return ok != f.Invert, nil
}

// inputPort returns an input port requesting the native codec for T.
func inputPort[T any]() koperator.InputPort[T] {
	var zero T
	switch any(zero).(type) {
	case string:
		return koperator.WithStreamCodec[T](kserde.StringStreamCodec)
	case int64:
		return koperator.WithStreamCodec[T](kserde.Int64StreamCodec)
	case float64:
		return koperator.WithStreamCodec[T](kserde.Float64StreamCodec)
	default:
		return koperator.WithStreamCodec[T](kserde.JSONStreamCodec[T]())
	}
}
