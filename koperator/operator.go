// Package koperator defines what the plan builder needs to know about an
// operator: its ports and its own constraints. Operators are plain structs
// that embed typed port fields; their runtime behaviour is not modelled here.
package koperator

import (
	"github.com/birdayz/kplan/kserde"
)

// Operator is any operator instance. Instances are registered by pointer and
// identified by that pointer.
type Operator = any

// Named is implemented by operators that want to know the id they were
// registered under.
type Named interface {
	SetName(name string)
}

// BaseOperator can be embedded to implement Named.
type BaseOperator struct {
	name string
}

func (b *BaseOperator) SetName(name string) { b.name = name }
func (b *BaseOperator) Name() string        { return b.name }

// Validator is implemented by operators with business rules beyond struct
// tags.
type Validator interface {
	Validate() error
}

// ClassName returns the implementation class name of an operator or codec.
func ClassName(v any) string {
	return kserde.TypeName(v)
}
