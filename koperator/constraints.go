package koperator

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

// ConstraintChecker verifies an operator's own declared constraints.
type ConstraintChecker interface {
	Check(op Operator) error
}

// ConstraintCheckerFunc adapts a function to ConstraintChecker.
type ConstraintCheckerFunc func(op Operator) error

func (f ConstraintCheckerFunc) Check(op Operator) error { return f(op) }

// StructConstraints checks `validate` struct tags with go-playground/validator
// and then calls Validate on operators implementing Validator. All failures
// are combined.
type StructConstraints struct {
	validate *validator.Validate
}

func NewStructConstraints() *StructConstraints {
	return &StructConstraints{validate: validator.New()}
}

func (c *StructConstraints) Check(op Operator) error {
	var err error
	if structErr := c.validate.Struct(op); structErr != nil {
		if _, invalid := structErr.(*validator.InvalidValidationError); !invalid {
			err = multierr.Append(err, structErr)
		}
	}
	if v, ok := op.(Validator); ok {
		err = multierr.Append(err, v.Validate())
	}
	return err
}
