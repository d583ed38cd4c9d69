package kdag

import (
	"errors"
	"fmt"
	"strings"
)

// Construction errors.
var (
	ErrInvalidID            = errors.New("invalid id")
	ErrInvalidOperator      = errors.New("invalid operator")
	ErrDuplicateOperatorID  = errors.New("duplicate operator id")
	ErrDuplicateStreamID    = errors.New("duplicate stream id")
	ErrOperatorNotFound     = errors.New("operator not found")
	ErrInvalidPortReference = errors.New("port does not belong to a registered operator")
	ErrPortAlreadyConnected = errors.New("port already connected")
	ErrSourceAlreadySet     = errors.New("stream source already set")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrCodecConflict        = errors.New("conflicting stream codecs")
)

// Validation errors.
var (
	ErrConstraintViolation       = errors.New("operator violates constraints")
	ErrMissingRequiredInputPort  = errors.New("input port connection required")
	ErrMissingRequiredOutputPort = errors.New("output port connection required")
	ErrNoConnectedOutput         = errors.New("at least one output port must be connected")
	ErrCycleDetected             = errors.New("cycle detected in DAG")
	ErrDanglingStream            = errors.New("stream is not connected to any operator")
)

// ErrInvalidFormat is returned by Read for data that is not a serialized DAG.
var ErrInvalidFormat = errors.New("invalid serialized DAG")

// CycleError reports every cycle found by a validation pass. Each cycle lists
// the ids of its member operators.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Cycles))
	for _, c := range e.Cycles {
		parts = append(parts, "["+strings.Join(c, ", ")+"]")
	}
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(parts, " "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// AsCycleError extracts a CycleError from err.
func AsCycleError(err error) (*CycleError, bool) {
	var ce *CycleError
	ok := errors.As(err, &ce)
	return ce, ok
}

// ConstraintViolationError names the operator whose own constraints failed.
type ConstraintViolationError struct {
	Operator string
	Err      error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConstraintViolation, e.Operator, e.Err)
}

func (e *ConstraintViolationError) Unwrap() []error {
	return []error{ErrConstraintViolation, e.Err}
}

func validateID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s id cannot be empty", ErrInvalidID, kind)
	}
	if strings.ContainsAny(id, " \t\n\r") {
		return fmt.Errorf("%w: %s id %q cannot contain whitespace", ErrInvalidID, kind, id)
	}
	return nil
}
