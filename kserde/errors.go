package kserde

import "errors"

var (
	ErrUnknownType    = errors.New("unknown operator type")
	ErrDuplicateType  = errors.New("operator type already registered")
	ErrUnexpectedType = errors.New("unexpected value type")
)
