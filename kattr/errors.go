package kattr

import "errors"

var (
	ErrTypeMismatch    = errors.New("attribute type mismatch")
	ErrUnsupportedType = errors.New("unsupported attribute type")
	ErrParse           = errors.New("invalid attribute value")
)
