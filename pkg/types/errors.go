package types

import "errors"

// Domain errors shared across packages
var (
	ErrInvalidSeverity    = errors.New("invalid severity")
	ErrMalformedDocBlock  = errors.New("malformed docblock")
	ErrUnsupportedCharset = errors.New("unsupported source encoding")
	ErrInvalidEncoding    = errors.New("content is not valid in the source encoding")
	ErrElementNotFound    = errors.New("element not found")
)
