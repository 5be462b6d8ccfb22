package cs2

import (
	"errors"
	"fmt"
	"reflect"
)

// Errors reported while parsing CS2 text into a tree.
var (
	ErrMalformedLine     = errors.New("malformed line")
	ErrUnexpectedIndent  = errors.New("unexpected indent")
	ErrUnterminatedGroup = errors.New("unterminated group")
	ErrDepthExceeded     = errors.New("nesting too deep")
)

// Errors reported while bridging between trees and typed values.
var (
	ErrTypeMismatch = errors.New("type mismatch")
	ErrHexFormat    = errors.New("invalid hex literal")
	ErrBlockSize    = errors.New("block size mismatch")
	ErrMissingField = errors.New("missing field")
	ErrSchema       = errors.New("invalid schema")
)

// UnsupportedTypeError is returned when a Go type has no CS2 representation,
// for example a map, a channel or a float.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("type %q is not supported", e.Type)
}
