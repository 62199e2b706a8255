package record

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrUnexpectedShape = errors.New("unexpected image shape")
	ErrDegenerateRange = errors.New("image has no value range")
)

// ExtractError reports a record that does not have the expected layout.
type ExtractError struct {
	Detail string
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrMalformedRecord, e.Detail, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrMalformedRecord, e.Detail)
}

func (e *ExtractError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedRecord, e.Err}
	}
	return []error{ErrMalformedRecord}
}

func malformed(err error, format string, args ...any) *ExtractError {
	return &ExtractError{Detail: fmt.Sprintf(format, args...), Err: err}
}

// NormalizeError reports an image that cannot be mapped to 8-bit
// grayscale. Kind is ErrUnexpectedShape or ErrDegenerateRange.
type NormalizeError struct {
	Kind  error
	Shape []int
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("%v: shape %v", e.Kind, e.Shape)
}

func (e *NormalizeError) Unwrap() []error {
	return []error{e.Kind}
}
