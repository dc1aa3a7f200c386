package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("decode error")
	// ErrMixedTypes marks a payload whose chunks disagree on the element type.
	ErrMixedTypes = errors.New("mixed element types")
	// ErrOverrun marks a chunk that would write past the destination span.
	ErrOverrun = errors.New("write span overrun")
	// ErrDestinationTooSmall is returned before any write when the caller buffer cannot hold the payload.
	ErrDestinationTooSmall = errors.New("destination buffer too small")
)

// DecodeError reports a byte blob that does not match the declared element count and width.
// It is fatal to the transfer it occurred in.
type DecodeError struct {
	Msg string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Msg, e.Err)
	}
	return "decode: " + e.Msg
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func lengthMismatch(got, length, width int) error {
	return &DecodeError{Msg: fmt.Sprintf("got %d bytes, want %d elements of width %d", got, length, width)}
}

func mixedTypes(want, got DataType) error {
	return &DecodeError{Msg: fmt.Sprintf("got %s, want %s", got, want), Err: ErrMixedTypes}
}

// MixedTypes returns the error for a chunk tagged got inside a payload of type want.
func MixedTypes(want, got DataType) error {
	return mixedTypes(want, got)
}
