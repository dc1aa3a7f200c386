package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrMetadataRequired is returned when a payload is read before the stream metadata.
	ErrMetadataRequired = errors.New("transfer: metadata not received")
	// ErrBadMetadata marks missing or malformed metadata entries.
	ErrBadMetadata = errors.New("transfer: bad metadata")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("transport failure")
	// ErrShortStream marks a stream that ended before the declared message count.
	ErrShortStream = errors.New("stream closed before declared message count")
)

// TransportError wraps a failure of the underlying stream. It is not locally recoverable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transfer: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
