package wire

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/linalg"
	"github.com/sincaw/arraystream/pkg/store"
	"github.com/sincaw/arraystream/pkg/transfer"
)

const errorDomain = "arraystream"

// Reasons carried in the ErrorInfo detail of failed calls.
const (
	ReasonNotFound     = "NOT_FOUND"
	ReasonSizeMismatch = "SIZE_MISMATCH"
	ReasonDecode       = "DECODE"
	ReasonTransport    = "TRANSPORT"
	ReasonMetadata     = "METADATA"
)

// ToStatus converts a handler error to a grpc status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		code   codes.Code
		reason string
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		code, reason = codes.NotFound, ReasonNotFound
	case errors.Is(err, linalg.ErrSizeMismatch):
		code, reason = codes.InvalidArgument, ReasonSizeMismatch
	case errors.Is(err, codec.ErrDecode):
		code, reason = codes.DataLoss, ReasonDecode
	case errors.Is(err, transfer.ErrMetadataRequired), errors.Is(err, transfer.ErrBadMetadata):
		code, reason = codes.FailedPrecondition, ReasonMetadata
	case errors.Is(err, transfer.ErrTransport):
		code, reason = codes.Aborted, ReasonTransport
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}

	st := status.New(code, err.Error())
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: errorDomain})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// RemoteError is a failed call as seen by a client. It matches the error
// sentinels of this module with errors.Is.
type RemoteError struct {
	Code    codes.Code
	Message string
	Reason  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc error: code = %s desc = %s", e.Code, e.Message)
}

func (e *RemoteError) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	switch e.Reason {
	case ReasonNotFound:
		return target == store.ErrNotFound
	case ReasonSizeMismatch:
		return target == linalg.ErrSizeMismatch
	case ReasonDecode:
		return target == codec.ErrDecode
	case ReasonMetadata:
		return target == transfer.ErrBadMetadata
	case ReasonTransport:
		return target == transfer.ErrTransport
	}
	switch e.Code {
	case codes.NotFound:
		return target == store.ErrNotFound
	case codes.Unavailable, codes.Aborted:
		return target == transfer.ErrTransport
	case codes.Canceled:
		return target == context.Canceled
	case codes.DeadlineExceeded:
		return target == context.DeadlineExceeded
	}
	return false
}

// FromStatus converts a grpc status error back to a *RemoteError.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	ret := &RemoteError{Code: st.Code(), Message: st.Message()}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == errorDomain {
			ret.Reason = info.Reason
		}
	}
	return ret
}
