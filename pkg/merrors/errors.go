// Package merrors provides the closed error taxonomy for the maidnode
// request/response core and the structured error type operations complete
// their deferred results with.
//
// This is a leaf package with no internal dependencies, following the same
// shape as a metadata-store error-code package: a closed enum plus a single
// error struct, so every layer above can pattern-match on Code without
// importing the packages that produce each error.
package merrors

import "fmt"

// Code represents the kind of failure a maidnode operation can surface to a
// caller, or that the wire layer can encounter while parsing traffic.
type Code int

const (
	// ErrParse indicates a malformed envelope or payload, found while
	// parsing inbound bytes or when an outbound record cannot be encoded.
	// It is never the completion of a pending operation (corrupt bytes
	// carry no trustworthy task id).
	ErrParse Code = iota + 1

	// ErrPersonaMismatch indicates an envelope addressed to the wrong
	// destination persona. The message is dropped, not surfaced to a caller.
	ErrPersonaMismatch

	// ErrTimeout indicates the deadline fired before a success quorum
	// (or the full expected-count fallback) was reached.
	ErrTimeout

	// ErrNoSuchElement indicates the remote side reported the requested
	// data name does not exist.
	ErrNoSuchElement

	// ErrInvalidParameter indicates the remote side rejected the request
	// (bad name, malformed version, and similar caller errors).
	ErrInvalidParameter

	// ErrUnknown indicates a remote ReturnCode whose domain code falls
	// outside the known set.
	ErrUnknown

	// ErrCancelled indicates local cancellation of a pending operation.
	ErrCancelled
)

// String returns a human-readable name for the error code.
func (c Code) String() string {
	switch c {
	case ErrParse:
		return "ParseError"
	case ErrPersonaMismatch:
		return "PersonaMismatch"
	case ErrTimeout:
		return "Timeout"
	case ErrNoSuchElement:
		return "NoSuchElement"
	case ErrInvalidParameter:
		return "InvalidParameter"
	case ErrUnknown:
		return "UnknownError"
	case ErrCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// OpError is the structured error a completed operation surfaces to its
// caller, or that the wire layer returns while rejecting malformed bytes.
type OpError struct {
	Code    Code
	Message string
	// Wrapped carries an underlying error, if any (e.g. an io error).
	Wrapped error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code.String()
}

// Unwrap allows errors.Is/As to see through to the wrapped error.
func (e *OpError) Unwrap() error {
	return e.Wrapped
}

// New constructs an OpError with the given code and message.
func New(code Code, message string) *OpError {
	return &OpError{Code: code, Message: message}
}

// Wrap constructs an OpError that carries an underlying error.
func Wrap(code Code, message string, err error) *OpError {
	return &OpError{Code: code, Message: message, Wrapped: err}
}

// Timeout returns the canonical timeout error for a given task id.
func Timeout(taskID fmt.Stringer) *OpError {
	return New(ErrTimeout, fmt.Sprintf("no quorum before deadline for %s", taskID))
}

// Cancelled returns the canonical cancellation error for a given task id.
func Cancelled(taskID fmt.Stringer) *OpError {
	return New(ErrCancelled, fmt.Sprintf("operation %s cancelled", taskID))
}

// CodeOf extracts the Code from err if it is (or wraps) an *OpError, and
// ErrUnknown otherwise.
func CodeOf(err error) Code {
	var opErr *OpError
	if ok := asOpError(err, &opErr); ok {
		return opErr.Code
	}
	return ErrUnknown
}

func asOpError(err error, target **OpError) bool {
	for err != nil {
		if oe, ok := err.(*OpError); ok {
			*target = oe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
