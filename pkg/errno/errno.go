package errno

import (
	"context"
	"errors"
	"fmt"
)

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Error is a failure tagged with one of the Errno kinds below.
// Detail names the offending input or operation, Cause keeps the underlying error.
type Error struct {
	Kind   Errno
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Kind.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, errno.ErrNetwork) match on the kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Errno:
		return e.Kind.Code == t.Code
	case *Errno:
		return t != nil && e.Kind.Code == t.Code
	}
	return false
}

// New creates a tagged error without an underlying cause.
func New(kind Errno, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap tags cause with kind. A nil cause returns nil.
func Wrap(kind Errno, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Cause: cause}
}

// FromContext classifies a transport failure: deadline overruns become ErrTimeout,
// everything else ErrNetwork.
func FromContext(cause error, op string) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		return Wrap(ErrTimeout, cause, "%s", op)
	}
	return Wrap(ErrNetwork, cause, "%s", op)
}

// KindOf returns the Errno the error is tagged with, or InternalServerError.
func KindOf(err error) Errno {
	if err == nil {
		return OK
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}

	var plain Errno
	if errors.As(err, &plain) {
		return plain
	}

	for _, kind := range Kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return InternalServerError
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	kind := KindOf(err)
	if kind.Code == InternalServerError.Code {
		return InternalServerError.Code, err.Error()
	}
	return kind.Code, err.Error()
}

// ExitCode maps an error to a process exit status.
// Configuration problems get their own status so scripts can tell them apart.
func ExitCode(err error) int {
	switch KindOf(err).Code {
	case OK.Code:
		return 0
	case ErrConfiguration.Code:
		return 2
	default:
		return 1
	}
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request"}
)

// Chain client errors (30000+)
var (
	ErrConfiguration     = Errno{Code: 30001, Message: "configuration error"}
	ErrInvalidAddress    = Errno{Code: 30002, Message: "invalid address"}
	ErrInvalidAmount     = Errno{Code: 30003, Message: "invalid amount"}
	ErrNetwork           = Errno{Code: 30004, Message: "network error"}
	ErrInsufficientFunds = Errno{Code: 30005, Message: "insufficient funds"}
	ErrDecoding          = Errno{Code: 30006, Message: "decoding error"}
	ErrInvalidABI        = Errno{Code: 30007, Message: "invalid abi"}
	ErrTimeout           = Errno{Code: 30008, Message: "timeout"}
	ErrSigning           = Errno{Code: 30009, Message: "signing error"}
)

// Kinds lists every chain client error kind.
var Kinds = []Errno{
	ErrConfiguration,
	ErrInvalidAddress,
	ErrInvalidAmount,
	ErrNetwork,
	ErrInsufficientFunds,
	ErrDecoding,
	ErrInvalidABI,
	ErrTimeout,
	ErrSigning,
}
