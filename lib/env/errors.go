package env

import (
	"errors"
	"fmt"
	"os"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// Kind classifies every error raised by the environment layer and the
// storage instances built on top of it.
type Kind uint8

const (
	KindUnknown                   Kind = iota // 0: Not an environment error.
	KindBackendUnavailable                    // 1: Backend not compiled into this build.
	KindBackendConstructionFailed             // 2: Backend compiled in but initialisation failed.
	KindInvalidState                          // 3: Operation on an unopened or closed resource.
	KindResourceAlreadyClosed                 // 4: Release called twice or use after release.
	KindInvalidArgument                       // 5: Argument rejected by the backend or the database.
	KindNotFound                              // 6: File or directory does not exist.
	KindIOError                               // 7: Backend I/O failure.
	KindCorruption                            // 8: On-disk data failed validation.
)

func (k Kind) String() string {
	switch k {
	case KindBackendUnavailable:
		return "BackendUnavailable"
	case KindBackendConstructionFailed:
		return "BackendConstructionFailed"
	case KindInvalidState:
		return "InvalidState"
	case KindResourceAlreadyClosed:
		return "ResourceAlreadyClosed"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindNotFound:
		return "NotFound"
	case KindIOError:
		return "IOError"
	case KindCorruption:
		return "Corruption"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the error type of the environment layer. It carries a stable kind,
// a human-readable message and optionally the underlying cause.
//
// Errors match each other by kind, so errors.Is(err, ErrBackendUnavailable)
// holds for every unavailable-backend error regardless of its message.
type Error struct {
	Kind Kind   // The error kind
	Msg  string // The error message
	Err  error  // The cause (may be nil)
}

// Error implements the error interface. Without a cause the message is
// returned verbatim.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates a new error with the given kind and message.
func NewError(kind Kind, msg string) *Error {
	return &Error{
		Kind: kind,
		Msg:  msg,
	}
}

// WrapError creates a new error with the given kind and message that wraps err.
func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{
		Kind: kind,
		Msg:  msg,
		Err:  err,
	}
}

// Sentinels for errors.Is.
var (
	ErrBackendUnavailable        = NewError(KindBackendUnavailable, "backend unavailable")
	ErrBackendConstructionFailed = NewError(KindBackendConstructionFailed, "backend construction failed")
	ErrInvalidState              = NewError(KindInvalidState, "invalid state")
	ErrResourceAlreadyClosed     = NewError(KindResourceAlreadyClosed, "resource already closed")
	ErrInvalidArgument           = NewError(KindInvalidArgument, "invalid argument")
	ErrNotFound                  = NewError(KindNotFound, "not found")
	ErrIOError                   = NewError(KindIOError, "io error")
	ErrCorruption                = NewError(KindCorruption, "corruption")
)

// KindOf returns the kind of the first *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// --------------------------------------------------------------------------
// Constructors shared by the backends
// --------------------------------------------------------------------------

// NotCompiledError returns the error for a backend that is missing from the build.
// The message is part of the external contract and must not change.
func NotCompiledError(name string) *Error {
	return NewError(KindBackendUnavailable, fmt.Sprintf("Not compiled with %s support", name))
}

// IOError converts a filesystem error into an environment error.
// Missing files map to KindNotFound, everything else to KindIOError.
func IOError(context string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, os.ErrNotExist) {
		return WrapError(KindNotFound, context, err)
	}
	return WrapError(KindIOError, context, err)
}
