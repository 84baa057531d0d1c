// Package errs implements the typed exception taxonomy that clusterlib
// propagates instead of sentinel errors or panics, as described in the
// error handling design: every failure a caller needs to branch on arrives
// as one of these kinds, never bare text.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which row of the exception taxonomy an Error belongs to.
type Kind int

const (
	InvalidArguments Kind = iota
	InvalidMethod
	NotConnected
	BadVersion
	PublishVersion
	ObjectRemoved
	AlreadyConnected
	InconsistentInternalState
	SystemFailure
	NoAuth
	InvalidState
	UnknownErrorCode
)

func (k Kind) String() string {
	switch k {
	case InvalidArguments:
		return "InvalidArguments"
	case InvalidMethod:
		return "InvalidMethod"
	case NotConnected:
		return "NotConnected"
	case BadVersion:
		return "BadVersion"
	case PublishVersion:
		return "PublishVersion"
	case ObjectRemoved:
		return "ObjectRemoved"
	case AlreadyConnected:
		return "AlreadyConnected"
	case InconsistentInternalState:
		return "InconsistentInternalState"
	case SystemFailure:
		return "SystemFailure"
	case NoAuth:
		return "NoAuth"
	case InvalidState:
		return "InvalidState"
	case UnknownErrorCode:
		return "UnknownErrorCode"
	default:
		return "Unknown"
	}
}

// Error is the single concrete error type for the whole taxonomy; Kind
// says which row of the table it is so callers can branch with Is/As
// instead of string matching.
type Error struct {
	kind    Kind
	message string
	cause   error
	code    int32
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Kind() Kind {
	return e.kind
}

// Code carries the raw store error code for UnknownErrorCode.
func (e *Error) Code() int32 {
	return e.code
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a lower-level cause to a typed error without losing the
// kind, per the error handling design's InconsistentInternalState and
// SystemFailure rows.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{kind: kind, message: message, cause: errors.Wrap(cause, message)}
}

func WithCode(kind Kind, code int32, message string) *Error {
	return &Error{kind: kind, message: message, code: code}
}

// Is reports whether err is a *Error of the given kind, walking the cause
// chain the way errors.As does.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.kind == kind
}

func InvalidArgumentsf(format string, args ...interface{}) *Error {
	return Newf(InvalidArguments, format, args...)
}

func NotConnectedf(format string, args ...interface{}) *Error {
	return Newf(NotConnected, format, args...)
}

func ObjectRemovedf(format string, args ...interface{}) *Error {
	return Newf(ObjectRemoved, format, args...)
}

func AlreadyConnectedf(format string, args ...interface{}) *Error {
	return Newf(AlreadyConnected, format, args...)
}

func InvalidMethodf(format string, args ...interface{}) *Error {
	return Newf(InvalidMethod, format, args...)
}

func InconsistentInternalStatef(format string, args ...interface{}) *Error {
	return Newf(InconsistentInternalState, format, args...)
}
