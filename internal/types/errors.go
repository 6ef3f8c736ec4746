package types

import (
	"fmt"

	"github.com/pingcap/errors"
)

// Kind classifies an error along the taxonomy in the write-path error
// handling design: the core never retries locally, it only surfaces
// enough context for the caller to act.
type Kind int

const (
	KindValidation Kind = iota
	KindAuthorization
	KindState
	KindNotFound
	KindConcurrency
	KindIO
	KindEncoding
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindConcurrency:
		return "concurrency"
	case KindIO:
		return "io"
	case KindEncoding:
		return "encoding"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Error is the core's error type. It carries a Kind so callers can branch
// on the taxonomy without string matching, plus an optional wrapped cause
// traced with pingcap/errors so the original call site survives.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a Kind-tagged error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags cause with kind, tracing it through pingcap/errors so the
// original stack is preserved for debugging, the way the teacher wraps
// every fallible call with errors.Trace.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: errors.Trace(cause)}
}

// IsKind reports whether err (or any error it wraps) carries the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

var (
	ErrSequenceLocked    = New(KindState, "sequence is locked")
	ErrTopicLocked       = New(KindState, "topic is locked")
	ErrTopicUnlocked     = New(KindState, "topic is not locked")
	ErrUnauthorized      = New(KindAuthorization, "topic is not a sub-resource of the declared sequence")
	ErrBadKey            = New(KindAuthorization, "key does not match topic identity")
	ErrAlreadyWriting    = New(KindState, "topic already has an active writer")
	ErrBadSchema         = New(KindValidation, "schema is missing the mandatory timestamp column")
	ErrProtocolViolation = New(KindValidation, "unexpected message in DoPut stream")
)

// NotFound builds a KindNotFound error naming the missing resource.
func NotFound(resource string) *Error {
	return New(KindNotFound, fmt.Sprintf("not found: %s", resource))
}

// MissingData builds a KindNotFound error for a resource that exists but
// lacks the data required to answer a query (e.g. an empty topic).
func MissingData(message string) *Error {
	return New(KindNotFound, message)
}
