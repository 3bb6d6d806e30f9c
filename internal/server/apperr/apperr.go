// Package apperr defines the typed errors shared by services and the HTTP
// layer. Every failure a client can observe is an *Error carrying the stable
// negative code the API has always used, plus a Kind that drives the HTTP
// status mapping. Callers match errors with errors.Is/errors.As.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for status mapping and logging.
type Kind int

const (
	KindAuth Kind = iota + 1
	KindPermission
	KindNotFound
	KindValidation
	KindConflict
	KindStorage
)

// Codes shared across route groups. Group-specific codes live next to the
// services that produce them.
const (
	CodeRouteNotFound = -1
	CodeSupervisor    = -6
	CodeMaster        = -7
	CodeMissingToken  = -8
	CodeInvalidToken  = -9
	CodeInternal      = -999
)

// Error is the tagged error variant used across the server.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Message, e.Code, e.cause)
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two *Error values by kind and code so services can expose
// sentinel errors without clients comparing pointers.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// New builds an error with a client-visible message.
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind Kind, code int, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause that is logged server-side but never serialized.
func Wrap(err error, kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: err}
}

// Storage wraps an underlying persistence failure. The client-visible
// message stays generic; the cause carries the detail for logs.
func Storage(err error, code int) *Error {
	return Wrap(err, KindStorage, code, "internal error")
}

// From returns err as *Error when it is one.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Token errors shared by the access gate and the auth package. The
// invalid-token error deliberately covers bad signature, expiry and
// not-yet-valid, so callers cannot tell which check failed.
var (
	ErrMissingToken = New(KindAuth, CodeMissingToken, "access denied, token required")
	ErrInvalidToken = New(KindAuth, CodeInvalidToken, "invalid or expired token")
)
