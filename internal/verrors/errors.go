// Package verrors defines the error-kind taxonomy shared across every
// component, per the propagation policy: VALIDATION/NOT_FOUND/AUTHZ/CONFLICT
// surface at the HTTP edge unchanged; DEPENDENCY/TIMEOUT are retried locally;
// INTEGRITY is always fatal to the current run.
package verrors

import (
	"errors"
	"fmt"
)

// Kind is a taxonomy of error categories, not Go types.
type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindNotFound       Kind = "NOT_FOUND"
	KindAuthz          Kind = "AUTHZ"
	KindConflict       Kind = "CONFLICT"
	KindIntegrity      Kind = "INTEGRITY"
	KindDependency     Kind = "DEPENDENCY"
	KindProviderSchema Kind = "PROVIDER_SCHEMA"
	KindTimeout        Kind = "TIMEOUT"
	KindCancelled      Kind = "CANCELLED"
	KindEmptyPlan      Kind = "EMPTY_PLAN"
	KindEmptyCorpus    Kind = "EMPTY_CORPUS"
)

// Error is a taxonomy-tagged error carrying a stable code and a one-line,
// user-visible explanation, per spec §7 ("/status returns ... a single
// reason code from the taxonomy plus a one-line explanation").
type Error struct {
	Kind    Kind
	Code    string // short, stable machine-readable code, e.g. "CHUNK_NOT_FOUND"
	Message string // one-line, human-readable explanation
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

// Is supports errors.Is comparisons against another *Error by Kind+Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// New builds a new Error with the given kind, code, and message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap builds a new Error that records an underlying cause.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err if it is, or wraps, a *Error; otherwise
// returns "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Explain renders the one-line reason-code-plus-explanation string that
// /status reports on a failed run.
func Explain(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return err.Error()
}
