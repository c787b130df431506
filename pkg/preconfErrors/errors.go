// Package preconfErrors defines the failure kinds surfaced by a preconfirmation submission.
// Every kind is terminal for the current invocation; nothing in this module retries.
package preconfErrors

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

func (k Kind) String() string {
	return string(k)
}

const (
	// KindNetwork covers transport failures and non-2xx responses
	KindNetwork Kind = "network"
	// KindDecode covers malformed or shape-mismatched responses
	KindDecode Kind = "decode"
	// KindSigning covers key or signing backend failures
	KindSigning Kind = "signing"
	// KindPrecondition covers invalid inputs, such as an envelope with no destination
	KindPrecondition Kind = "precondition"
)

// Sentinels for use with errors.Is
var (
	ErrNetwork      = &Error{Kind: KindNetwork}
	ErrDecode       = &Error{Kind: KindDecode}
	ErrSigning      = &Error{Kind: KindSigning}
	ErrPrecondition = &Error{Kind: KindPrecondition}
)

// Error is a classified failure. Body carries the raw remote response, when there was one.
type Error struct {
	Kind    Kind
	Message string
	Body    string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s (response body: %s)", msg, e.Body)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any error of the same kind against a bare sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" || t.Cause != nil || t.Body != "" {
		return e == t
	}
	return e.Kind == t.Kind
}

// WithBody attaches a raw response body for diagnostics
func (e *Error) WithBody(body string) *Error {
	e.Body = body
	return e
}

func newError(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func NewNetworkError(cause error, format string, args ...interface{}) *Error {
	return newError(KindNetwork, cause, format, args...)
}

func NewDecodeError(cause error, format string, args ...interface{}) *Error {
	return newError(KindDecode, cause, format, args...)
}

func NewSigningError(cause error, format string, args ...interface{}) *Error {
	return newError(KindSigning, cause, format, args...)
}

func NewPreconditionError(cause error, format string, args ...interface{}) *Error {
	return newError(KindPrecondition, cause, format, args...)
}

// KindOf returns the kind of the first classified error in err's chain, or "" if none
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}
