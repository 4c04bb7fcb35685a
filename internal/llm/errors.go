package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies provider and executor errors.
type ErrorKind int

const (
	ErrConfig         ErrorKind = iota // missing credential or misconfiguration; never retried
	ErrTransient                       // non-OK upstream status or transport/parse failure; retryable
	ErrRetryExhausted                  // terminal; retry budget consumed without a successful round
)

var errorKindNames = [...]string{
	ErrConfig:         "config",
	ErrTransient:      "transient",
	ErrRetryExhausted: "retry_exhausted",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", k)
}

// Error is the typed error crossing the llm/dialogue boundary.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "llm: <nil>"
	}
	if e.Provider != "" {
		return fmt.Sprintf("llm [%s] %s: %s", e.Kind, e.Provider, e.Message)
	}
	return fmt.Sprintf("llm [%s]: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ConfigErr reports a construction-time misconfiguration.
func ConfigErr(provider, message string) *Error {
	return &Error{Kind: ErrConfig, Provider: provider, Message: message}
}

// TransientErr wraps a single failed upstream call.
func TransientErr(provider string, cause error) *Error {
	msg := "upstream call failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: ErrTransient, Provider: provider, Message: msg, Cause: cause}
}

// RetryExhaustedErr is the terminal error after the retry budget is
// consumed. It wraps the last attempt's cause.
func RetryExhaustedErr(provider string, attempts int, cause error) *Error {
	return &Error{
		Kind:     ErrRetryExhausted,
		Provider: provider,
		Message:  fmt.Sprintf("no successful round after %d attempts", attempts),
		Cause:    cause,
	}
}

// IsRetryable reports whether the executor should retry after err.
// Context cancellation and configuration errors are terminal; everything
// else coming out of a call is treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == ErrTransient
	}
	return true
}

// KindOf extracts the ErrorKind from err, or ErrTransient for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrTransient
}
