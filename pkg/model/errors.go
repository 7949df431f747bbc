package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for transport mapping.
type ErrorKind string

const (
	KindUnauthorized          ErrorKind = "unauthorized"
	KindInvalidRequest        ErrorKind = "invalid_request"
	KindForbidden             ErrorKind = "forbidden"
	KindNotFound              ErrorKind = "not_found"
	KindConflict              ErrorKind = "conflict"
	KindUpstreamNotConfigured ErrorKind = "upstream_not_configured"
	KindUpstreamError         ErrorKind = "upstream_error"
	KindInternal              ErrorKind = "internal_error"
)

// Error is a classified failure. Message is safe to show to callers;
// Details is optional extra context and Err the wrapped cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error of the given kind without a cause.
func Errorf(kind ErrorKind, msg, details string) *Error {
	return &Error{Kind: kind, Message: msg, Details: details}
}

// Wrap builds an *Error of the given kind around err.
func Wrap(kind ErrorKind, msg string, err error) *Error {
	e := &Error{Kind: kind, Message: msg, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
