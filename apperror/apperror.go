package apperror

import (
	"errors"
	"fmt"
)

// Kind names one failure class of the assistant.
type Kind string

const (
	KindMissingCredential Kind = "missing credential"
	KindNoDisplay         Kind = "no display"
	KindCaptureFailed     Kind = "capture failed"
	KindEncodingFailed    Kind = "encoding failed"
	KindTransport         Kind = "transport"
	KindRemoteRejected    Kind = "remote rejected"
	KindMalformedResponse Kind = "malformed response"
	KindEmptyResponse     Kind = "empty response"
	KindPersistenceFailed Kind = "persistence failed"
)

// Error carries a Kind plus whatever the caller needs to diagnose it.
// Status and Body are only set for failures that saw an HTTP response.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Body    string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Body != "" {
		msg += ". Response was: " + e.Body
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithBody builds an error that keeps the raw remote body.
func WithBody(kind Kind, message string, status int, body string, cause error) error {
	return &Error{Kind: kind, Message: message, Status: status, Body: body, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// BodyOf returns the raw remote body kept in err, if any.
func BodyOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Body
	}
	return ""
}
