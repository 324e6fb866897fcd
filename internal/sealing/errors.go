package sealing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies sealing failures
type Kind string

const (
	KindInvalidPayload     Kind = "invalid_payload"
	KindMalformedDocument  Kind = "malformed_document"
	KindCompositionFailure Kind = "composition_failure"
	KindStorage            Kind = "storage"
)

// Operations reported in Error.Op
const (
	OpValidate   = "validate"
	OpLoadMaster = "load master"
	OpStamp      = "stamp"
	OpPublish    = "publish"
	OpPresign    = "presign"
)

// Error is a sealing failure with the stage it happened in. Kind and cause are
// for logs; callers only ever see PublicMessage.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error
func (e *Error) StatusCode() int {
	if e.Kind == KindInvalidPayload {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the generic response body for the error
func (e *Error) PublicMessage() string {
	switch e.Kind {
	case KindInvalidPayload:
		return "Invalid payload"
	case KindMalformedDocument, KindCompositionFailure:
		return "Error processing PDF"
	case KindStorage:
		if e.Op == OpLoadMaster {
			return "Error loading master PDF"
		}
		return "Error publishing PDF"
	}
	return "Internal error"
}

// Describe maps any error to a status code and response body. A stage that ran
// out of time keeps its message but reports 504.
func Describe(err error) (int, string) {
	status, msg := http.StatusInternalServerError, "Internal error"
	var se *Error
	if errors.As(err, &se) {
		status, msg = se.StatusCode(), se.PublicMessage()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	return status, msg
}

// KindOf returns the Kind of err, or "" when err is not a sealing error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
