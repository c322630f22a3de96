package apierrors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed API call. Every error produced by the HTTP
// adapter carries exactly one kind.
type Kind string

const (
	// KindRequest marks a request that was malformed before it was sent.
	KindRequest Kind = "REQUEST_ERROR"
	// KindNetwork marks a call for which no response was received.
	KindNetwork Kind = "NETWORK_ERROR"
	// KindTransport marks a non-2xx response from the server.
	KindTransport Kind = "TRANSPORT_ERROR"
	// KindBusiness marks a 2xx response whose envelope signals failure.
	KindBusiness Kind = "BUSINESS_ERROR"
)

type Error struct {
	kind    Kind
	status  int // HTTP status, transport errors only
	code    int // envelope code, business errors only
	message string
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return New(kind, message)
	}
	return &Error{kind: kind, message: message, cause: err}
}

// NewTransport builds a transport error for the given HTTP status.
func NewTransport(status int, message string) *Error {
	return &Error{kind: KindTransport, status: status, message: message}
}

// NewBusiness builds a business error carrying the envelope code.
func NewBusiness(code int, message string) *Error {
	return &Error{kind: KindBusiness, code: code, message: message}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindRequest
	}
	return e.kind
}

// Status returns the HTTP status, or zero when no response was involved.
func (e *Error) Status() int {
	if e == nil {
		return 0
	}
	return e.status
}

// Code returns the business envelope code, or zero for other kinds.
func (e *Error) Code() int {
	if e == nil {
		return 0
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.kind, e.status, e.message)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts a typed error from an error chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsKind reports whether err is an adapter error of the given kind.
func IsKind(err error, kind Kind) bool {
	typed := As(err)
	return typed != nil && typed.Kind() == kind
}

// IsUnauthorized reports whether err is a transport error with status 401.
func IsUnauthorized(err error) bool {
	typed := As(err)
	return typed != nil && typed.Status() == http.StatusUnauthorized
}
