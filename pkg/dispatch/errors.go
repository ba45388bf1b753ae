package dispatch

import (
	"fmt"

	"github.com/pkg/errors"
)

// FallbackFailureDescription is used when a failure carries no error text.
const FallbackFailureDescription = "Failed to connect to the API"

// TransportError means the request never produced a response: bad URL,
// DNS, refused connection, cancelled context, broken body.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError means the endpoint answered with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// ParseError means a 2xx response body was not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureTransport FailureKind = "transport"
	FailureStatus    FailureKind = "status"
	FailureParse     FailureKind = "parse"
)

// Classify maps an exchange error onto the failure taxonomy. Errors that
// match none of the typed failures count as transport failures.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var statusErr *StatusError
	var parseErr *ParseError
	switch {
	case errors.As(err, &statusErr):
		return FailureStatus
	case errors.As(err, &parseErr):
		return FailureParse
	default:
		return FailureTransport
	}
}

// Describe returns the human readable text of a failure, without any
// wrapping context added on the way up.
func Describe(err error) string {
	if err == nil {
		return FallbackFailureDescription
	}
	var (
		statusErr    *StatusError
		parseErr     *ParseError
		transportErr *TransportError
		desc         string
	)
	switch {
	case errors.As(err, &statusErr):
		desc = statusErr.Error()
	case errors.As(err, &parseErr):
		desc = parseErr.Error()
	case errors.As(err, &transportErr):
		desc = transportErr.Error()
	default:
		desc = err.Error()
	}
	if desc == "" {
		return FallbackFailureDescription
	}
	return desc
}

// FailureContent is the assistant text recorded for a failed exchange.
func FailureContent(err error) string {
	return "Error: " + Describe(err) + ". Please check your endpoint."
}
