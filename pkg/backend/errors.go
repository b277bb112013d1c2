package backend

import (
	"errors"
	"fmt"
)

// Common errors returned by the backend package.
var (
	// ErrRetryExhausted wraps the last backend error once every attempt failed.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrNoPayload means the response text held no parseable JSON object.
	ErrNoPayload = errors.New("no JSON payload in response")

	// ErrMissingKeys means the payload parsed but lacked required keys.
	ErrMissingKeys = errors.New("payload missing required keys")
)

// ErrorClass represents a classification of backend errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 and 529 overload responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport errors and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents unreadable success responses.
	ErrorClassDecode ErrorClass = "decode"
)

// Error is a backend failure with HTTP context.
type Error struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("backend %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyStatus maps an HTTP status code to an ErrorClass. Codes below 400
// have no class.
func ClassifyStatus(status int) ErrorClass {
	switch {
	case status == 429 || status == 529:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// retryReason labels an attempt failure for metrics.
func retryReason(err error) string {
	switch {
	case errors.Is(err, ErrNoPayload):
		return "no_payload"
	case errors.Is(err, ErrMissingKeys):
		return "missing_keys"
	default:
		return "backend_error"
	}
}
