package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrConfiguration is returned by constructors when required settings are missing.
	// It is never produced mid-batch.
	ErrConfiguration = errors.New("invalid configuration")
)

// ErrorClass represents a classification of extraction failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a malformed or unexpected response body.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassConfig represents a missing credential or setting.
	ErrorClassConfig ErrorClass = "config"

	// ErrorClassCancelled represents a context that ended before the URL resolved.
	ErrorClassCancelled ErrorClass = "cancelled"
)

// APIError represents a failed call to the extraction API.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("zyte %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("zyte %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response body cannot be interpreted.
type DecodeError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("decode response: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code onto an ErrorClass.
// Successful codes map to the empty class.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// ClassOf returns the ErrorClass of err. Errors that carry no
// classification are treated as network errors.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return ErrorClassDecode
	}

	switch {
	case errors.Is(err, ErrConfiguration):
		return ErrorClassConfig
	case errors.Is(err, ErrContextCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return ErrorClassCancelled
	}

	return ErrorClassNetwork
}

// IsTransient reports whether a failure of this class may succeed on retry.
func (c ErrorClass) IsTransient() bool {
	switch c {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
