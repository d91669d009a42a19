package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

// Extraction pipeline errors. Each failure is attached verbatim to the owning
// invoice record and surfaced to the user; none is fatal to the process.
var (
	ErrConfigMissing     = errors.New("service configuration is incomplete")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionEmpty   = errors.New("text extraction produced no output")
	ErrNoJSONFound       = errors.New("no JSON object found in response")
	ErrInvalidJSON       = errors.New("response JSON is invalid")
	ErrImageNotSupported = errors.New("service does not accept image input")
)

// TransportError reports a non-2xx reply from the structuring service.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("structuring service returned status %d: %s", e.Status, e.Body)
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
