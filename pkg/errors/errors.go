// Package errors provides structured error types for mindgraph.
//
// Every failure that can reach a user carries a machine-readable [Code], so
// the CLI and the local viewer can tell the error classes apart:
//
//   - INVALID_INPUT, UNSUPPORTED_FILE: rejected before any request is issued
//   - CONTRACT_VIOLATION: the AI service returned data of the wrong shape
//   - GENERATION_FAILED, NETWORK_ERROR, TIMEOUT, RATE_LIMITED: service failures
//   - DOCUMENT_PARSE: an uploaded document could not be read
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "topic or document is required")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDocumentParse, cause, "read page %d", n)
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeUnsupportedFile Code = "UNSUPPORTED_FILE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Service contract and generation errors
	ErrCodeContractViolation Code = "CONTRACT_VIOLATION"
	ErrCodeGenerationFailed  Code = "GENERATION_FAILED"

	// Document errors
	ErrCodeDocumentParse Code = "DOCUMENT_PARSE"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Rendering errors
	ErrCodeUnknownNode Code = "UNKNOWN_NODE"
	ErrCodeLayout      Code = "LAYOUT_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Retryable reports whether a request that failed with c may succeed if
// repeated unchanged.
func (c Code) Retryable() bool {
	switch c {
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeRateLimited:
		return true
	}
	return false
}

// Error is a code-tagged error. Message is safe to show to a user; Cause
// keeps the technical detail for logs.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags cause with code and a formatted message.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
// Context errors that were never tagged map to TIMEOUT.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	return ""
}

// IsRetryable reports whether err carries a [Code.Retryable] code.
func IsRetryable(err error) bool {
	return GetCode(err).Retryable()
}

// UserMessage returns the text to show for err: the message of a tagged
// error without code or cause, a fixed phrase for context errors, and
// err.Error() otherwise.
func UserMessage(err error) string {
	var e *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &e):
		return e.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "the request took too long"
	case errors.Is(err, context.Canceled):
		return "the request was canceled"
	}
	return err.Error()
}

// IsDocumentError reports whether err came from document ingestion rather
// than from the AI service. The viewer uses it to phrase the banner.
func IsDocumentError(err error) bool {
	switch GetCode(err) {
	case ErrCodeDocumentParse, ErrCodeUnsupportedFile:
		return true
	}
	return false
}
