// Package utils provides logging and error handling utilities shared
// across the crawler.
package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode categorizes failures so callers can decide between retry,
// fallback, and skip without string matching.
type ErrorCode string

const (
	// Transport failures: connection, timeout, non-2xx after retries.
	ErrCodeNetworkTimeout     ErrorCode = "NETWORK_TIMEOUT"
	ErrCodeNetworkUnreachable ErrorCode = "NETWORK_UNREACHABLE"
	ErrCodeSourceUnreachable  ErrorCode = "SOURCE_UNREACHABLE"

	// Extraction: selector or state path yielded nothing. These are
	// normally represented as absent values, not errors; the codes exist
	// for the rare boundary where an error must be surfaced.
	ErrCodeSelectorNotFound ErrorCode = "SELECTOR_NOT_FOUND"
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrCodeParsingError     ErrorCode = "PARSING_ERROR"

	// Validation rejections: wrong content type, empty payload,
	// disallowed URL scheme. Soft failures, local to one asset.
	ErrCodeContentType  ErrorCode = "CONTENT_TYPE_MISMATCH"
	ErrCodeEmptyPayload ErrorCode = "EMPTY_PAYLOAD"
	ErrCodeBadScheme    ErrorCode = "BAD_URL_SCHEME"

	// External tooling.
	ErrCodeBrowserFailed ErrorCode = "BROWSER_FAILED"
	ErrCodeToolFailed    ErrorCode = "TOOL_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StructuredError carries an error code and optional context alongside
// the wrapped cause.
type StructuredError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target error code.
func (e *StructuredError) Is(target error) bool {
	if se, ok := target.(*StructuredError); ok {
		return e.Code == se.Code
	}
	return false
}

// WithContext adds contextual information to the error.
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a structured error with the given code.
func NewError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: retryableCode(code),
	}
}

// WrapError wraps an existing error in a structured error.
func WrapError(err error, code ErrorCode, message string) *StructuredError {
	se := NewError(code, message)
	se.Cause = err
	return se
}

func retryableCode(code ErrorCode) bool {
	switch code {
	case ErrCodeNetworkTimeout, ErrCodeNetworkUnreachable, ErrCodeSourceUnreachable:
		return true
	}
	return false
}

// IsErrorCode reports whether err carries the given code anywhere in
// its chain.
func IsErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		if se, ok := err.(*StructuredError); ok && se.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsRetryableError checks if an error indicates the operation should be
// retried rather than abandoned.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*StructuredError); ok {
		return se.Retryable
	}

	errorStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"503 service unavailable",
		"502 bad gateway",
		"504 gateway timeout",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errorStr, pattern) {
			return true
		}
	}
	return false
}
