// Package errors defines the analysis error taxonomy shared by the engine,
// the CLI and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InputError indicates a missing or empty required input; rejected before analysis
	InputError ErrorCode = "INPUT_ERROR"
	// FormatError indicates API document content that is neither JSON nor YAML
	FormatError ErrorCode = "FORMAT_ERROR"
	// ParseWarning indicates malformed code inside an otherwise analyzable file
	ParseWarning ErrorCode = "PARSE_WARNING"
	// Timeout indicates a single file exceeded its analysis budget
	Timeout ErrorCode = "TIMEOUT"
	// UnsupportedLanguage marks a file that is counted but not analyzed
	UnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	// InternalError indicates an unexpected failure
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// AnalysisError carries an error code, a message and an optional cause
type AnalysisError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// New creates an AnalysisError without a cause
func New(code ErrorCode, message string) *AnalysisError {
	return &AnalysisError{Code: code, Message: message}
}

// Newf creates an AnalysisError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an AnalysisError around an underlying error
func Wrap(code ErrorCode, message string, cause error) *AnalysisError {
	return &AnalysisError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AnalysisError) Unwrap() error {
	return e.cause
}

// CodeOf returns the code of the first AnalysisError in the chain,
// or InternalError if there is none
func CodeOf(err error) ErrorCode {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return InternalError
}

// Is reports whether err carries the given code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// MessageOf returns the human-readable part of err without the code prefix
func MessageOf(err error) string {
	var ae *AnalysisError
	if !errors.As(err, &ae) {
		return err.Error()
	}
	if ae.cause != nil {
		return ae.Message + ": " + ae.cause.Error()
	}
	return ae.Message
}
