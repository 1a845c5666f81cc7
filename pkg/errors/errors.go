// Package errors provides structured error types for chartsnap.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so the CLI, the HTTP API and the batch report can classify it
// without string matching.
//
// # Error Codes
//
//   - INVALID_*: input validation failures (stems, formats, variants)
//   - GEOMETRY_PARSE: malformed path data
//   - RASTER_DECODE: scene markup or embedded image could not be decoded
//   - MISSING_SCENE: a requested layer has no scene
//   - NETWORK_*: overlay service failures
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "empty file stem")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeRasterDecode, origErr, "decode scene")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidVariant Code = "INVALID_VARIANT"
	ErrCodeInvalidPlan    Code = "INVALID_PLAN"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Scene and export errors
	ErrCodeGeometryParse Code = "GEOMETRY_PARSE"
	ErrCodeRasterDecode  Code = "RASTER_DECODE"
	ErrCodeMissingScene  Code = "MISSING_SCENE"
	ErrCodeBusy          Code = "BUSY"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// GeometryParseError reports malformed path data at a byte offset.
type GeometryParseError struct {
	Data   string // Path data being parsed (possibly truncated)
	Offset int    // Byte offset of the failure
	Reason string
}

// Error implements the error interface.
func (e *GeometryParseError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d in %q", ErrCodeGeometryParse, e.Reason, e.Offset, e.Data)
}

// Code returns the error code for this error type.
func (e *GeometryParseError) Code() Code {
	return ErrCodeGeometryParse
}

// HTTPStatus maps an error to the status code the serve API answers with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidVariant,
		ErrCodeInvalidPlan, ErrCodeInvalidPath, ErrCodeGeometryParse, ErrCodeRasterDecode:
		return 400
	case ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeMissingScene:
		return 404
	case ErrCodeBusy:
		return 409
	case ErrCodeNetwork, ErrCodeTimeout:
		return 502
	case ErrCodeUnsupported:
		return 501
	default:
		return 500
	}
}
