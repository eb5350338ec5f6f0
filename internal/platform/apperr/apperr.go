// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package apperr defines the centralized error handling framework for Exvault.

It provides a rich error type that bridges the gap between low-level
pipeline/storage errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: Domain-specific constructors for the extraction pipeline
    (image decoding, AI credential, AI response parsing, cropping readiness).
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"net/http"
)

// AppError is the canonical error type for the Exvault API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries or the
// raw AI response body).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "AUTH_ERROR").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Exercise") // Returns "Exercise not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Conflict creates a 409 [AppError] for duplicate or busy-resource conditions.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// Unprocessable creates a 422 [AppError] for semantically invalid input.
func Unprocessable(msg string) *AppError {
	return &AppError{
		Code:       "UNPROCESSABLE",
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// # Pipeline Errors

// ImageDecode creates an IMAGE_DECODE_ERROR for a page or crop source that
// failed to decode. The operation that hit it aborts as a whole; no partial
// composite or crop is ever returned alongside this error.
func ImageDecode(msg string, cause error) *AppError {
	return &AppError{
		Code:       "IMAGE_DECODE_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// AuthError creates the distinct, user-actionable error for a missing or
// invalid AI credential. It is raised before any network call is attempted.
func AuthError(msg string) *AppError {
	return &AppError{
		Code:       "AUTH_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusPreconditionFailed,
	}
}

// ParseError creates a PARSE_ERROR for an AI response that is not well-formed
// structured data.
func ParseError(msg string, cause error) *AppError {
	return &AppError{
		Code:       "PARSE_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// ExtractionError creates the generic EXTRACTION_ERROR for any other failure
// of the AI call.
func ExtractionError(msg string, cause error) *AppError {
	return &AppError{
		Code:       "EXTRACTION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

// SourceNotReady creates a SOURCE_NOT_READY error for a crop requested before
// the source composite is decoded. Callers must await readiness and retry.
func SourceNotReady(msg string) *AppError {
	return &AppError{
		Code:       "SOURCE_NOT_READY",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// SaveError creates a SAVE_ERROR wrapping a failed persistence call.
func SaveError(msg string, cause error) *AppError {
	return &AppError{
		Code:       "SAVE_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
