package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a Parley error code.
type ErrorCode string

const (
	ErrInvalidRequest          ErrorCode = "INVALID_REQUEST"           // 400
	ErrNotFound                ErrorCode = "NOT_FOUND"                 // 404
	ErrConflict                ErrorCode = "CONFLICT"                  // 409
	ErrUnsupportedLanguagePair ErrorCode = "UNSUPPORTED_LANGUAGE_PAIR" // 422
	ErrInternal                ErrorCode = "INTERNAL"                  // 500
	ErrHostOperationFailed     ErrorCode = "HOST_OPERATION_FAILED"     // 502
	ErrCapabilityUnavailable   ErrorCode = "CAPABILITY_UNAVAILABLE"    // 503
)

// ParleyError represents a structured error with code, status, and details.
type ParleyError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ParleyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ParleyError {
	return &ParleyError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a message cannot be found.
func NewNotFound(id string) *ParleyError {
	return &ParleyError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("message not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewConflict creates a 409 error, used when the same operation is already
// running for a message.
func NewConflict(msg string) *ParleyError {
	return &ParleyError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCapabilityUnavailable creates a 503 error naming the missing host capabilities.
func NewCapabilityUnavailable(missing ...string) *ParleyError {
	return &ParleyError{
		Code:    ErrCapabilityUnavailable,
		Status:  503,
		Message: fmt.Sprintf("%s not available on this host", strings.Join(missing, ", ")),
		Details: map[string]any{"missing": missing},
	}
}

// NewUnsupportedLanguagePair creates a 422 error when the translator cannot
// bridge the two languages. Names are human-readable language names.
func NewUnsupportedLanguagePair(sourceName, targetName string) *ParleyError {
	return &ParleyError{
		Code:    ErrUnsupportedLanguagePair,
		Status:  422,
		Message: fmt.Sprintf("Translation from %s to %s is not supported", sourceName, targetName),
		Details: map[string]any{"source": sourceName, "target": targetName},
	}
}

// NewHostOperationFailed creates a 502 error wrapping a rejected host call.
func NewHostOperationFailed(operation string, err error) *ParleyError {
	msg := "host call failed"
	if err != nil {
		msg = err.Error()
	}
	return &ParleyError{
		Code:    ErrHostOperationFailed,
		Status:  502,
		Message: fmt.Sprintf("%s failed: %s", operation, msg),
		Details: map[string]any{"operation": operation},
	}
}

// NewHostFailure creates a 502 error from a host failure message that was
// already formatted, e.g. a detection error carried on a send result.
func NewHostFailure(msg string) *ParleyError {
	return &ParleyError{
		Code:    ErrHostOperationFailed,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ParleyError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ParleyError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a ParleyError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *ParleyError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// CodeOf returns the code of a ParleyError, or ErrInternal for anything else.
func CodeOf(err error) ErrorCode {
	var pErr *ParleyError
	if stderrors.As(err, &pErr) {
		return pErr.Code
	}
	return ErrInternal
}
