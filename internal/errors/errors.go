package errors

import "fmt"

// ErrorCode represents a Trak error code.
type ErrorCode string

const (
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"       // 400
	ErrNotFound             ErrorCode = "NOT_FOUND"             // 404
	ErrConflict             ErrorCode = "CONFLICT"              // 409
	ErrUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION" // 422
	ErrInvalidState         ErrorCode = "INVALID_STATE"         // 409
	ErrConcurrentOperation  ErrorCode = "CONCURRENT_OPERATION"  // 409
	ErrFactory              ErrorCode = "FACTORY_ERROR"         // 502
	ErrSave                 ErrorCode = "SAVE_ERROR"            // 502
	ErrInternal             ErrorCode = "INTERNAL"              // 500
)

// TrakError represents a structured error with code, status, and details.
type TrakError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// Cause is the underlying error for FACTORY_ERROR/SAVE_ERROR, reachable
	// via errors.Unwrap so observers can inspect the original failure.
	Cause error
}

// Error implements the error interface.
func (e *TrakError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *TrakError) Unwrap() error {
	return e.Cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TrakError {
	return &TrakError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a project cannot be found.
func NewNotFound(identifier string) *TrakError {
	return &TrakError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("project not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *TrakError {
	return &TrakError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewUnsupportedOperation creates a 422 error for a verb invoked against a
// model lacking the required capability trait.
func NewUnsupportedOperation(verb, trait string) *TrakError {
	return &TrakError{
		Code:    ErrUnsupportedOperation,
		Status:  422,
		Message: fmt.Sprintf("%s requires a model with the %s trait", verb, trait),
		Details: map[string]any{"verb": verb, "trait": trait},
	}
}

// NewInvalidState creates a 409 error for a verb invoked with no model bound.
func NewInvalidState(msg string) *TrakError {
	return &TrakError{
		Code:    ErrInvalidState,
		Status:  409,
		Message: msg,
	}
}

// NewConcurrentOperation creates a 409 error for a verb invoked while another
// asynchronous verb is still in flight.
func NewConcurrentOperation(verb string) *TrakError {
	return &TrakError{
		Code:    ErrConcurrentOperation,
		Status:  409,
		Message: fmt.Sprintf("%s rejected: another operation is in flight", verb),
		Details: map[string]any{"verb": verb},
	}
}

// NewFactoryError creates a 502 error for a failed factory invocation.
func NewFactoryError(method string, cause error) *TrakError {
	msg := "factory invocation failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &TrakError{
		Code:    ErrFactory,
		Status:  502,
		Message: msg,
		Details: map[string]any{"method": method},
		Cause:   cause,
	}
}

// NewSaveError creates a 502 error for a failed save dispatch.
func NewSaveError(cause error) *TrakError {
	msg := "save dispatch failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &TrakError{
		Code:    ErrSave,
		Status:  502,
		Message: msg,
		Cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TrakError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TrakError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Cause:   err,
	}
}

// Is checks if an error is a TrakError with the given code.
func Is(err error, code ErrorCode) bool {
	if tErr, ok := err.(*TrakError); ok {
		return tErr.Code == code
	}
	return false
}
