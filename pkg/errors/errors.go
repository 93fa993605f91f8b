package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"pdf-toolkit/internal/domain"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeEncoding   ErrorType = "encoding"
	ErrorTypeCancelled  ErrorType = "cancelled"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Details:    detail,
		StatusCode: http.StatusBadRequest,
	}
}

// NewParseError creates an error for unreadable input documents
func NewParseError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeParse,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewEncodingError creates an error for failed output encoding
func NewEncodingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeEncoding,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewCancelledError creates an error for user-initiated cancellation
func NewCancelledError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeCancelled,
		Message:    "conversion cancelled",
		StatusCode: http.StatusAccepted,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates an error for requests that clash with job state
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// FromDomain classifies a domain error into an AppError.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var validationErr *domain.ValidationError
	var parseErr *domain.ParseError
	var encodingErr *domain.EncodingError

	switch {
	case stderrors.As(err, &validationErr):
		return NewValidationError(validationErr.Error())
	case stderrors.Is(err, domain.ErrCancelled):
		return NewCancelledError(err)
	case stderrors.As(err, &parseErr):
		return NewParseError(parseErr.Error(), err)
	case stderrors.As(err, &encodingErr):
		return NewEncodingError(encodingErr.Error(), err)
	case stderrors.Is(err, domain.ErrNoArtifact):
		return NewNotFoundError(err.Error())
	case stderrors.Is(err, domain.ErrUnknownTool):
		return NewNotFoundError(err.Error())
	case stderrors.Is(err, domain.ErrNoRunningJob):
		return NewConflictError(err.Error())
	default:
		return NewInternalError(err.Error(), err)
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
