package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Every DomainError wraps one of these so callers can branch
// with errors.Is regardless of message or details.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmptyInput         = errors.New("empty input")
	ErrValidation         = errors.New("validation failed")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInternal           = errors.New("internal error")
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Kind       error
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind error, code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details, Kind: kind}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(ErrValidation, "VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError(ErrNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewInvalidStatus(status string, allowed []string) error {
	return NewDomainError(ErrInvalidStatus, "INVALID_STATUS",
		fmt.Sprintf("invalid status %q", status), http.StatusBadRequest,
		map[string]any{"allowed": allowed})
}

func NewEmptyInput(field string) error {
	return NewDomainError(ErrEmptyInput, "EMPTY_INPUT",
		fmt.Sprintf("%s cannot be empty", field), http.StatusBadRequest, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(ErrUnauthorized, "UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewBackendUnavailable wraps a storage I/O failure.
func NewBackendUnavailable(err error) error {
	return &DomainError{
		Code:       "BACKEND_UNAVAILABLE",
		Message:    "storage backend unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Kind:       ErrBackendUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Kind:       ErrInternal,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts err to a DomainError, keeping nil as nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
