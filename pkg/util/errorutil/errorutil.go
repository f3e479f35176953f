package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/jackc/pgx/v5"
)

// FieldErrors maps a request field to its validation messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Fields returns the sorted list of fields carrying errors.
func (f FieldErrors) Fields() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Fields     FieldErrors
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %v", e.Message, e.Fields.Fields())
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Body returns the JSON response body for the error.
func (e *DomainError) Body() any {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	return map[string]string{"error": e.Message}
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

// NewValidationError reports field-level failures. Nothing was applied.
func NewValidationError(fields FieldErrors) error {
	return &DomainError{
		Code:       "VALIDATION_FAILED",
		Message:    "validation failed",
		HTTPStatus: http.StatusBadRequest,
		Fields:     fields,
	}
}

func NewNotFound() error {
	return NewDomainError("NOT_FOUND", "Not found", http.StatusNotFound)
}

// NewInvalidInput reports a request that cannot be processed, without field detail.
func NewInvalidInput(message string) error {
	return NewDomainError("INVALID_INPUT", message, http.StatusBadRequest)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsNotFound reports whether err maps to a 404.
func IsNotFound(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == "NOT_FOUND"
	}
	return errors.Is(err, pgx.ErrNoRows)
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
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound().(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}
