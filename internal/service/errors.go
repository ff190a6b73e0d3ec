package service

import (
    "strings"

    "github.com/iliyamo/restaurant-reservation/internal/repository"
)

// FieldError is one entry of a 422 response.
type FieldError struct {
    Field   string `json:"field"`
    Message string `json:"message"`
}

// ValidationError reports input rejected before the store is touched.
type ValidationError struct {
    Errors []FieldError
}

func (e *ValidationError) Error() string {
    msgs := make([]string, len(e.Errors))
    for i, fe := range e.Errors {
        msgs[i] = fe.Field + ": " + fe.Message
    }
    return "validation failed: " + strings.Join(msgs, "; ")
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
    return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// ConflictError carries a client-facing message for a 409.  It matches
// repository.ErrConflict.
type ConflictError struct {
    Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return repository.ErrConflict }
