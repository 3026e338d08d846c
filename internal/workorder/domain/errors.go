package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("not_found")
	ErrPaymentNotFound      = errors.New("payment_not_found")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
	ErrNumberSpaceExhausted = errors.New("number_space_exhausted")
)

// FieldError attributes one validation failure to an input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError is returned for rejected input. Nothing is persisted when it occurs.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "validation_error"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation_error: " + strings.Join(parts, "; ")
}

// Field returns the first error attributed to field, if any.
func (e *ValidationError) Field(field string) (FieldError, bool) {
	if e == nil {
		return FieldError{}, false
	}
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe, true
		}
	}
	return FieldError{}, false
}

// PersistenceError wraps a failed store operation. Its detail is logged, not shown.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError unless it already carries a domain meaning.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrPaymentNotFound) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
