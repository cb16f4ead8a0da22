package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with no line items
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidField is the sentinel wrapped by InvalidFieldError
	ErrInvalidField = errors.New("invalid field")
	// ErrDuplicateKey is returned when a unique key is already taken
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned when an id does not exist (any more)
	ErrNotFound = errors.New("not found")
	// ErrRequestProcessed is returned when a stock request is no longer pending
	ErrRequestProcessed = errors.New("request already processed")
	// ErrForbidden is returned when the session role may not perform an operation
	ErrForbidden = errors.New("forbidden")
)

// InvalidFieldError reports a required-field or range validation failure
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidField
func (e *InvalidFieldError) Unwrap() error {
	return ErrInvalidField
}

// InvalidField builds an InvalidFieldError
func InvalidField(field, reason string) error {
	return &InvalidFieldError{Field: field, Reason: reason}
}
