package services

import (
	"errors"
	"fmt"

	"catalog/internal/validation"
)

// ValidationError is returned when one or more field rules reject a request.
type ValidationError struct {
	Errors []validation.FieldError
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	return "validation failed: " + validation.Outcome{Errors: e.Errors}.Joined()
}

// Is allows proper error type checking with errors.Is()
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// BusinessRuleViolation is returned when the request is well formed but breaks
// catalog policy. Message is always the generic business-rule text.
type BusinessRuleViolation struct {
	Message string
}

func (e *BusinessRuleViolation) Error() string {
	return e.Message
}

func (e *BusinessRuleViolation) Is(target error) bool {
	_, ok := target.(*BusinessRuleViolation)
	return ok
}

// DuplicateKeyError is returned when storage rejects a record on a unique key
// that passed the application-level uniqueness check.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: field=%s already exists", e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	_, ok := target.(*DuplicateKeyError)
	return ok
}

// PersistenceError wraps any other storage failure.
type PersistenceError struct {
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %v", e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// UnexpectedError wraps failures outside the taxonomy, such as a lookup
// error during validation or a cancelled context.
type UnexpectedError struct {
	Cause error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Cause)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Cause
}

// Type assertion helpers for use with errors.As()

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsBusinessRuleViolation(err error) bool {
	var bv *BusinessRuleViolation
	return errors.As(err, &bv)
}

func IsDuplicateKeyError(err error) bool {
	var de *DuplicateKeyError
	return errors.As(err, &de)
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func IsUnexpectedError(err error) bool {
	var ue *UnexpectedError
	return errors.As(err, &ue)
}
