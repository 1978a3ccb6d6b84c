/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a document is not found
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyExists is returned when attempting to create a document that already exists
	ErrAlreadyExists = errors.New("document already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrQueryExecution is returned when the document store reports a non-success status for a query page
	ErrQueryExecution = errors.New("query execution failed")

	// ErrInvalidIdentifier is returned when an identifier does not have the expected structure
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// NotFoundError represents an error when a document is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a document already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// QueryExecutionError is raised when a page fetch comes back with a non-success status code.
// Diagnostics carries whatever body or message the backend returned with the status.
type QueryExecutionError struct {
	StatusCode  int
	Diagnostics string
}

func (e *QueryExecutionError) Error() string {
	if e.Diagnostics != "" {
		return fmt.Sprintf("query execution failed with status code %d: %s", e.StatusCode, e.Diagnostics)
	}
	return fmt.Sprintf("query execution failed with status code %d", e.StatusCode)
}

func (e *QueryExecutionError) Is(target error) bool {
	return target == ErrQueryExecution
}

// InvalidIdentifierError is raised when node extraction cannot parse an identifier
type InvalidIdentifierError struct {
	Identifier string
	Reason     string
}

func (e *InvalidIdentifierError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid identifier %q: %s", e.Identifier, e.Reason)
	}
	return fmt.Sprintf("invalid identifier %q", e.Identifier)
}

func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(documentType, key string) error {
	return &NotFoundError{Type: documentType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(documentType, key string) error {
	return &AlreadyExistsError{Type: documentType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewQueryExecutionError creates a new QueryExecutionError
func NewQueryExecutionError(statusCode int, diagnostics string) error {
	return &QueryExecutionError{StatusCode: statusCode, Diagnostics: diagnostics}
}

// NewInvalidIdentifierError creates a new InvalidIdentifierError
func NewInvalidIdentifierError(identifier, reason string) error {
	return &InvalidIdentifierError{Identifier: identifier, Reason: reason}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsQueryExecution checks if an error is a query execution error
func IsQueryExecution(err error) bool {
	return errors.Is(err, ErrQueryExecution)
}

// IsInvalidIdentifier checks if an error is an invalid identifier error
func IsInvalidIdentifier(err error) bool {
	return errors.Is(err, ErrInvalidIdentifier)
}

// StatusCodeOf returns the backend status code carried by a QueryExecutionError anywhere in err's chain.
func StatusCodeOf(err error) (int, bool) {
	var qe *QueryExecutionError
	if errors.As(err, &qe) {
		return qe.StatusCode, true
	}
	return 0, false
}
