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
	// ErrNotFound is returned when a named entity (model, configuration) is not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrNoIndexMap is returned when no index map is found for a type
	ErrNoIndexMap = errors.New("no index map found for type")

	// ErrConfigurationMissing is returned when neither a type specific nor a default
	// configuration is registered
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrConnectionFailed is returned when the engine cannot open a handle
	ErrConnectionFailed = errors.New("connection failed")

	// ErrQueryFailed is returned for malformed predicates or engine level query errors
	ErrQueryFailed = errors.New("query failed")

	// ErrTransactionFailed is returned when a write transaction was aborted and rolled back
	ErrTransactionFailed = errors.New("transaction failed")
)

// NotFoundError represents an error when an entity is not found
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

// ConfigurationMissingError is returned when a model type resolves to no configuration
type ConfigurationMissingError struct {
	Type string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("no configuration registered for %s and no default configuration set", e.Type)
}

func (e *ConfigurationMissingError) Is(target error) bool {
	return target == ErrConfigurationMissing
}

// ConnectionFailedError wraps the engine error that prevented opening a handle
type ConnectionFailedError struct {
	Configuration string
	Cause         error
}

func (e *ConnectionFailedError) Error() string {
	return fmt.Sprintf("cannot open connection for configuration %q: %v", e.Configuration, e.Cause)
}

func (e *ConnectionFailedError) Is(target error) bool {
	return target == ErrConnectionFailed
}

func (e *ConnectionFailedError) Unwrap() error {
	return e.Cause
}

// QueryFailedError wraps a malformed predicate or an engine level query error
type QueryFailedError struct {
	Table string
	Cause error
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query on %q failed: %v", e.Table, e.Cause)
}

func (e *QueryFailedError) Is(target error) bool {
	return target == ErrQueryFailed
}

func (e *QueryFailedError) Unwrap() error {
	return e.Cause
}

// TransactionFailedError is returned after a write transaction has been rolled back
type TransactionFailedError struct {
	Table string
	Cause error
}

func (e *TransactionFailedError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("write transaction on %q rolled back: %v", e.Table, e.Cause)
	}
	return fmt.Sprintf("write transaction rolled back: %v", e.Cause)
}

func (e *TransactionFailedError) Is(target error) bool {
	return target == ErrTransactionFailed
}

func (e *TransactionFailedError) Unwrap() error {
	return e.Cause
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewConfigurationMissingError creates a new ConfigurationMissingError
func NewConfigurationMissingError(typeName string) error {
	return &ConfigurationMissingError{Type: typeName}
}

// NewConnectionFailedError creates a new ConnectionFailedError.
// An error that already is a connection failure is returned unchanged.
func NewConnectionFailedError(configuration string, cause error) error {
	if errors.Is(cause, ErrConnectionFailed) {
		return cause
	}
	return &ConnectionFailedError{Configuration: configuration, Cause: cause}
}

// NewQueryFailedError creates a new QueryFailedError.
// An error that already is a query failure is returned unchanged.
func NewQueryFailedError(table string, cause error) error {
	if errors.Is(cause, ErrQueryFailed) {
		return cause
	}
	return &QueryFailedError{Table: table, Cause: cause}
}

// NewTransactionFailedError creates a new TransactionFailedError.
// An error that already is a transaction failure is returned unchanged.
func NewTransactionFailedError(table string, cause error) error {
	if errors.Is(cause, ErrTransactionFailed) {
		return cause
	}
	return &TransactionFailedError{Table: table, Cause: cause}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsConfigurationMissing checks if an error is a configuration missing error
func IsConfigurationMissing(err error) bool {
	return errors.Is(err, ErrConfigurationMissing)
}

// IsConnectionFailed checks if an error is a connection failure
func IsConnectionFailed(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsQueryFailed checks if an error is a query failure
func IsQueryFailed(err error) bool {
	return errors.Is(err, ErrQueryFailed)
}

// IsTransactionFailed checks if an error is a transaction failure
func IsTransactionFailed(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}

// IsNoIndexMap checks if an error reports a missing index map
func IsNoIndexMap(err error) bool {
	return errors.Is(err, ErrNoIndexMap)
}
