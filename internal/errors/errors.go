package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline failures so callers can decide policy
// (abort, skip the dataset, or show guidance) without string matching.
type ErrorType string

const (
	ErrTypeSchema       ErrorType = "SCHEMA"
	ErrTypeMissingInput ErrorType = "MISSING_INPUT"
	ErrTypeAggregation  ErrorType = "AGGREGATION"
	ErrTypeParsing      ErrorType = "PARSING"
	ErrTypeStorage      ErrorType = "STORAGE"
	ErrTypeValidation   ErrorType = "VALIDATION"
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeConfig       ErrorType = "CONFIG"
)

// AppError is the application error carrying a type, a human message, the
// wrapped cause and optional context values (dataset name, column, path).
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err (or anything it wraps) is an AppError of the
// given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// NewSchemaError creates an error for an unresolvable date or value column.
func NewSchemaError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSchema, message, cause)
}

// NewMissingInputError creates an error for an absent raw file. guidance is
// shown to the user verbatim and should name where to place the file or the
// command that regenerates it.
func NewMissingInputError(path, guidance string) *AppError {
	e := NewAppError(ErrTypeMissingInput, fmt.Sprintf("raw file not found: %s", path), nil)
	e.Context["path"] = path
	e.Context["guidance"] = guidance
	return e
}

// Guidance returns the actionable hint attached to a missing-input error,
// or an empty string.
func Guidance(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if g, ok := appErr.Context["guidance"].(string); ok {
			return g
		}
	}
	return ""
}

// NewAggregationError creates an error for a dataset-specific aggregation
// step that cannot proceed (for example a grouping column the profile
// expects is missing).
func NewAggregationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeAggregation, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
