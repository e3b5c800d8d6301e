// Package errors provides custom error types for the parcelmap system.
// These errors enable programmatic error checking across the reconciliation
// stages and keep per-record failures distinguishable from fatal ones.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As re-export the standard library helpers so callers only need
// one errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the parcelmap system
var (
	// ErrEmptyInput indicates a batch with no records; fatal to a run
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingField indicates a record lacks a required field
	ErrMissingField = errors.New("missing required field")

	// ErrFetchFailed indicates the acquisition layer failed to fetch a record
	ErrFetchFailed = errors.New("fetch failed")

	// ErrAmbiguous indicates a value could not be normalized unambiguously
	ErrAmbiguous = errors.New("normalization ambiguity")

	// ErrConflict indicates two linked records disagree on a field
	ErrConflict = errors.New("match conflict")

	// ErrClusterTie indicates kept-record election fell through every rule
	ErrClusterTie = errors.New("cluster tie")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")
)

// MissingFieldError reports a record that lacks one or more required fields.
type MissingFieldError struct {
	RecordID string
	Fields   []string
}

// Error implements the error interface
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record %s missing required field(s): %s", e.RecordID, strings.Join(e.Fields, ", "))
}

// Is implements errors.Is support
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// NewMissingFieldError creates a new MissingFieldError
func NewMissingFieldError(recordID string, fields ...string) *MissingFieldError {
	return &MissingFieldError{RecordID: recordID, Fields: fields}
}

// FetchError carries an acquisition failure attached to a raw record.
type FetchError struct {
	RecordID string
	Origin   string
	Message  string
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("record %s from %s failed to fetch: %s", e.RecordID, e.Origin, e.Message)
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// NewFetchError creates a new FetchError
func NewFetchError(recordID, origin, message string) *FetchError {
	return &FetchError{RecordID: recordID, Origin: origin, Message: message}
}

// NormalizationError reports a value that fell back to minimal normalization.
type NormalizationError struct {
	Field   string
	Value   string
	Message string
}

// Error implements the error interface
func (e *NormalizationError) Error() string {
	return fmt.Sprintf("ambiguous %s %q: %s", e.Field, e.Value, e.Message)
}

// Is implements errors.Is support
func (e *NormalizationError) Is(target error) bool {
	return target == ErrAmbiguous
}

// NewNormalizationError creates a new NormalizationError
func NewNormalizationError(field, value, message string) *NormalizationError {
	return &NormalizationError{Field: field, Value: value, Message: message}
}

// ConflictError describes a disagreement between two linked records.
type ConflictError struct {
	ParcelID string
	Field    string
	APIValue string
	Scraped  string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("parcel %s: %s differs (api %q, scraped %q)", e.ParcelID, e.Field, e.APIValue, e.Scraped)
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(parcelID, field, apiValue, scraped string) *ConflictError {
	return &ConflictError{ParcelID: parcelID, Field: field, APIValue: apiValue, Scraped: scraped}
}

// TieError records a kept-record election decided by the parcel id fallback.
type TieError struct {
	Kept       string
	Candidates []string
}

// Error implements the error interface
func (e *TieError) Error() string {
	return fmt.Sprintf("cluster tie between %v, kept %s by parcel id order", e.Candidates, e.Kept)
}

// Is implements errors.Is support
func (e *TieError) Is(target error) bool {
	return target == ErrClusterTie
}

// NewTieError creates a new TieError
func NewTieError(kept string, candidates []string) *TieError {
	return &TieError{Kept: kept, Candidates: candidates}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "csv", "html"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsMissingField checks if an error is a missing required field error
func IsMissingField(err error) bool {
	return errors.Is(err, ErrMissingField)
}

// IsFetchFailure checks if an error is an acquisition failure
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsCritical reports whether a per-record error makes the record unusable.
func IsCritical(err error) bool {
	return IsMissingField(err) || IsFetchFailure(err)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapCanceled converts a context error into ErrCanceled while keeping the cause.
func WrapCanceled(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrCanceled, err)
}
