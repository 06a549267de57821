// Package errors provides a lightweight structured error type (DoctoolError)
// for category-based classification across the build pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a doctool error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategorySitemap    ErrorCategory = "sitemap"

	// Build and processing errors
	CategoryParse      ErrorCategory = "parse"
	CategoryFormat     ErrorCategory = "format"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryState    ErrorCategory = "state"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the whole run
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded output
)

// DoctoolError is a structured error with category, severity, and context
type DoctoolError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for DoctoolError
type ContextFields map[string]any

// Error implements the error interface
func (e *DoctoolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *DoctoolError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DoctoolError) WithContext(key string, value any) *DoctoolError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DoctoolError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DoctoolError {
	return &DoctoolError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new DoctoolError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DoctoolError {
	return &DoctoolError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if dte, ok := err.(*DoctoolError); ok {
		return dte.Category == category
	}
	return false
}

// IsFatal checks if an error carries fatal severity
func IsFatal(err error) bool {
	if dte, ok := err.(*DoctoolError); ok {
		return dte.Severity == SeverityFatal
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a DoctoolError
func GetCategory(err error) ErrorCategory {
	if dte, ok := err.(*DoctoolError); ok {
		return dte.Category
	}
	return CategoryInternal
}

// FatalIO creates a fatal filesystem error naming the offending path.
// Fatal I/O errors abort the whole run with no partial persistence.
func FatalIO(err error, path string) *DoctoolError {
	return Wrap(err, CategoryFileSystem, SeverityFatal, "cannot access "+path).
		WithContext("path", path)
}

// StateError creates an error for private state store failures.
func StateError(err error, message string) *DoctoolError {
	return Wrap(err, CategoryState, SeverityFatal, message)
}

// ValidationError creates a new validation error
func ValidationError(message string) *DoctoolError {
	return &DoctoolError{
		Category: CategoryValidation,
		Severity: SeverityWarning,
		Message:  message,
	}
}
