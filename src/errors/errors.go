package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios
var (
	// Database errors
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrRecordNotFound     = errors.New("record not found")

	// Generative backend errors
	ErrBackendUnavailable = errors.New("generative backend unavailable")
	ErrBackendFailed      = errors.New("generative backend request failed")
	ErrEmptyReply         = errors.New("generation produced an empty reply")

	// Generation errors
	ErrEmptyVector = errors.New("trait vector has no components")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)

// DatabaseError represents a database operation error with context
type DatabaseError struct {
	Op    string // Operation that failed (e.g., "insert", "update", "query")
	Table string // Table involved
	Err   error  // Underlying error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s operation on %s: %v", e.Op, e.Table, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError creates a new database error
func NewDatabaseError(op, table string, err error) error {
	return &DatabaseError{
		Op:    op,
		Table: table,
		Err:   err,
	}
}

// BackendError represents a generative backend error
type BackendError struct {
	Backend    string
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s failed (status %d): %s",
			e.Backend, e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Operation, e.Err)
}

func (e *BackendError) Unwrap() error {
	if e.Err == nil {
		return ErrBackendFailed
	}
	return e.Err
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error // Optional cause, e.g. ErrMissingRequired
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed for %s (value: %v): %s",
			e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Err}
}

// IsNotFound checks if error indicates a missing resource
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

// IsBackendFailure checks if error came from the generative backend
func IsBackendFailure(err error) bool {
	var be *BackendError
	return errors.As(err, &be) ||
		errors.Is(err, ErrBackendFailed) ||
		errors.Is(err, ErrBackendUnavailable)
}

// WrapWithContext adds context to an error
func WrapWithContext(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
