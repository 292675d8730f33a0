package errors

import (
	"fmt"
	"time"
)

// ParseError represents a rubric or manifest file that could not be decoded.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures rubric validation issues detected before any test runs.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildError indicates a recipe failed to produce a usable image. It is
// session-fatal: evaluation is skipped and every declared test is reported
// failed, but teardown still runs.
type BuildError struct {
	Recipe string
	Detail string
	Err    error
}

// NewBuildError constructs a BuildError. Detail carries the tail of the build
// output when available.
func NewBuildError(recipe, detail string, err error) error {
	return &BuildError{Recipe: recipe, Detail: detail, Err: err}
}

func (e *BuildError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return fmt.Sprintf("build error: %s: %s", e.Recipe, e.Detail)
	}
	return fmt.Sprintf("build error: %s: %v", e.Recipe, e.Err)
}

// Unwrap exposes the underlying error.
func (e *BuildError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents an unexpected fault while running a single check.
// It is local to that test and never aborts the session.
type ExecutionError struct {
	TestID string
	Err    error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(testID string, err error) error {
	return &ExecutionError{TestID: testID, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.TestID != "" {
		return fmt.Sprintf("execution error on test %s: %v", e.TestID, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TimeoutError indicates a single check exceeded its time budget. Local to
// that test, converted to a failed outcome by the evaluator.
type TimeoutError struct {
	TestID  string
	Timeout time.Duration
}

// NewTimeoutError constructs a TimeoutError.
func NewTimeoutError(testID string, timeout time.Duration) error {
	return &TimeoutError{TestID: testID, Timeout: timeout}
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return ""
	}
	if e.TestID != "" {
		return fmt.Sprintf("timeout error on test %s: exceeded %s", e.TestID, e.Timeout)
	}
	return fmt.Sprintf("timeout error: exceeded %s", e.Timeout)
}
