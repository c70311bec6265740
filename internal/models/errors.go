package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("duplicate identifier")
	ErrValidation    = errors.New("validation failed")
	ErrIO            = errors.New("filesystem fault")
	ErrPartialRename = errors.New("partial rename")
	ErrConsistency   = errors.New("consistency fault")
)

// ValidationError reports input rejected before any store mutation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is allows errors.Is to match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError wraps a rule failure as a ValidationError.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Message: err.Error()}
}

// DuplicateError reports a unique-constraint violation.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s already exists", e.Field)
	}
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

// Is allows errors.Is to match ErrDuplicate.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// NotFoundError reports a missing row.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// Is allows errors.Is to match ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IOError reports a failed filesystem operation during a commit.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is allows errors.Is to match ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// PartialRenameError reports a rename that stopped after moving some files.
// The attachment directory is left mixed and needs manual recovery.
type PartialRenameError struct {
	Renamed []string
	Failed  string
	Err     error
}

func (e *PartialRenameError) Error() string {
	return fmt.Sprintf("rename stopped at %s after %d file(s) moved: %v", e.Failed, len(e.Renamed), e.Err)
}

func (e *PartialRenameError) Unwrap() error { return e.Err }

// Is allows errors.Is to match both ErrPartialRename and ErrIO.
func (e *PartialRenameError) Is(target error) bool {
	return target == ErrPartialRename || target == ErrIO
}

// ConsistencyError reports a page row whose file is missing or unreadable.
type ConsistencyError struct {
	PageID int64
	Path   string
	Reason string
	Err    error
}

func (e *ConsistencyError) Error() string {
	parts := []string{fmt.Sprintf("page %d (%s): %s", e.PageID, e.Path, e.Reason)}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// Is allows errors.Is to match ErrConsistency.
func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }
