package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrForbidden indicates a scope or grant violation.
	ErrForbidden = errors.New("access denied")
	// ErrConflict indicates a uniqueness violation inside a scope.
	ErrConflict = errors.New("record already exists")
	// ErrUnscopedUser indicates a user whose governorate cannot be resolved.
	ErrUnscopedUser = errors.New("user has no governorate scope")
	// ErrDuplicateCompletion indicates a second completed submission for the
	// same survey on the same calendar day.
	ErrDuplicateCompletion = errors.New("survey already completed today")
	// ErrHasDependents blocks deletion of a record that is still referenced.
	ErrHasDependents = errors.New("record still has dependent rows")
)

// ValidationError reports malformed input before any write happens.
type ValidationError struct {
	Reason  string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("required fields missing: %s", strings.Join(e.Missing, ", "))
	}
	return e.Reason
}

// PartialFailure reports that only Written of Total per-item writes
// succeeded. The rows already written stay committed; the caller decides
// whether to retry the remainder.
type PartialFailure struct {
	Written int
	Total   int
	Err     error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%d of %d writes succeeded: %v", e.Written, e.Total, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }

// AuditWriteError signals that the primary mutation committed but the audit
// entry describing it could not be written. The mutation is not rolled back.
type AuditWriteError struct {
	Err error
}

func (e *AuditWriteError) Error() string {
	return fmt.Sprintf("change applied but audit write failed: %v", e.Err)
}

func (e *AuditWriteError) Unwrap() error { return e.Err }
