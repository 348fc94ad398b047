package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrIngestBusy is returned when an ingestion run is requested while one is active.
var ErrIngestBusy = errors.New("ingestion run already in progress")

// ErrSchedulerStopped is returned when a run is requested after shutdown began.
var ErrSchedulerStopped = errors.New("ingestion scheduler is shutting down")

// NotFoundError reports a missing entity. ID is set for single lookups,
// IDs lists every missing id of an association check.
type NotFoundError struct {
	Entity string
	ID     int32
	Name   string
	IDs    []int32
}

func (e *NotFoundError) Error() string {
	switch {
	case len(e.IDs) > 0:
		parts := make([]string, len(e.IDs))
		for i, id := range e.IDs {
			parts[i] = strconv.Itoa(int(id))
		}
		return fmt.Sprintf("%s not found: ids %s", e.Entity, strings.Join(parts, ", "))
	case e.Name != "":
		return fmt.Sprintf("%s not found: %q", e.Entity, e.Name)
	default:
		return fmt.Sprintf("%s not found: id %d", e.Entity, e.ID)
	}
}

// IntegrityError wraps a constraint violation raised by the store on write.
type IntegrityError struct {
	Cause      error
	Constraint string
	Hint       string
}

func (e *IntegrityError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("integrity violation on %s: %v", e.Constraint, e.Cause)
	}
	return fmt.Sprintf("integrity violation: %v", e.Cause)
}

func (e *IntegrityError) Unwrap() error {
	return e.Cause
}

// NewIntegrityError builds an IntegrityError whose hint comes from the error code table.
func NewIntegrityError(cause error, constraint string) *IntegrityError {
	return &IntegrityError{
		Cause:      cause,
		Constraint: constraint,
		Hint:       MapError(cause).Action,
	}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
