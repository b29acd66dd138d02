package farm

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrNoActiveSensors marks a plot that exists but has nothing to sample.
	ErrNoActiveSensors = errors.New("no active sensors")
)

// NotFoundError reports a missing resource. Reason, when set, narrows why.
type NotFoundError struct {
	Resource string
	Key      string
	Reason   error
}

// PlotNotFound returns the error for an unknown plot id.
func PlotNotFound(id uint) *NotFoundError {
	return &NotFoundError{Resource: "plot", Key: strconv.FormatUint(uint64(id), 10)}
}

func (e *NotFoundError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("%s %s: %v", e.Resource, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s not found with id %s", e.Resource, e.Key)
}

// Unwrap exposes ErrNotFound and the reason to errors.Is.
func (e *NotFoundError) Unwrap() []error {
	if e.Reason != nil {
		return []error{ErrNotFound, e.Reason}
	}
	return []error{ErrNotFound}
}
