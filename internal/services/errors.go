package services

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied is returned when the acting user is not a member
	// of the organization or its role ranks too low for the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidRole is returned for a role outside the known hierarchy.
	ErrInvalidRole = errors.New("invalid role")

	// ErrPropertyHasConnections blocks deleting a property that still owns
	// connections.
	ErrPropertyHasConnections = errors.New("property still has connections")

	// ErrScanInProgress is returned when another scan already holds the
	// connection's scan lock.
	ErrScanInProgress = errors.New("scan already in progress")
)

// StoreWriteError names which persistence target failed. App data loss is
// treated as more severe than scan-metadata loss, so callers distinguish
// targets instead of rolling everything back.
type StoreWriteError struct {
	Target string
	Err    error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed for %s: %v", e.Target, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}
