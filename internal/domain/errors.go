package domain

import "errors"

var (
	// ErrUserNotFound is returned by a UserStore when no credential matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidMarkerID is returned when a marker ID cannot be parsed by the store.
	ErrInvalidMarkerID = errors.New("invalid marker id")

	// ErrNoResult is returned by upstream clients that answered successfully
	// but had nothing for the requested coordinate.
	ErrNoResult = errors.New("no result")
)

// ErrCycleInProgress is returned when a refresh cycle is requested while
// another one is still running and overlap is disabled.
var ErrCycleInProgress = errors.New("refresh cycle already in progress")
