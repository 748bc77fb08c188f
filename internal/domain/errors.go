package domain

import "errors"

// Common errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrNotAuthenticated = errors.New("user not authenticated")
	ErrForbidden        = errors.New("access forbidden: you don't own this resource")

	ErrWorkoutNotFound     = errors.New("workout not found")
	ErrWorkoutItemNotFound = errors.New("workout item not found")
	ErrSessionNotFound     = errors.New("workout session not found")
	ErrSessionItemNotFound = errors.New("session item not found")

	// ErrSessionActive is returned when starting a session while another
	// in_progress session exists for the user.
	ErrSessionActive = errors.New("a workout session is already in progress")
	// ErrOperationInFlight is returned when a start/resume/finish is rejected
	// because another one is still running.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrWorkoutHasNoItems is returned by start when the workout has zero
	// items; the caller is expected to send the user to the workout editor.
	ErrWorkoutHasNoItems = errors.New("workout has no items")
	// ErrOffline is returned by operations that cannot be deferred to the
	// sync queue when the remote store is unreachable.
	ErrOffline = errors.New("remote store unreachable")
)
