// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and adapters can return.
var (
	// ErrKeyNotFound is returned when a persisted key has no value.
	ErrKeyNotFound = errors.New("key not found")

	// ErrSongNotFound is returned when a requested song cannot be found.
	ErrSongNotFound = errors.New("song not found")

	// ErrPlaylistNotFound is returned when a requested playlist doesn't exist.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrNoArtwork is returned when an audio file carries no embedded picture.
	ErrNoArtwork = errors.New("no embedded artwork")

	// ErrEngineNotReady is returned when a transport call is made before Setup.
	ErrEngineNotReady = errors.New("playback engine not ready")

	// ErrAlreadySetup is returned when Setup is called on a running engine.
	ErrAlreadySetup = errors.New("playback engine already setup")

	// ErrQueueEmpty is returned when transport is attempted on an empty queue.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrEndOfQueue is returned when skipping past the end of the queue.
	ErrEndOfQueue = errors.New("end of queue reached")

	// ErrStartOfQueue is returned when skipping before the start of the queue.
	ErrStartOfQueue = errors.New("start of queue reached")

	// ErrInvalidIndex is returned when a queue index is out of bounds.
	ErrInvalidIndex = errors.New("invalid queue index")

	// ErrPermissionDenied is returned when media access is not granted.
	ErrPermissionDenied = errors.New("media access permission denied")

	// ErrEmptyName is returned when a playlist name is empty after trimming.
	ErrEmptyName = errors.New("name is empty")
)

// RepositoryError wraps persistence layer failures with context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g. "get", "set")
	Key     string // Persisted key (if applicable)
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("repository %s failed for %q: %s", e.Op, e.Key, e.Message)
	}
	return fmt.Sprintf("repository %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, key, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Key:     key,
		Message: message,
		Err:     err,
	}
}

// ServiceError wraps a service layer failure with context.
type ServiceError struct {
	Service string // Service name (e.g. "LibraryService")
	Op      string // Operation that failed
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
