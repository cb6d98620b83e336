// Package domain defines domain-specific errors.
// Nothing in this core is fatal: every failure degrades to "no playback"
// or a silent no-op, never to a crashed session.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services and adapters can return.
var (
	// ErrAutoplayBlocked is returned by a media device when playback was
	// refused by a user-interaction policy. Benign: swallowed by the
	// binding layer without surfacing to the user.
	ErrAutoplayBlocked = errors.New("playback blocked by autoplay policy")

	// ErrPlaybackInterrupted is returned when an in-flight play request was
	// aborted by an immediately superseding source change. Benign: swallowed.
	ErrPlaybackInterrupted = errors.New("playback interrupted by source change")

	// ErrPlaybackRejected is returned when the device refused to start
	// playback for any non-benign reason. The binding layer flips intent
	// back to paused and surfaces a non-fatal notice.
	ErrPlaybackRejected = errors.New("playback rejected by device")

	// ErrNoSongLoaded is returned when a device operation requires a loaded source.
	ErrNoSongLoaded = errors.New("no song loaded")

	// ErrSongNotFound is returned when a requested song is absent from the catalog.
	ErrSongNotFound = errors.New("song not found")

	// ErrPlaylistNotFound is returned when a requested playlist does not exist.
	// Mutations referencing a missing playlist are silent no-ops instead.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrNoSnapshot is returned by a state repository when nothing has been
	// persisted yet. Callers fall back to DefaultSnapshot.
	ErrNoSnapshot = errors.New("no persisted snapshot")

	// ErrDeviceClosed is returned when an operation is attempted on a
	// media device that has been shut down.
	ErrDeviceClosed = errors.New("media device closed")
)

// DeviceError represents a hard failure reported by the media device
// (bad source, network failure, decode error). It forces paused intent and
// surfaces a non-fatal notice; the user may retry by re-selecting the song.
type DeviceError struct {
	Op  string // Operation that failed (e.g., "load", "play")
	URI string // Media URI (if applicable)
	Err error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("media device %s failed for %q: %v", e.Op, e.URI, e.Err)
	}
	return fmt.Sprintf("media device %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewDeviceError creates a new DeviceError.
func NewDeviceError(op, uri string, err error) *DeviceError {
	return &DeviceError{Op: op, URI: uri, Err: err}
}

// RepositoryError wraps persistence-layer failures with context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("state repository %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, message string, err error) *RepositoryError {
	return &RepositoryError{Op: op, Message: message, Err: err}
}

// IsBenignRejection reports whether a play rejection should be swallowed
// rather than surfaced: autoplay-policy refusals and interruptions caused
// by a superseding source change.
func IsBenignRejection(err error) bool {
	return errors.Is(err, ErrAutoplayBlocked) || errors.Is(err, ErrPlaybackInterrupted)
}
