// Package ports defines interfaces for dependency inversion.
// These interfaces keep the core business logic independent of the concrete
// media backend, persistence medium, and catalog source.
package ports

import (
	"context"
	"time"

	"github.com/niarxxi/webmusic/internal/domain"
)

// DeviceObserver receives asynchronous notifications from a media device.
// Exactly one observer is attached at a time (the media binding layer).
//
// Callbacks may be invoked from device-internal goroutines. Implementations
// must deliver them without holding internal locks: observers are allowed to
// call back into the device while handling a notification (ended → next song
// → load is the normal path).
type DeviceObserver interface {
	// OnTimeUpdate is invoked periodically with the current playback position.
	OnTimeUpdate(position time.Duration)

	// OnMetadataLoaded is invoked once the device knows the authoritative
	// duration of the loaded source.
	OnMetadataLoaded(duration time.Duration)

	// OnEnded is invoked when the loaded source finishes playing naturally.
	OnEnded()

	// OnError is invoked when the device hits a hard failure
	// (bad source, network failure, decode error).
	OnError(err error)
}

// MediaDevice is the single underlying playable-media device. The core owns
// intent (which song, playing or paused, requested position); the device owns
// actual playback. Only the media binding layer touches this interface.
//
// Implementations must be safe for concurrent use: the binding issues calls
// from short-lived synchronization goroutines.
type MediaDevice interface {
	// Load points the device at a new media URI. Any current playback is
	// abandoned. Loading is asynchronous: readiness (or failure) is observed
	// through WaitReady and the attached observer.
	Load(uri string)

	// WaitReady blocks until the device has buffered enough of the loaded
	// source to play through, or until the device reports a load error, or
	// until ctx is done. A load error resolves the wait rather than failing
	// it (the subsequent Play surfaces the failure); the only error returned
	// is ctx.Err() on cancellation.
	WaitReady(ctx context.Context) error

	// Play starts or resumes playback of the loaded source. The request can
	// be rejected asynchronously: ErrAutoplayBlocked and
	// ErrPlaybackInterrupted are benign rejections, any other error is a
	// real playback failure.
	Play(ctx context.Context) error

	// Pause suspends playback, preserving the current position.
	Pause()

	// Position returns the current playback position.
	Position() time.Duration

	// SetPosition seeks to the given position within the loaded source.
	SetPosition(position time.Duration)

	// Duration returns the authoritative duration of the loaded source,
	// or zero while it is unknown.
	Duration() time.Duration

	// Buffered returns the currently buffered time ranges.
	Buffered() []domain.TimeRange

	// SetVolume sets the output volume (0.0 silent to 1.0 full).
	SetVolume(volume float64)

	// Attach registers the observer for device notifications, replacing any
	// previously attached observer.
	Attach(observer DeviceObserver)

	// Close releases device resources. The device is unusable afterwards.
	Close() error
}
