// Package mock provides a controllable in-memory implementation of the
// MediaDevice interface. It simulates source loading, buffering readiness,
// and playback without touching any audio backend, and exposes scripting
// hooks for exercising the binding layer's race handling in tests.
package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

// Device is a mock implementation of ports.MediaDevice.
//
// By default the device reports readiness immediately after Load. Tests that
// need to hold a load in the buffering state call SetAutoReady(false) and
// later SignalReady or SignalLoadError.
//
// Thread-safety: all operations are safe for concurrent use. Observer
// callbacks are delivered without holding the internal lock.
type Device struct {
	mu       sync.Mutex
	observer ports.DeviceObserver
	closed   bool

	loadedURI string
	playing   bool
	position  time.Duration
	duration  time.Duration
	buffered  []domain.TimeRange
	volume    float64

	autoReady bool
	readyCh   chan struct{}

	playErr error

	loadCalls  []string
	playCalls  int
	pauseCalls int
}

// NewDevice creates a mock device that becomes ready immediately on Load.
func NewDevice() *Device {
	return &Device{
		autoReady: true,
		volume:    1.0,
	}
}

// SetAutoReady controls whether Load resolves readiness immediately.
// With false, WaitReady blocks until SignalReady or SignalLoadError.
func (d *Device) SetAutoReady(auto bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autoReady = auto
}

// SetPlayError configures the error returned by subsequent Play calls
// (nil to succeed).
func (d *Device) SetPlayError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playErr = err
}

// Load implements ports.MediaDevice.
func (d *Device) Load(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.loadedURI = uri
	d.loadCalls = append(d.loadCalls, uri)
	d.playing = false
	d.position = 0
	d.duration = 0
	d.buffered = nil

	if d.readyCh != nil {
		// Wake stale WaitReady callers from the superseded load.
		close(d.readyCh)
		d.readyCh = nil
	}

	if d.autoReady {
		return
	}
	d.readyCh = make(chan struct{})
}

// WaitReady implements ports.MediaDevice.
func (d *Device) WaitReady(ctx context.Context) error {
	d.mu.Lock()
	ch := d.readyCh
	d.mu.Unlock()

	if ch == nil {
		return nil
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SignalReady resolves a pending WaitReady as "buffered enough to play".
func (d *Device) SignalReady() {
	d.resolveReady()
}

// SignalLoadError resolves a pending WaitReady the way a failed load does:
// the wait completes and the subsequent Play returns the given error.
func (d *Device) SignalLoadError(err error) {
	d.mu.Lock()
	d.playErr = err
	d.mu.Unlock()
	d.resolveReady()
}

func (d *Device) resolveReady() {
	d.mu.Lock()
	ch := d.readyCh
	d.readyCh = nil
	d.mu.Unlock()

	if ch != nil {
		close(ch)
	}
}

// Play implements ports.MediaDevice.
func (d *Device) Play(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.playCalls++

	if d.closed {
		return domain.ErrDeviceClosed
	}
	if d.loadedURI == "" {
		return domain.ErrNoSongLoaded
	}
	if d.playErr != nil {
		return d.playErr
	}

	d.playing = true
	return nil
}

// Pause implements ports.MediaDevice.
func (d *Device) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pauseCalls++
	d.playing = false
}

// Position implements ports.MediaDevice.
func (d *Device) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

// SetPosition implements ports.MediaDevice.
func (d *Device) SetPosition(position time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.position = position
}

// Duration implements ports.MediaDevice.
func (d *Device) Duration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duration
}

// Buffered implements ports.MediaDevice.
func (d *Device) Buffered() []domain.TimeRange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.buffered)
}

// SetBuffered scripts the buffered ranges reported by the device.
func (d *Device) SetBuffered(ranges []domain.TimeRange) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buffered = slices.Clone(ranges)
}

// SetVolume implements ports.MediaDevice.
func (d *Device) SetVolume(volume float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = volume
}

// Volume returns the last volume applied to the device.
func (d *Device) Volume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// Attach implements ports.MediaDevice.
func (d *Device) Attach(observer ports.DeviceObserver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer = observer
}

// Close implements ports.MediaDevice.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.playing = false
	return nil
}

// EmitTime advances the simulated position and notifies the observer,
// like a timeupdate event.
func (d *Device) EmitTime(position time.Duration) {
	d.mu.Lock()
	d.position = position
	observer := d.observer
	d.mu.Unlock()

	if observer != nil {
		observer.OnTimeUpdate(position)
	}
}

// EmitMetadata sets the simulated duration and notifies the observer,
// like a loadedmetadata event.
func (d *Device) EmitMetadata(duration time.Duration) {
	d.mu.Lock()
	d.duration = duration
	observer := d.observer
	d.mu.Unlock()

	if observer != nil {
		observer.OnMetadataLoaded(duration)
	}
}

// EmitEnded simulates natural end of playback.
func (d *Device) EmitEnded() {
	d.mu.Lock()
	d.playing = false
	observer := d.observer
	d.mu.Unlock()

	if observer != nil {
		observer.OnEnded()
	}
}

// EmitError simulates a hard device error.
func (d *Device) EmitError(err error) {
	d.mu.Lock()
	d.playing = false
	observer := d.observer
	d.mu.Unlock()

	if observer != nil {
		observer.OnError(err)
	}
}

// LoadedURI returns the URI the device currently points at (for assertions).
func (d *Device) LoadedURI() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadedURI
}

// IsPlaying reports the simulated playback state (for assertions).
func (d *Device) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// LoadCalls returns every URI passed to Load, in order (for assertions).
func (d *Device) LoadCalls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.loadCalls)
}

// PlayCalls returns the number of Play invocations (for assertions).
func (d *Device) PlayCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playCalls
}

// PauseCalls returns the number of Pause invocations (for assertions).
func (d *Device) PauseCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pauseCalls
}

// Verify that Device implements the MediaDevice interface
var _ ports.MediaDevice = (*Device)(nil)
