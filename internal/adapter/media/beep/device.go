// Package beep implements the MediaDevice interface on top of the gopxl/beep
// audio stack. Sources are fetched fully into memory (HTTP or local file),
// decoded as MP3 and driven through the speaker package, so Buffered always
// reports the whole track once the load completes.
package beep

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

const (
	// speakerSampleRate is the fixed output rate; decoded streams are
	// resampled to it so the speaker is initialised exactly once.
	speakerSampleRate = gobeep.SampleRate(44100)

	// positionInterval is how often OnTimeUpdate fires during playback.
	positionInterval = 500 * time.Millisecond

	fetchTimeout = 30 * time.Second
)

// Device is a MediaDevice backed by gopxl/beep.
//
// Load is asynchronous: it kicks off a fetch+decode goroutine and returns
// immediately, matching the non-blocking load contract. Each Load bumps an
// internal generation so a slow fetch that finishes after a newer Load is
// discarded.
type Device struct {
	logger *slog.Logger
	client *http.Client

	mu          sync.Mutex
	observer    ports.DeviceObserver
	closed      bool
	initialized bool

	loadGen  uint64
	loadURI  string
	loadErr  error
	readyCh  chan struct{}
	streamer gobeep.StreamSeekCloser
	format   gobeep.Format
	ctrl     *gobeep.Ctrl
	volume   *effects.Volume
	started  bool

	volumeLevel float64

	tickerStop chan struct{}
	tickerWG   sync.WaitGroup
}

// NewDevice creates an idle beep-backed device. The speaker is initialised
// lazily on the first successful Play.
func NewDevice(logger *slog.Logger) *Device {
	d := &Device{
		logger:      logger,
		client:      &http.Client{Timeout: fetchTimeout},
		volumeLevel: 1.0,
		tickerStop:  make(chan struct{}),
	}

	d.tickerWG.Add(1)
	go d.positionLoop()

	return d
}

// Load implements ports.MediaDevice.
func (d *Device) Load(uri string) {
	d.mu.Lock()

	d.stopLocked()
	d.loadGen++
	gen := d.loadGen
	d.loadURI = uri
	d.loadErr = nil
	d.readyCh = make(chan struct{})

	d.mu.Unlock()

	go d.fetchAndDecode(gen, uri)
}

func (d *Device) fetchAndDecode(gen uint64, uri string) {
	data, err := d.fetch(uri)

	var (
		streamer gobeep.StreamSeekCloser
		format   gobeep.Format
	)
	if err == nil {
		streamer, format, err = mp3.Decode(nopCloser{bytes.NewReader(data)})
		if err != nil {
			err = domain.NewDeviceError("decode", uri, err)
		}
	}

	d.mu.Lock()
	if gen != d.loadGen || d.closed {
		d.mu.Unlock()
		if streamer != nil {
			streamer.Close()
		}
		return
	}

	d.loadErr = err
	d.streamer = streamer
	d.format = format
	ready := d.readyCh
	d.readyCh = nil
	observer := d.observer
	duration := time.Duration(0)
	if err == nil {
		duration = format.SampleRate.D(streamer.Len())
	}
	d.mu.Unlock()

	if ready != nil {
		close(ready)
	}

	if err != nil {
		d.logger.Warn("media load failed", "uri", uri, "error", err)
		if observer != nil {
			observer.OnError(err)
		}
		return
	}

	d.logger.Debug("media loaded", "uri", uri, "duration", duration)
	if observer != nil {
		observer.OnMetadataLoaded(duration)
	}
}

func (d *Device) fetch(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		resp, err := d.client.Get(uri)
		if err != nil {
			return nil, domain.NewDeviceError("fetch", uri, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, domain.NewDeviceError("fetch", uri, fmt.Errorf("unexpected status %s", resp.Status))
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, domain.NewDeviceError("fetch", uri, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(uri)
	if err != nil {
		return nil, domain.NewDeviceError("read", uri, err)
	}
	return data, nil
}

// WaitReady implements ports.MediaDevice. It resolves once the source is
// decoded or the load has failed; a failed load is surfaced by Play.
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

// Play implements ports.MediaDevice.
func (d *Device) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return domain.ErrDeviceClosed
	}
	if d.loadErr != nil {
		return d.loadErr
	}
	if d.streamer == nil {
		return domain.ErrNoSongLoaded
	}

	// Resuming the stream that is already wired to the speaker.
	if d.started {
		speaker.Lock()
		d.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}

	if !d.initialized {
		if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
			return domain.NewDeviceError("init", d.loadURI, err)
		}
		d.initialized = true
	}

	resampled := gobeep.Resample(4, d.format.SampleRate, speakerSampleRate, d.streamer)
	d.ctrl = &gobeep.Ctrl{Streamer: resampled}
	d.volume = &effects.Volume{Streamer: d.ctrl, Base: 2}
	d.applyVolumeLocked()
	d.started = true

	gen := d.loadGen
	speaker.Play(gobeep.Seq(d.volume, gobeep.Callback(func() {
		// The callback runs on the speaker goroutine; hop off it before
		// re-entering the device so Next can load the following song.
		go d.handleEnded(gen)
	})))

	return nil
}

func (d *Device) handleEnded(gen uint64) {
	d.mu.Lock()
	if gen != d.loadGen || d.closed {
		d.mu.Unlock()
		return
	}
	observer := d.observer
	d.mu.Unlock()

	if observer != nil {
		observer.OnEnded()
	}
}

// Pause implements ports.MediaDevice.
func (d *Device) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Position implements ports.MediaDevice.
func (d *Device) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positionLocked()
}

func (d *Device) positionLocked() time.Duration {
	if d.streamer == nil {
		return 0
	}

	speaker.Lock()
	pos := d.streamer.Position()
	speaker.Unlock()

	return d.format.SampleRate.D(pos)
}

// SetPosition implements ports.MediaDevice.
func (d *Device) SetPosition(position time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return
	}

	speaker.Lock()
	err := d.streamer.Seek(d.format.SampleRate.N(position))
	speaker.Unlock()

	if err != nil {
		d.logger.Warn("seek failed", "uri", d.loadURI, "position", position, "error", err)
	}
}

// Duration implements ports.MediaDevice.
func (d *Device) Duration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return 0
	}
	return d.format.SampleRate.D(d.streamer.Len())
}

// Buffered implements ports.MediaDevice. The source is held fully in memory,
// so the buffered set is either empty or the entire track.
func (d *Device) Buffered() []domain.TimeRange {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return nil
	}
	return []domain.TimeRange{{Start: 0, End: d.format.SampleRate.D(d.streamer.Len())}}
}

// SetVolume implements ports.MediaDevice. The linear 0..1 level is mapped to
// an exponential gain so the low end of the range stays usable.
func (d *Device) SetVolume(volume float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.volumeLevel = math.Min(math.Max(volume, 0), 1)
	d.applyVolumeLocked()
}

func (d *Device) applyVolumeLocked() {
	if d.volume == nil {
		return
	}

	speaker.Lock()
	if d.volumeLevel <= 0 {
		d.volume.Silent = true
	} else {
		d.volume.Silent = false
		d.volume.Volume = math.Log2(d.volumeLevel)
	}
	speaker.Unlock()
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
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.stopLocked()
	initialized := d.initialized
	d.mu.Unlock()

	close(d.tickerStop)
	d.tickerWG.Wait()

	if initialized {
		speaker.Clear()
	}
	return nil
}

// stopLocked tears down the current stream. Caller holds d.mu.
func (d *Device) stopLocked() {
	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
	if d.streamer != nil {
		d.streamer.Close()
		d.streamer = nil
	}
	d.ctrl = nil
	d.volume = nil
	d.started = false
	if d.readyCh != nil {
		// Wake stale WaitReady callers; they re-check their generation
		// and bail out.
		close(d.readyCh)
		d.readyCh = nil
	}
	d.loadErr = nil
}

// positionLoop periodically reports the playback position while the stream
// is running.
func (d *Device) positionLoop() {
	defer d.tickerWG.Done()

	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.tickerStop:
			return
		case <-ticker.C:
			d.mu.Lock()
			playing := d.started && d.ctrl != nil
			if playing {
				speaker.Lock()
				playing = !d.ctrl.Paused
				speaker.Unlock()
			}
			var pos time.Duration
			if playing {
				pos = d.positionLocked()
			}
			observer := d.observer
			d.mu.Unlock()

			if playing && observer != nil {
				observer.OnTimeUpdate(pos)
			}
		}
	}
}

// nopCloser adapts a bytes.Reader to the io.ReadCloser the decoder wants.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }

// Verify that Device implements the MediaDevice interface
var _ ports.MediaDevice = (*Device)(nil)
