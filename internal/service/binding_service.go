package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

// BindingService synchronizes the store's playback intent with the single
// underlying media device. It is the only component that touches the device.
//
// The binding observes SongChanged and PlayIntent events and drives the
// device accordingly:
//
//   - a change to a different song resets the reported position to zero,
//     stops current playback, points the device at the new source, and (when
//     intent is playing) waits for the device to buffer enough to play
//     through before issuing Play;
//   - re-selecting the same song never reloads the source or resets time,
//     it only starts or stops playback.
//
// Asynchronous device work is guarded by a generation counter rather than
// true cancellation: every SongChanged/PlayIntent transition bumps the
// generation, and every async continuation re-checks that its generation is
// still current before touching shared state. An in-flight load/play tied to
// song A therefore never acts on the device after the user has switched to
// song B.
type BindingService struct {
	// Dependencies (injected)
	logger *slog.Logger
	device ports.MediaDevice
	player *PlayerService
	bus    ports.EventBus

	// generation identifies the latest intent transition. Async
	// continuations compare against it before acting.
	generation atomic.Uint64

	// State
	loadedURI   string
	volume      float64
	savedVolume float64 // Volume before mute
	muted       bool

	mu sync.Mutex
	wg sync.WaitGroup

	// Event subscriptions
	songSub   domain.SubscriptionID
	intentSub domain.SubscriptionID
}

// NewBindingService creates the media binding and attaches it to the device.
func NewBindingService(
	logger *slog.Logger,
	device ports.MediaDevice,
	player *PlayerService,
	bus ports.EventBus,
) *BindingService {
	s := &BindingService{
		logger: logger,
		device: device,
		player: player,
		bus:    bus,
		volume: 0.7, // Default volume, mirrors the slider default
	}

	device.SetVolume(s.volume)
	device.Attach(s)

	s.songSub = bus.Subscribe(domain.EventSongChanged, s.handleSongChanged)
	s.intentSub = bus.Subscribe(domain.EventPlayIntent, s.handlePlayIntent)

	return s
}

// handleSongChanged reacts to the current song changing.
func (s *BindingService) handleSongChanged(event domain.Event) {
	e, ok := event.(domain.SongChangedEvent)
	if !ok {
		return
	}

	// Every transition supersedes whatever was in flight.
	gen := s.generation.Add(1)

	if e.Song == nil {
		// Playback cleared (filter excluded the playing song).
		s.mu.Lock()
		s.loadedURI = ""
		s.mu.Unlock()

		s.device.Pause()
		s.bus.Publish(domain.NewPositionChangedEvent(0))
		return
	}

	song := *e.Song

	s.mu.Lock()
	sameSong := s.loadedURI == song.Path
	s.loadedURI = song.Path
	s.mu.Unlock()

	if !sameSong {
		s.device.Pause()
		s.device.Load(song.Path)
		s.bus.Publish(domain.NewPositionChangedEvent(0))
	}

	if !e.WantPlay {
		if sameSong {
			s.device.Pause()
		}
		return
	}

	s.wg.Add(1)
	go s.startPlayback(gen, song, !sameSong)
}

// handlePlayIntent reacts to play/pause toggles for the already-bound song.
func (s *BindingService) handlePlayIntent(event domain.Event) {
	e, ok := event.(domain.PlayIntentEvent)
	if !ok {
		return
	}

	gen := s.generation.Add(1)

	s.mu.Lock()
	loaded := s.loadedURI
	s.mu.Unlock()

	if loaded == "" {
		// Intent flipped with no media bound: nothing to drive.
		return
	}

	if !e.Playing {
		// Pause preserves position: the source is never reloaded or reset.
		s.device.Pause()
		return
	}

	song := s.player.CurrentSong()
	if song == nil {
		return
	}

	s.wg.Add(1)
	go s.startPlayback(gen, *song, false)
}

// startPlayback performs the asynchronous part of a playback transition:
// wait for readiness (new source only), then issue Play. It runs on its own
// goroutine and abandons itself the moment a newer transition exists.
func (s *BindingService) startPlayback(gen uint64, song domain.Song, waitReady bool) {
	defer s.wg.Done()

	ctx := context.Background()

	if waitReady {
		s.bus.Publish(domain.NewBufferingChangedEvent(true))
		// Resolves on ready or on a device error; a broken source surfaces
		// through the Play below rather than hanging the wait forever.
		if err := s.device.WaitReady(ctx); err != nil {
			return
		}
		s.bus.Publish(domain.NewBufferingChangedEvent(false))
	}

	if !s.isCurrent(gen) {
		return
	}

	err := s.device.Play(ctx)
	if err == nil {
		return
	}

	if !s.isCurrent(gen) {
		// A newer transition superseded this one; its own sync owns the
		// device now and this failure is stale noise.
		return
	}

	if domain.IsBenignRejection(err) {
		s.logger.Debug("play rejection swallowed",
			slog.String("song", song.ID),
			slog.Any("error", err))
		return
	}

	s.logger.Warn("playback rejected",
		slog.String("song", song.ID),
		slog.Any("error", err))

	// Reflect actual device state back into intent so the UI matches.
	s.player.SetPlaying(false)
	s.bus.Publish(domain.NewPlaybackErrorEvent(&song, err))
}

// isCurrent reports whether the generation is still the latest transition.
func (s *BindingService) isCurrent(gen uint64) bool {
	return s.generation.Load() == gen
}

// Seek moves playback to the given position within the current song.
func (s *BindingService) Seek(position time.Duration) {
	s.device.SetPosition(position)
	s.bus.Publish(domain.NewPositionChangedEvent(position))
}

// Position returns the device's current playback position.
func (s *BindingService) Position() time.Duration {
	return s.device.Position()
}

// Duration returns the authoritative duration reported by the device,
// or zero while unknown.
func (s *BindingService) Duration() time.Duration {
	return s.device.Duration()
}

// Buffered returns the device's buffered time ranges.
func (s *BindingService) Buffered() []domain.TimeRange {
	return s.device.Buffered()
}

// SetVolume sets the output volume (0.0 to 1.0). While muted, the value is
// remembered and applied on unmute.
func (s *BindingService) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	s.mu.Lock()
	s.volume = volume
	muted := s.muted
	if muted {
		s.savedVolume = volume
	}
	s.mu.Unlock()

	if !muted {
		s.device.SetVolume(volume)
	}
	s.bus.Publish(domain.NewVolumeChangedEvent(volume))
}

// Volume returns the current volume setting.
func (s *BindingService) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Mute silences or restores output without losing the volume setting.
func (s *BindingService) Mute(mute bool) {
	s.mu.Lock()
	if s.muted == mute {
		s.mu.Unlock()
		return
	}
	s.muted = mute

	target := s.volume
	if mute {
		s.savedVolume = s.volume
		target = 0
	} else {
		target = s.savedVolume
		s.volume = target
	}
	s.mu.Unlock()

	s.device.SetVolume(target)
	s.bus.Publish(domain.NewMuteToggledEvent(mute))
}

// IsMuted reports whether output is muted.
func (s *BindingService) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Shutdown detaches from the bus and waits for in-flight device work.
func (s *BindingService) Shutdown() error {
	s.bus.Unsubscribe(s.songSub)
	s.bus.Unsubscribe(s.intentSub)

	// Supersede anything still in flight, then wait it out.
	s.generation.Add(1)
	s.wg.Wait()

	s.device.Pause()
	return nil
}

// OnTimeUpdate implements ports.DeviceObserver.
func (s *BindingService) OnTimeUpdate(position time.Duration) {
	s.bus.Publish(domain.NewPositionChangedEvent(position))
}

// OnMetadataLoaded implements ports.DeviceObserver.
func (s *BindingService) OnMetadataLoaded(duration time.Duration) {
	s.bus.Publish(domain.NewDurationChangedEvent(duration))
}

// OnEnded implements ports.DeviceObserver. Natural end of playback drives
// the queue engine forward; at the boundary without loop, Next holds and
// playback simply stops.
func (s *BindingService) OnEnded() {
	if song := s.player.CurrentSong(); song != nil {
		s.bus.Publish(domain.NewPlaybackEndedEvent(*song))
	}
	s.player.Next()
}

// OnError implements ports.DeviceObserver. A hard device error forces the
// intent to paused and surfaces a non-fatal playback error; the user may
// retry by re-selecting the song.
func (s *BindingService) OnError(err error) {
	s.logger.Warn("media device error", slog.Any("error", err))
	s.player.SetPlaying(false)
	s.bus.Publish(domain.NewPlaybackErrorEvent(s.player.CurrentSong(), err))
}

// Verify that BindingService implements the observer contract
var _ ports.DeviceObserver = (*BindingService)(nil)
