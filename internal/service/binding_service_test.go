package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niarxxi/webmusic/internal/adapter/catalog"
	"github.com/niarxxi/webmusic/internal/adapter/eventbus"
	"github.com/niarxxi/webmusic/internal/adapter/media/mock"
	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/logger"
	"github.com/niarxxi/webmusic/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// Helper to create the full playback stack bound to a mock device.
func newTestBinding(t *testing.T) (*BindingService, *PlayerService, *mock.Device, *eventbus.SyncEventBus) {
	t.Helper()

	log := logger.NewTestLogger()
	catalogService, err := NewCatalogService(log, catalog.NewStaticSource(testSongs()))
	require.NoError(t, err)

	bus := eventbus.NewSyncEventBus()
	playlistService := NewPlaylistService(log, catalogService, bus)
	playerService := NewPlayerService(log, catalogService, playlistService, bus)
	device := mock.NewDevice()
	binding := NewBindingService(log, device, playerService, bus)

	t.Cleanup(func() {
		_ = binding.Shutdown()
		_ = playerService.Shutdown()
	})

	return binding, playerService, device, bus
}

func TestBindingService_PlayLoadsAndStarts(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, bus := newTestBinding(t)
	recorder := recordEvents(bus)

	song := testSongs()[0]
	player.PlaySong(song)

	require.Eventually(t, device.IsPlaying, waitFor, tick)
	assert.Equal(t, []string{song.Path}, device.LoadCalls())

	// A new source always reports position zero immediately.
	positions := recorder.ofType(domain.EventPositionChanged)
	require.NotEmpty(t, positions)
	assert.Equal(t, time.Duration(0), positions[0].(domain.PositionChangedEvent).Position)
}

func TestBindingService_SameSongNeverReloads(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, _ := newTestBinding(t)

	song := testSongs()[0]
	player.PlaySong(song)
	require.Eventually(t, device.IsPlaying, waitFor, tick)

	device.SetPosition(42 * time.Second)
	player.PlaySong(song)

	require.Eventually(t, device.IsPlaying, waitFor, tick)
	assert.Len(t, device.LoadCalls(), 1, "re-selecting the bound song must not reload")
	assert.Equal(t, 42*time.Second, device.Position(), "position survives a same-song replay")
}

func TestBindingService_PauseKeepsSourceAndPosition(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, _ := newTestBinding(t)

	song := testSongs()[0]
	player.PlaySong(song)
	require.Eventually(t, device.IsPlaying, waitFor, tick)
	device.SetPosition(10 * time.Second)

	player.TogglePlay() // pause

	require.Eventually(t, func() bool { return !device.IsPlaying() }, waitFor, tick)
	assert.Len(t, device.LoadCalls(), 1)
	assert.Equal(t, 10*time.Second, device.Position())

	player.TogglePlay() // resume from the same spot

	require.Eventually(t, device.IsPlaying, waitFor, tick)
	assert.Len(t, device.LoadCalls(), 1)
	assert.Equal(t, 10*time.Second, device.Position())
}

func TestBindingService_SwitchingSongsResets(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, _ := newTestBinding(t)

	songs := testSongs()
	player.PlaySong(songs[0])
	require.Eventually(t, device.IsPlaying, waitFor, tick)
	device.SetPosition(30 * time.Second)

	player.PlaySong(songs[1])

	require.Eventually(t, func() bool { return device.LoadedURI() == songs[1].Path }, waitFor, tick)
	require.Eventually(t, device.IsPlaying, waitFor, tick)
	assert.Equal(t, []string{songs[0].Path, songs[1].Path}, device.LoadCalls())
	assert.Equal(t, time.Duration(0), device.Position())
}

func TestBindingService_StaleLoadIsAbandoned(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, _ := newTestBinding(t)

	// Hold readiness open so the first transition stays in flight while a
	// second one supersedes it.
	device.SetAutoReady(false)

	songs := testSongs()
	player.PlaySong(songs[0])
	player.PlaySong(songs[1])

	device.SignalReady()

	require.Eventually(t, device.IsPlaying, waitFor, tick)
	assert.Equal(t, songs[1].Path, device.LoadedURI())
	assert.Equal(t, 1, device.PlayCalls(), "the superseded transition must never issue Play")

	require.NotNil(t, player.CurrentSong())
	assert.Equal(t, songs[1].ID, player.CurrentSong().ID)
}

func TestBindingService_BufferingEventsAroundLoad(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, bus := newTestBinding(t)
	recorder := recordEvents(bus)

	device.SetAutoReady(false)
	player.PlaySong(testSongs()[0])

	require.Eventually(t, func() bool {
		return len(recorder.ofType(domain.EventBufferingChanged)) >= 1
	}, waitFor, tick)

	device.SignalReady()
	require.Eventually(t, device.IsPlaying, waitFor, tick)

	buffering := recorder.ofType(domain.EventBufferingChanged)
	require.Len(t, buffering, 2)
	assert.True(t, buffering[0].(domain.BufferingChangedEvent).Buffering)
	assert.False(t, buffering[1].(domain.BufferingChangedEvent).Buffering)
}

func TestBindingService_RejectedPlayFlipsIntent(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, bus := newTestBinding(t)
	recorder := recordEvents(bus)

	playErr := errors.New("codec not supported")
	device.SetPlayError(playErr)

	player.PlaySong(testSongs()[0])

	require.Eventually(t, func() bool { return !player.IsPlaying() }, waitFor, tick)

	failures := recorder.ofType(domain.EventPlaybackError)
	require.Len(t, failures, 1)
	failure := failures[0].(domain.PlaybackErrorEvent)
	require.NotNil(t, failure.Song)
	assert.Equal(t, "1", failure.Song.ID)
	assert.ErrorIs(t, failure.Err, playErr)
}

func TestBindingService_BenignRejectionIsSwallowed(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, bus := newTestBinding(t)
	recorder := recordEvents(bus)

	device.SetPlayError(domain.ErrAutoplayBlocked)

	player.PlaySong(testSongs()[0])

	require.Eventually(t, func() bool { return device.PlayCalls() >= 1 }, waitFor, tick)

	// Intent stays playing and no error surfaces: the user sees a player
	// that is ready to start on the next direct interaction.
	assert.Never(t, func() bool {
		return !player.IsPlaying() || len(recorder.ofType(domain.EventPlaybackError)) > 0
	}, 100*time.Millisecond, tick)
}

func TestBindingService_FailedLoadResolvesAndRejects(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, _ := newTestBinding(t)

	device.SetAutoReady(false)
	player.PlaySong(testSongs()[0])

	// The failed load resolves the readiness wait; the failure then
	// surfaces through Play instead of hanging the transition forever.
	device.SignalLoadError(domain.NewDeviceError("load", "/music/alpha.mp3", errors.New("404")))

	require.Eventually(t, func() bool { return !player.IsPlaying() }, waitFor, tick)
	assert.False(t, device.IsPlaying())
}

func TestBindingService_SongClearedUnbindsDevice(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, _ := newTestBinding(t)

	player.PlaySong(testSongs()[0]) // K-Pop
	require.Eventually(t, device.IsPlaying, waitFor, tick)

	// Filtering the playing song out clears the current song; the device
	// must stop and later intent flips must not resurrect it.
	player.SetCategory("Rock")

	require.Eventually(t, func() bool { return !device.IsPlaying() }, waitFor, tick)
	playsBefore := device.PlayCalls()

	player.TogglePlay()

	assert.Never(t, func() bool { return device.PlayCalls() > playsBefore }, 100*time.Millisecond, tick)
}

func TestBindingService_EndedAdvancesToNextSong(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, bus := newTestBinding(t)

	songs := testSongs()
	player.PlaySong(songs[0])
	require.Eventually(t, device.IsPlaying, waitFor, tick)
	recorder := recordEvents(bus)

	device.EmitEnded()

	require.Eventually(t, func() bool { return device.LoadedURI() == songs[1].Path }, waitFor, tick)
	require.Eventually(t, device.IsPlaying, waitFor, tick)

	require.NotNil(t, player.CurrentSong())
	assert.Equal(t, "2", player.CurrentSong().ID)

	ended := recorder.ofType(domain.EventPlaybackEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "1", ended[0].(domain.PlaybackEndedEvent).Song.ID)
}

func TestBindingService_EndedAtBoundaryHolds(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, _ := newTestBinding(t)

	songs := testSongs()
	player.PlaySong(songs[len(songs)-1])
	require.Eventually(t, device.IsPlaying, waitFor, tick)

	device.EmitEnded()

	// No loop: Next holds, nothing reloads, the device stays stopped.
	assert.Never(t, device.IsPlaying, 100*time.Millisecond, tick)
	assert.Equal(t, "5", player.CurrentSong().ID)
	assert.Len(t, device.LoadCalls(), 1)
}

func TestBindingService_DeviceErrorForcesPause(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, bus := newTestBinding(t)
	recorder := recordEvents(bus)

	player.PlaySong(testSongs()[0])
	require.Eventually(t, device.IsPlaying, waitFor, tick)

	device.EmitError(errors.New("network stall"))

	require.Eventually(t, func() bool { return !player.IsPlaying() }, waitFor, tick)
	assert.NotEmpty(t, recorder.ofType(domain.EventPlaybackError))
}

func TestBindingService_TimeAndMetadataFlowThrough(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	_, player, device, bus := newTestBinding(t)

	player.PlaySong(testSongs()[0])
	require.Eventually(t, device.IsPlaying, waitFor, tick)
	recorder := recordEvents(bus)

	device.EmitMetadata(3 * time.Minute)
	device.EmitTime(12 * time.Second)

	durations := recorder.ofType(domain.EventDurationChanged)
	require.Len(t, durations, 1)
	assert.Equal(t, 3*time.Minute, durations[0].(domain.DurationChangedEvent).Duration)

	positions := recorder.ofType(domain.EventPositionChanged)
	require.Len(t, positions, 1)
	assert.Equal(t, 12*time.Second, positions[0].(domain.PositionChangedEvent).Position)
}

func TestBindingService_Seek(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	binding, player, device, bus := newTestBinding(t)

	player.PlaySong(testSongs()[0])
	require.Eventually(t, device.IsPlaying, waitFor, tick)
	recorder := recordEvents(bus)

	binding.Seek(90 * time.Second)

	assert.Equal(t, 90*time.Second, device.Position())
	positions := recorder.ofType(domain.EventPositionChanged)
	require.Len(t, positions, 1)
	assert.Equal(t, 90*time.Second, positions[0].(domain.PositionChangedEvent).Position)
}

func TestBindingService_VolumeAndMute(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	binding, _, device, _ := newTestBinding(t)

	// Construction applies the default volume.
	assert.InDelta(t, 0.7, device.Volume(), 0.001)

	binding.SetVolume(1.5)
	assert.InDelta(t, 1.0, binding.Volume(), 0.001)

	binding.SetVolume(0.4)
	assert.InDelta(t, 0.4, device.Volume(), 0.001)

	binding.Mute(true)
	assert.True(t, binding.IsMuted())
	assert.InDelta(t, 0.0, device.Volume(), 0.001)

	binding.Mute(false)
	assert.False(t, binding.IsMuted())
	assert.InDelta(t, 0.4, device.Volume(), 0.001, "unmute restores the saved volume")
}

func TestBindingService_SetVolumeWhileMuted(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	binding, _, device, _ := newTestBinding(t)

	binding.SetVolume(0.5)
	binding.Mute(true)
	binding.SetVolume(0.9)

	// The device stays silenced; the new value applies on unmute.
	assert.InDelta(t, 0.0, device.Volume(), 0.001)

	binding.Mute(false)
	assert.InDelta(t, 0.9, device.Volume(), 0.001)
}
