package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

// recordingObserver captures observer callbacks for assertions.
type recordingObserver struct {
	times     []time.Duration
	durations []time.Duration
	ended     int
	errs      []error
}

func (o *recordingObserver) OnTimeUpdate(position time.Duration)    { o.times = append(o.times, position) }
func (o *recordingObserver) OnMetadataLoaded(duration time.Duration) { o.durations = append(o.durations, duration) }
func (o *recordingObserver) OnEnded()                                { o.ended++ }
func (o *recordingObserver) OnError(err error)                       { o.errs = append(o.errs, err) }

var _ ports.DeviceObserver = (*recordingObserver)(nil)

func TestDevice_LoadResetsState(t *testing.T) {
	device := NewDevice()

	device.Load("/a.mp3")
	require.NoError(t, device.Play(context.Background()))
	device.SetPosition(30 * time.Second)

	device.Load("/b.mp3")

	assert.Equal(t, "/b.mp3", device.LoadedURI())
	assert.False(t, device.IsPlaying())
	assert.Equal(t, time.Duration(0), device.Position())
	assert.Equal(t, []string{"/a.mp3", "/b.mp3"}, device.LoadCalls())
}

func TestDevice_PlayWithoutLoad(t *testing.T) {
	device := NewDevice()

	err := device.Play(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSongLoaded)
}

func TestDevice_WaitReadyAutoReady(t *testing.T) {
	device := NewDevice()
	device.Load("/a.mp3")

	assert.NoError(t, device.WaitReady(context.Background()))
}

func TestDevice_WaitReadyManual(t *testing.T) {
	device := NewDevice()
	device.SetAutoReady(false)
	device.Load("/a.mp3")

	done := make(chan error, 1)
	go func() {
		done <- device.WaitReady(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("WaitReady resolved before SignalReady")
	case <-time.After(20 * time.Millisecond):
	}

	device.SignalReady()
	require.NoError(t, <-done)
}

func TestDevice_WaitReadyContextCancel(t *testing.T) {
	device := NewDevice()
	device.SetAutoReady(false)
	device.Load("/a.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, device.WaitReady(ctx), context.Canceled)
}

func TestDevice_SignalLoadErrorResolvesAndFailsPlay(t *testing.T) {
	device := NewDevice()
	device.SetAutoReady(false)
	device.Load("/broken.mp3")

	loadErr := errors.New("bad source")
	device.SignalLoadError(loadErr)

	require.NoError(t, device.WaitReady(context.Background()), "a failed load still resolves the wait")
	assert.ErrorIs(t, device.Play(context.Background()), loadErr)
	assert.False(t, device.IsPlaying())
}

func TestDevice_SupersedingLoadWakesWaiters(t *testing.T) {
	device := NewDevice()
	device.SetAutoReady(false)
	device.Load("/a.mp3")

	done := make(chan error, 1)
	go func() {
		done <- device.WaitReady(context.Background())
	}()

	device.Load("/b.mp3")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stale WaitReady was not woken by the superseding load")
	}
}

func TestDevice_EmitCallbacks(t *testing.T) {
	device := NewDevice()
	observer := &recordingObserver{}
	device.Attach(observer)

	device.Load("/a.mp3")
	require.NoError(t, device.Play(context.Background()))

	device.EmitMetadata(3 * time.Minute)
	device.EmitTime(5 * time.Second)
	device.EmitEnded()

	assert.Equal(t, []time.Duration{5 * time.Second}, observer.times)
	assert.Equal(t, []time.Duration{3 * time.Minute}, observer.durations)
	assert.Equal(t, 1, observer.ended)
	assert.False(t, device.IsPlaying(), "ended playback stops the device")

	failure := errors.New("boom")
	device.EmitError(failure)
	require.Len(t, observer.errs, 1)
	assert.ErrorIs(t, observer.errs[0], failure)
}

func TestDevice_ClosedRejectsPlay(t *testing.T) {
	device := NewDevice()
	device.Load("/a.mp3")
	require.NoError(t, device.Close())

	assert.ErrorIs(t, device.Play(context.Background()), domain.ErrDeviceClosed)
}
