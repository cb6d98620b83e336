// Package domain defines events for the event-driven architecture.
// Services publish events on every state mutation; the UI layer, the media
// binding, and the session persistence subscribe instead of being called back.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback intent events
	EventSongChanged    EventType = "player.song_changed"
	EventPlayIntent     EventType = "player.play_intent"
	EventShuffleToggled EventType = "player.shuffle_toggled"
	EventLoopToggled    EventType = "player.loop_toggled"

	// Filter/selection events
	EventCategoryChanged       EventType = "filter.category_changed"
	EventActivePlaylistChanged EventType = "filter.active_playlist_changed"

	// Playlist events
	EventPlaylistCreated      EventType = "playlist.created"
	EventPlaylistRenamed      EventType = "playlist.renamed"
	EventPlaylistDeleted      EventType = "playlist.deleted"
	EventPlaylistSongsChanged EventType = "playlist.songs_changed"

	// Media binding events (device state reflected back into the store)
	EventPositionChanged  EventType = "media.position_changed"
	EventDurationChanged  EventType = "media.duration_changed"
	EventBufferingChanged EventType = "media.buffering_changed"
	EventPlaybackEnded    EventType = "media.playback_ended"
	EventPlaybackError    EventType = "media.playback_error"
	EventVolumeChanged    EventType = "media.volume_changed"
	EventMuteToggled      EventType = "media.mute_toggled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// SongChangedEvent is published when the current song changes.
// Song is nil when playback was cleared (e.g. the category filter excluded
// the playing song). WantPlay carries the playback intent at the moment of
// the change, so the media binding does not have to re-query the store.
type SongChangedEvent struct {
	baseEvent
	Song     *Song
	WantPlay bool
}

// Type returns the event type.
func (e SongChangedEvent) Type() EventType {
	return EventSongChanged
}

// NewSongChangedEvent creates a new SongChangedEvent.
func NewSongChangedEvent(song *Song, wantPlay bool) SongChangedEvent {
	return SongChangedEvent{baseEvent: newBaseEvent(), Song: song, WantPlay: wantPlay}
}

// PlayIntentEvent is published when the play/pause intent flips without the
// current song changing.
type PlayIntentEvent struct {
	baseEvent
	Playing bool
}

// Type returns the event type.
func (e PlayIntentEvent) Type() EventType {
	return EventPlayIntent
}

// NewPlayIntentEvent creates a new PlayIntentEvent.
func NewPlayIntentEvent(playing bool) PlayIntentEvent {
	return PlayIntentEvent{baseEvent: newBaseEvent(), Playing: playing}
}

// ShuffleToggledEvent is published when shuffle mode flips.
// Queue carries the freshly generated shuffle queue (empty when disabled).
type ShuffleToggledEvent struct {
	baseEvent
	Enabled bool
	Queue   []string
}

// Type returns the event type.
func (e ShuffleToggledEvent) Type() EventType {
	return EventShuffleToggled
}

// NewShuffleToggledEvent creates a new ShuffleToggledEvent.
func NewShuffleToggledEvent(enabled bool, queue []string) ShuffleToggledEvent {
	return ShuffleToggledEvent{baseEvent: newBaseEvent(), Enabled: enabled, Queue: queue}
}

// LoopToggledEvent is published when loop mode flips.
type LoopToggledEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e LoopToggledEvent) Type() EventType {
	return EventLoopToggled
}

// NewLoopToggledEvent creates a new LoopToggledEvent.
func NewLoopToggledEvent(enabled bool) LoopToggledEvent {
	return LoopToggledEvent{baseEvent: newBaseEvent(), Enabled: enabled}
}

// CategoryChangedEvent is published when the genre filter changes.
type CategoryChangedEvent struct {
	baseEvent
	Category string
}

// Type returns the event type.
func (e CategoryChangedEvent) Type() EventType {
	return EventCategoryChanged
}

// NewCategoryChangedEvent creates a new CategoryChangedEvent.
func NewCategoryChangedEvent(category string) CategoryChangedEvent {
	return CategoryChangedEvent{baseEvent: newBaseEvent(), Category: category}
}

// ActivePlaylistChangedEvent is published when the active-playlist pointer
// changes. PlaylistID is nil when returning to the whole catalog.
type ActivePlaylistChangedEvent struct {
	baseEvent
	PlaylistID *string
}

// Type returns the event type.
func (e ActivePlaylistChangedEvent) Type() EventType {
	return EventActivePlaylistChanged
}

// NewActivePlaylistChangedEvent creates a new ActivePlaylistChangedEvent.
func NewActivePlaylistChangedEvent(playlistID *string) ActivePlaylistChangedEvent {
	return ActivePlaylistChangedEvent{baseEvent: newBaseEvent(), PlaylistID: playlistID}
}

// PlaylistCreatedEvent is published when a playlist is created.
type PlaylistCreatedEvent struct {
	baseEvent
	Playlist Playlist
}

// Type returns the event type.
func (e PlaylistCreatedEvent) Type() EventType {
	return EventPlaylistCreated
}

// NewPlaylistCreatedEvent creates a new PlaylistCreatedEvent.
func NewPlaylistCreatedEvent(playlist Playlist) PlaylistCreatedEvent {
	return PlaylistCreatedEvent{baseEvent: newBaseEvent(), Playlist: playlist}
}

// PlaylistRenamedEvent is published when a playlist is renamed.
type PlaylistRenamedEvent struct {
	baseEvent
	Playlist Playlist
}

// Type returns the event type.
func (e PlaylistRenamedEvent) Type() EventType {
	return EventPlaylistRenamed
}

// NewPlaylistRenamedEvent creates a new PlaylistRenamedEvent.
func NewPlaylistRenamedEvent(playlist Playlist) PlaylistRenamedEvent {
	return PlaylistRenamedEvent{baseEvent: newBaseEvent(), Playlist: playlist}
}

// PlaylistDeletedEvent is published when a playlist is destroyed.
// The player service listens for this to clear a matching active-playlist
// pointer.
type PlaylistDeletedEvent struct {
	baseEvent
	PlaylistID string
}

// Type returns the event type.
func (e PlaylistDeletedEvent) Type() EventType {
	return EventPlaylistDeleted
}

// NewPlaylistDeletedEvent creates a new PlaylistDeletedEvent.
func NewPlaylistDeletedEvent(playlistID string) PlaylistDeletedEvent {
	return PlaylistDeletedEvent{baseEvent: newBaseEvent(), PlaylistID: playlistID}
}

// PlaylistSongsChangedEvent is published when songs are added, removed, or
// reordered within a playlist.
type PlaylistSongsChangedEvent struct {
	baseEvent
	Playlist Playlist
}

// Type returns the event type.
func (e PlaylistSongsChangedEvent) Type() EventType {
	return EventPlaylistSongsChanged
}

// NewPlaylistSongsChangedEvent creates a new PlaylistSongsChangedEvent.
func NewPlaylistSongsChangedEvent(playlist Playlist) PlaylistSongsChangedEvent {
	return PlaylistSongsChangedEvent{baseEvent: newBaseEvent(), Playlist: playlist}
}

// PositionChangedEvent is published when the device reports playback time,
// and with position zero when a new song is loaded or a seek is requested.
type PositionChangedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e PositionChangedEvent) Type() EventType {
	return EventPositionChanged
}

// NewPositionChangedEvent creates a new PositionChangedEvent.
func NewPositionChangedEvent(position time.Duration) PositionChangedEvent {
	return PositionChangedEvent{baseEvent: newBaseEvent(), Position: position}
}

// DurationChangedEvent is published when the device learns the authoritative
// duration of the loaded source.
type DurationChangedEvent struct {
	baseEvent
	Duration time.Duration
}

// Type returns the event type.
func (e DurationChangedEvent) Type() EventType {
	return EventDurationChanged
}

// NewDurationChangedEvent creates a new DurationChangedEvent.
func NewDurationChangedEvent(duration time.Duration) DurationChangedEvent {
	return DurationChangedEvent{baseEvent: newBaseEvent(), Duration: duration}
}

// BufferingChangedEvent is published while the binding waits for the device
// to become playable.
type BufferingChangedEvent struct {
	baseEvent
	Buffering bool
}

// Type returns the event type.
func (e BufferingChangedEvent) Type() EventType {
	return EventBufferingChanged
}

// NewBufferingChangedEvent creates a new BufferingChangedEvent.
func NewBufferingChangedEvent(buffering bool) BufferingChangedEvent {
	return BufferingChangedEvent{baseEvent: newBaseEvent(), Buffering: buffering}
}

// PlaybackEndedEvent is published when the device reports natural end of
// playback, just before the queue engine advances.
type PlaybackEndedEvent struct {
	baseEvent
	Song Song
}

// Type returns the event type.
func (e PlaybackEndedEvent) Type() EventType {
	return EventPlaybackEnded
}

// NewPlaybackEndedEvent creates a new PlaybackEndedEvent.
func NewPlaybackEndedEvent(song Song) PlaybackEndedEvent {
	return PlaybackEndedEvent{baseEvent: newBaseEvent(), Song: song}
}

// PlaybackErrorEvent is published for non-fatal playback failures:
// non-benign play rejections and hard device errors.
type PlaybackErrorEvent struct {
	baseEvent
	Song *Song
	Err  error
}

// Type returns the event type.
func (e PlaybackErrorEvent) Type() EventType {
	return EventPlaybackError
}

// NewPlaybackErrorEvent creates a new PlaybackErrorEvent.
func NewPlaybackErrorEvent(song *Song, err error) PlaybackErrorEvent {
	return PlaybackErrorEvent{baseEvent: newBaseEvent(), Song: song, Err: err}
}

// VolumeChangedEvent is published when the binding volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 // 0.0 to 1.0
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{baseEvent: newBaseEvent(), Volume: volume}
}

// MuteToggledEvent is published when mute flips.
type MuteToggledEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteToggledEvent) Type() EventType {
	return EventMuteToggled
}

// NewMuteToggledEvent creates a new MuteToggledEvent.
func NewMuteToggledEvent(muted bool) MuteToggledEvent {
	return MuteToggledEvent{baseEvent: newBaseEvent(), Muted: muted}
}
