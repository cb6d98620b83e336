package service

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

// PlayerService is the central playback store: it owns the current song, the
// play/shuffle/loop intent flags, the shuffle queue, and the filter state
// (genre category and active playlist). Every mutation goes through a method
// and is announced on the event bus; the media binding and the session
// persistence observe rather than being called directly.
//
// The effective song set is never stored. It is recomputed from the catalog,
// the selected category, and the active playlist on every operation that
// needs it. The shuffle queue, by contrast, is materialized: it is a
// permutation of the effective set at the time it was generated and is only
// regenerated on explicit triggers (play from a song, shuffle toggle, filter
// change). Between triggers it may go stale; next/previous treat a current
// song missing from its order as "no well-defined neighbor" and hold.
//
// All operations are thread-safe via sync.RWMutex. Events are published
// after the lock is released, so handlers may call back into getters.
type PlayerService struct {
	// Dependencies (injected)
	logger    *slog.Logger
	catalog   *CatalogService
	playlists *PlaylistService
	bus       ports.EventBus

	// State
	currentSong      *domain.Song
	isPlaying        bool
	isShuffle        bool
	isLoop           bool
	shuffleQueue     []string
	selectedCategory string
	activePlaylist   *string

	mu sync.RWMutex

	// Event subscription
	playlistDeletedSub domain.SubscriptionID
}

// NewPlayerService creates a new player service with default filters
// (whole catalog, no genre filter) and no current song.
func NewPlayerService(
	logger *slog.Logger,
	catalog *CatalogService,
	playlists *PlaylistService,
	bus ports.EventBus,
) *PlayerService {
	s := &PlayerService{
		logger:           logger,
		catalog:          catalog,
		playlists:        playlists,
		bus:              bus,
		selectedCategory: domain.CategoryAll,
	}

	// Deleting the active playlist must clear the active-playlist pointer.
	s.playlistDeletedSub = bus.Subscribe(domain.EventPlaylistDeleted, s.handlePlaylistDeleted)

	return s
}

// PlaySong starts playback of the given song. The song does not need to be
// a member of the effective set: explicit play from outside the current
// filter is allowed and does not alter filters.
//
// With shuffle active, the shuffle queue is regenerated as a fresh random
// permutation of the effective set with the started song pinned to
// position 0.
func (s *PlayerService) PlaySong(song domain.Song) {
	s.mu.Lock()

	s.currentSong = &song
	s.isPlaying = true
	if s.isShuffle {
		s.regenerateQueueLocked(&song)
	}
	current := song

	s.mu.Unlock()

	s.logger.Debug("play song", slog.String("id", song.ID), slog.String("name", song.Name))
	s.bus.Publish(domain.NewSongChangedEvent(&current, true))
}

// TogglePlay flips the play/pause intent. With no current song the flag
// still flips but nothing audible happens, since no media is bound; the UI
// is expected to disable the control in that state.
func (s *PlayerService) TogglePlay() {
	s.mu.Lock()
	s.isPlaying = !s.isPlaying
	playing := s.isPlaying
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlayIntentEvent(playing))
}

// SetPlaying forces the play intent to the given value. The media binding
// uses this to reflect actual device state after a rejected play or a hard
// device error. Publishes nothing when the intent already matches.
func (s *PlayerService) SetPlaying(playing bool) {
	s.mu.Lock()
	if s.isPlaying == playing {
		s.mu.Unlock()
		return
	}
	s.isPlaying = playing
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlayIntentEvent(playing))
}

// ToggleShuffle flips shuffle mode. Turning shuffle on regenerates the
// shuffle queue from the current effective set, anchored at the current song
// if there is one. Turning it off clears the queue: next/previous fall back
// to positional order over the effective set.
func (s *PlayerService) ToggleShuffle() {
	s.mu.Lock()

	s.isShuffle = !s.isShuffle
	if s.isShuffle {
		s.regenerateQueueLocked(s.currentSong)
	} else {
		s.shuffleQueue = nil
	}
	enabled := s.isShuffle
	queue := slices.Clone(s.shuffleQueue)

	s.mu.Unlock()

	s.bus.Publish(domain.NewShuffleToggledEvent(enabled, queue))
}

// ToggleLoop flips loop mode. Pure flag: it only affects the forward
// boundary behavior of Next.
func (s *PlayerService) ToggleLoop() {
	s.mu.Lock()
	s.isLoop = !s.isLoop
	enabled := s.isLoop
	s.mu.Unlock()

	s.bus.Publish(domain.NewLoopToggledEvent(enabled))
}

// Next advances to the next song and forces playing intent.
//
// Boundary behavior: at the last position, loop wraps (non-shuffle) or
// regenerates a fresh unanchored permutation and starts at its head
// (shuffle); without loop, Next holds at the last song. A current song that
// is no longer present in the effective set or the shuffle queue has no
// well-defined successor, so Next holds. No-op with no current song.
func (s *PlayerService) Next() {
	s.mu.Lock()

	next, ok := s.resolveNextLocked()
	if !ok {
		s.mu.Unlock()
		return
	}

	s.currentSong = &next
	s.isPlaying = true
	current := next

	s.mu.Unlock()

	s.bus.Publish(domain.NewSongChangedEvent(&current, true))
}

// Previous steps back to the previous song and forces playing intent.
//
// Unlike Next, Previous always stops at the first position regardless of
// loop mode, in both shuffle and positional order. The loop-forward-only
// asymmetry is intentional and must be preserved.
func (s *PlayerService) Previous() {
	s.mu.Lock()

	prev, ok := s.resolvePreviousLocked()
	if !ok {
		s.mu.Unlock()
		return
	}

	s.currentSong = &prev
	s.isPlaying = true
	current := prev

	s.mu.Unlock()

	s.bus.Publish(domain.NewSongChangedEvent(&current, true))
}

// resolveNextLocked computes the successor song. Caller must hold the lock.
func (s *PlayerService) resolveNextLocked() (domain.Song, bool) {
	if s.currentSong == nil {
		return domain.Song{}, false
	}

	if s.isShuffle {
		idx := slices.Index(s.shuffleQueue, s.currentSong.ID)
		if idx < 0 {
			// Filter changed underneath the queue: hold.
			return domain.Song{}, false
		}
		if idx == len(s.shuffleQueue)-1 {
			if !s.isLoop {
				return domain.Song{}, false
			}
			// Fresh full permutation, no anchor this time.
			s.regenerateQueueLocked(nil)
			if len(s.shuffleQueue) == 0 {
				return domain.Song{}, false
			}
			return s.songByIDLocked(s.shuffleQueue[0])
		}
		return s.songByIDLocked(s.shuffleQueue[idx+1])
	}

	set := s.effectiveSongsLocked()
	idx := s.indexInSetLocked(set)
	if idx < 0 {
		return domain.Song{}, false
	}
	if idx == len(set)-1 {
		if !s.isLoop {
			return domain.Song{}, false
		}
		return set[0], true
	}
	return set[idx+1], true
}

// resolvePreviousLocked computes the predecessor song. Caller must hold the lock.
func (s *PlayerService) resolvePreviousLocked() (domain.Song, bool) {
	if s.currentSong == nil {
		return domain.Song{}, false
	}

	if s.isShuffle {
		idx := slices.Index(s.shuffleQueue, s.currentSong.ID)
		if idx <= 0 {
			return domain.Song{}, false
		}
		return s.songByIDLocked(s.shuffleQueue[idx-1])
	}

	set := s.effectiveSongsLocked()
	idx := s.indexInSetLocked(set)
	if idx <= 0 {
		return domain.Song{}, false
	}
	return set[idx-1], true
}

// SetCategory changes the genre filter. When the new category excludes the
// currently playing song, playback stops and the current song is cleared:
// the store never keeps orphaned playback outside the visible set. With
// shuffle active, the queue is regenerated as an unanchored permutation of
// the new effective set.
func (s *PlayerService) SetCategory(category string) {
	s.mu.Lock()

	s.selectedCategory = category

	events := make([]domain.Event, 0, 2)
	events = append(events, domain.NewCategoryChangedEvent(category))

	if s.currentSong != nil && category != domain.CategoryAll && s.currentSong.Genre != category {
		s.currentSong = nil
		s.isPlaying = false
		events = append(events, domain.NewSongChangedEvent(nil, false))
	}

	if s.isShuffle {
		s.regenerateQueueLocked(nil)
	}

	s.mu.Unlock()

	for _, event := range events {
		s.bus.Publish(event)
	}
}

// SetActivePlaylist switches the effective song set to the playlist's songs.
// Deliberately more lenient than SetCategory: it never clears the current
// song or stops playback, and it does not regenerate the shuffle queue.
func (s *PlayerService) SetActivePlaylist(id string) {
	s.mu.Lock()
	s.activePlaylist = &id
	active := id
	s.mu.Unlock()

	s.bus.Publish(domain.NewActivePlaylistChangedEvent(&active))
}

// ClearActivePlaylist returns the effective song set to the whole catalog.
func (s *PlayerService) ClearActivePlaylist() {
	s.mu.Lock()
	s.activePlaylist = nil
	s.mu.Unlock()

	s.bus.Publish(domain.NewActivePlaylistChangedEvent(nil))
}

// ResetFilters restores the default selection: no genre filter, no active
// playlist. With shuffle active, the queue is regenerated from the restored
// effective set, anchored at the current song if one survives (with the
// category back at "all", any current song does).
func (s *PlayerService) ResetFilters() {
	s.mu.Lock()

	s.selectedCategory = domain.CategoryAll
	s.activePlaylist = nil
	if s.isShuffle {
		s.regenerateQueueLocked(s.currentSong)
	}

	s.mu.Unlock()

	s.bus.Publish(domain.NewCategoryChangedEvent(domain.CategoryAll))
	s.bus.Publish(domain.NewActivePlaylistChangedEvent(nil))
}

// RestoreFilters applies persisted filter state at startup, without the
// mutation cascade: nothing is cleared, no queue is generated, no events
// are published.
func (s *PlayerService) RestoreFilters(category string, activePlaylist *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category == "" {
		category = domain.CategoryAll
	}
	s.selectedCategory = category
	if activePlaylist != nil {
		id := *activePlaylist
		s.activePlaylist = &id
	} else {
		s.activePlaylist = nil
	}
}

// EffectiveSongs returns the songs currently eligible for browsing and
// playback: the active playlist's songs (dangling references dropped) or the
// whole catalog, genre-filtered unless the category is "all". Always
// recomputed, never cached.
func (s *PlayerService) EffectiveSongs() []domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.effectiveSongsLocked()
}

// PlaylistSongs resolves a playlist to songs and applies the current
// category filter, mirroring the effective-set derivation for playlist
// detail views. Returns nil for an unknown playlist.
func (s *PlayerService) PlaylistSongs(id string) []domain.Song {
	s.mu.RLock()
	category := s.selectedCategory
	s.mu.RUnlock()

	songs := s.playlists.Songs(id)
	if songs == nil || category == domain.CategoryAll {
		return songs
	}
	return lo.Filter(songs, func(song domain.Song, _ int) bool {
		return song.Genre == category
	})
}

// State returns a copy of the current playback state.
func (s *PlayerService) State() domain.PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.PlayerState{
		IsPlaying:        s.isPlaying,
		IsShuffle:        s.isShuffle,
		IsLoop:           s.isLoop,
		ShuffleQueue:     slices.Clone(s.shuffleQueue),
		SelectedCategory: s.selectedCategory,
	}
	if s.currentSong != nil {
		song := *s.currentSong
		state.CurrentSong = &song
	}
	if s.activePlaylist != nil {
		id := *s.activePlaylist
		state.ActivePlaylist = &id
	}
	return state
}

// CurrentSong returns a copy of the current song, or nil.
func (s *PlayerService) CurrentSong() *domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentSong == nil {
		return nil
	}
	song := *s.currentSong
	return &song
}

// IsPlaying returns the playback intent.
func (s *PlayerService) IsPlaying() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isPlaying
}

// IsShuffle reports whether shuffle mode is active.
func (s *PlayerService) IsShuffle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isShuffle
}

// IsLoop reports whether loop mode is active.
func (s *PlayerService) IsLoop() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoop
}

// SelectedCategory returns the active genre filter, or CategoryAll.
func (s *PlayerService) SelectedCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedCategory
}

// ActivePlaylist returns the active playlist ID, or nil.
func (s *PlayerService) ActivePlaylist() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activePlaylist == nil {
		return nil
	}
	id := *s.activePlaylist
	return &id
}

// ShuffleQueue returns a copy of the materialized shuffle queue.
func (s *PlayerService) ShuffleQueue() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.shuffleQueue)
}

// Shutdown releases the service's event subscriptions.
func (s *PlayerService) Shutdown() error {
	s.bus.Unsubscribe(s.playlistDeletedSub)
	return nil
}

// handlePlaylistDeleted clears the active-playlist pointer when the active
// playlist is destroyed. Current song and play intent are left untouched.
func (s *PlayerService) handlePlaylistDeleted(event domain.Event) {
	deleted, ok := event.(domain.PlaylistDeletedEvent)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.activePlaylist == nil || *s.activePlaylist != deleted.PlaylistID {
		s.mu.Unlock()
		return
	}
	s.activePlaylist = nil
	s.mu.Unlock()

	s.bus.Publish(domain.NewActivePlaylistChangedEvent(nil))
}

// effectiveSongsLocked recomputes the effective song set.
// Caller must hold the lock (read or write).
func (s *PlayerService) effectiveSongsLocked() []domain.Song {
	var base []domain.Song
	if s.activePlaylist != nil {
		if playlist, ok := s.playlists.ByID(*s.activePlaylist); ok {
			base = s.catalog.Resolve(playlist.Songs)
		} else {
			// Dangling active-playlist pointer: browse the catalog.
			base = s.catalog.All()
		}
	} else {
		base = s.catalog.All()
	}

	if s.selectedCategory == domain.CategoryAll {
		return base
	}
	return lo.Filter(base, func(song domain.Song, _ int) bool {
		return song.Genre == s.selectedCategory
	})
}

// regenerateQueueLocked rebuilds the shuffle queue as an unbiased random
// permutation of the effective set's IDs. A non-nil anchor is pinned to
// position 0 and excluded from the shuffled remainder. Caller must hold the
// write lock.
func (s *PlayerService) regenerateQueueLocked(anchor *domain.Song) {
	ids := lo.Map(s.effectiveSongsLocked(), func(song domain.Song, _ int) string {
		return song.ID
	})

	if anchor != nil {
		ids = lo.Filter(ids, func(id string, _ int) bool {
			return id != anchor.ID
		})
	}

	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	if anchor != nil {
		ids = append([]string{anchor.ID}, ids...)
	}

	s.shuffleQueue = ids
}

// songByIDLocked resolves a queue entry against the catalog. A dangling
// entry (catalog changed between sessions) yields no successor.
func (s *PlayerService) songByIDLocked(id string) (domain.Song, bool) {
	return s.catalog.ByID(id)
}

// indexInSetLocked finds the current song in the effective set by ID.
// Caller must hold the lock.
func (s *PlayerService) indexInSetLocked(set []domain.Song) int {
	return slices.IndexFunc(set, func(song domain.Song) bool {
		return song.ID == s.currentSong.ID
	})
}

// Verify that PlayerService implements the expected interface patterns
var _ interface {
	PlaySong(domain.Song)
	TogglePlay()
	SetPlaying(bool)
	ToggleShuffle()
	ToggleLoop()
	Next()
	Previous()
	SetCategory(string)
	SetActivePlaylist(string)
	ClearActivePlaylist()
	ResetFilters()
	EffectiveSongs() []domain.Song
	PlaylistSongs(string) []domain.Song
	State() domain.PlayerState
	Shutdown() error
} = (*PlayerService)(nil)
