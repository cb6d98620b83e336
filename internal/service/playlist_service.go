package service

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

// PlaylistService owns the user-defined playlists: named ordered collections
// of song ID references. Playlists are persisted independently from the
// catalog, so every read site tolerates dangling references.
//
// Mutations referencing a missing playlist are silent no-ops: the UI cannot
// easily produce that case, but the store stays defensive. All operations
// are thread-safe via sync.RWMutex.
type PlaylistService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	catalog *CatalogService
	bus     ports.EventBus

	// State
	playlists []domain.Playlist

	mu sync.RWMutex
}

// NewPlaylistService creates a new playlist service with no playlists.
// Persisted playlists arrive later through Restore.
func NewPlaylistService(logger *slog.Logger, catalog *CatalogService, bus ports.EventBus) *PlaylistService {
	return &PlaylistService{
		logger:    logger,
		catalog:   catalog,
		bus:       bus,
		playlists: make([]domain.Playlist, 0),
	}
}

// Create adds a new empty playlist and returns its generated ID, so callers
// can immediately navigate to it.
func (s *PlaylistService) Create(name string) string {
	s.mu.Lock()

	now := time.Now()
	playlist := domain.Playlist{
		ID:        uuid.New().String(),
		Name:      name,
		Songs:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.playlists = append(s.playlists, playlist)

	s.mu.Unlock()

	s.logger.Debug("playlist created", slog.String("id", playlist.ID), slog.String("name", name))
	s.bus.Publish(domain.NewPlaylistCreatedEvent(playlist))

	return playlist.ID
}

// Rename updates the playlist name and bumps UpdatedAt.
// Silently ignored if the playlist does not exist.
func (s *PlaylistService) Rename(id, name string) {
	s.mu.Lock()

	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}

	s.playlists[i].Name = name
	s.playlists[i].UpdatedAt = time.Now()
	renamed := clonePlaylist(s.playlists[i])

	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaylistRenamedEvent(renamed))
}

// Delete removes the playlist. The player service listens for the deletion
// event and clears a matching active-playlist pointer.
// Silently ignored if the playlist does not exist.
func (s *PlaylistService) Delete(id string) {
	s.mu.Lock()

	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}

	s.playlists = slices.Delete(s.playlists, i, i+1)

	s.mu.Unlock()

	s.logger.Debug("playlist deleted", slog.String("id", id))
	s.bus.Publish(domain.NewPlaylistDeletedEvent(id))
}

// AddSong appends the song ID to the playlist, only if it is not already
// present: add is a set-like "ensure present", not a list push.
// Silently ignored if the playlist does not exist.
func (s *PlaylistService) AddSong(playlistID, songID string) {
	s.mu.Lock()

	i := s.indexOf(playlistID)
	if i < 0 {
		s.mu.Unlock()
		return
	}

	if s.playlists[i].Contains(songID) {
		s.mu.Unlock()
		return
	}

	s.playlists[i].Songs = append(s.playlists[i].Songs, songID)
	s.playlists[i].UpdatedAt = time.Now()
	changed := clonePlaylist(s.playlists[i])

	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaylistSongsChangedEvent(changed))
}

// RemoveSong removes all occurrences of the song ID and bumps UpdatedAt.
// Silently ignored if the playlist does not exist or does not reference
// the song.
func (s *PlaylistService) RemoveSong(playlistID, songID string) {
	s.mu.Lock()

	i := s.indexOf(playlistID)
	if i < 0 || !s.playlists[i].Contains(songID) {
		s.mu.Unlock()
		return
	}

	s.playlists[i].Songs = slices.DeleteFunc(s.playlists[i].Songs, func(id string) bool {
		return id == songID
	})
	s.playlists[i].UpdatedAt = time.Now()
	changed := clonePlaylist(s.playlists[i])

	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaylistSongsChangedEvent(changed))
}

// Reorder moves the element at sourceIndex to destIndex, preserving the
// order of the remaining elements.
//
// Precondition: 0 <= sourceIndex, destIndex < len(playlist.Songs).
// Out-of-range indices are a caller contract violation and are left unchecked.
// Silently ignored if the playlist does not exist.
func (s *PlaylistService) Reorder(playlistID string, sourceIndex, destIndex int) {
	s.mu.Lock()

	i := s.indexOf(playlistID)
	if i < 0 {
		s.mu.Unlock()
		return
	}

	songs := s.playlists[i].Songs
	moved := songs[sourceIndex]
	songs = slices.Delete(songs, sourceIndex, sourceIndex+1)
	songs = slices.Insert(songs, destIndex, moved)
	s.playlists[i].Songs = songs
	s.playlists[i].UpdatedAt = time.Now()
	changed := clonePlaylist(s.playlists[i])

	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaylistSongsChangedEvent(changed))
}

// ByID returns the playlist with the given ID.
func (s *PlaylistService) ByID(id string) (domain.Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Playlist{}, false
	}
	return clonePlaylist(s.playlists[i]), true
}

// Songs resolves the playlist's song references against the catalog,
// dropping dangling IDs. Returns nil for an unknown playlist.
func (s *PlaylistService) Songs(id string) []domain.Song {
	playlist, ok := s.ByID(id)
	if !ok {
		return nil
	}
	return s.catalog.Resolve(playlist.Songs)
}

// All returns a copy of every playlist in creation order.
func (s *PlaylistService) All() []domain.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlists := make([]domain.Playlist, len(s.playlists))
	for i, p := range s.playlists {
		playlists[i] = clonePlaylist(p)
	}
	return playlists
}

// Restore replaces all playlists with the persisted set.
// Called once at startup by the session service; publishes no events.
func (s *PlaylistService) Restore(playlists []domain.Playlist) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlists = make([]domain.Playlist, len(playlists))
	for i, p := range playlists {
		s.playlists[i] = clonePlaylist(p)
	}
}

// indexOf returns the index of the playlist or -1. Caller must hold the lock.
func (s *PlaylistService) indexOf(id string) int {
	return slices.IndexFunc(s.playlists, func(p domain.Playlist) bool {
		return p.ID == id
	})
}

// clonePlaylist copies a playlist including its song ID slice, so callers
// can never alias internal state.
func clonePlaylist(p domain.Playlist) domain.Playlist {
	p.Songs = slices.Clone(p.Songs)
	if p.Songs == nil {
		p.Songs = []string{}
	}
	return p
}

// Verify that PlaylistService implements the expected interface patterns
var _ interface {
	Create(string) string
	Rename(string, string)
	Delete(string)
	AddSong(string, string)
	RemoveSong(string, string)
	Reorder(string, int, int)
	ByID(string) (domain.Playlist, bool)
	Songs(string) []domain.Song
	All() []domain.Playlist
	Restore([]domain.Playlist)
} = (*PlaylistService)(nil)
