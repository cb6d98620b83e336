// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the webmusic player core.
package domain

import (
	"time"
)

// CategoryAll is the sentinel category meaning "no genre filter applied".
const CategoryAll = "all"

// Song represents a single catalog entry. Songs are loaded once at startup
// and never mutated or deleted at runtime.
type Song struct {
	// ID is a unique identifier for the song
	ID string `json:"id"`

	// Name is the song title
	Name string `json:"name"`

	// Artist is the performing artist name
	Artist string `json:"artist"`

	// Album is the album name (optional)
	Album string `json:"album,omitempty"`

	// Year is a release-year label. Free text, not necessarily numeric.
	Year string `json:"year,omitempty"`

	// Genre is a single free-text category used by the category filter
	Genre string `json:"genre"`

	// Duration is the informational track length in seconds. The
	// authoritative duration comes from the media device once loaded.
	Duration int `json:"duration"`

	// Image is the cover-art URI
	Image string `json:"image"`

	// Path is the playable media URI
	Path string `json:"path"`

	// Description contains optional editorial text about the song
	Description string `json:"description,omitempty"`
}

// Playlist is a user-owned named ordered collection of song references.
// Songs holds catalog IDs, not song copies; an ID with no matching catalog
// entry is a dangling reference and is dropped at every read site.
type Playlist struct {
	// ID is a unique identifier generated at creation (UUID)
	ID string `json:"id"`

	// Name is the user-visible playlist name
	Name string `json:"name"`

	// Songs is the ordered list of referenced song IDs
	Songs []string `json:"songs"`

	// CreatedAt is when the playlist was created
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is refreshed on every structural mutation
	// (rename, add, remove, reorder)
	UpdatedAt time.Time `json:"updatedAt"`
}

// Contains reports whether the playlist references the given song ID.
func (p *Playlist) Contains(songID string) bool {
	for _, id := range p.Songs {
		if id == songID {
			return true
		}
	}
	return false
}

// PlayerState is a read-only view of the runtime playback state.
// It represents intent: the device's actual playing/loaded state may lag
// behind momentarily during asynchronous transitions.
type PlayerState struct {
	// CurrentSong is the song playback is bound to (nil if none)
	CurrentSong *Song

	// IsPlaying is the playback intent, not the actual device state
	IsPlaying bool

	// IsShuffle reports whether shuffle mode is active
	IsShuffle bool

	// IsLoop reports whether loop mode is active
	IsLoop bool

	// ShuffleQueue is the materialized random permutation of effective-set
	// IDs. Valid only while shuffle is active, empty otherwise.
	ShuffleQueue []string

	// SelectedCategory is the active genre filter, or CategoryAll
	SelectedCategory string

	// ActivePlaylist is the active playlist ID (nil when browsing the catalog)
	ActivePlaylist *string
}

// StateSnapshot is the serializable subset of state that survives sessions.
// It is deliberately distinct from the runtime state: the catalog, the
// current song, and the play/shuffle/loop flags reset every session.
type StateSnapshot struct {
	SelectedCategory string     `json:"selectedCategory"`
	Playlists        []Playlist `json:"playlists"`
	ActivePlaylist   *string    `json:"activePlaylist"`
}

// DefaultSnapshot returns the snapshot used when no persisted state exists
// or the persisted state cannot be parsed.
func DefaultSnapshot() StateSnapshot {
	return StateSnapshot{
		SelectedCategory: CategoryAll,
		Playlists:        []Playlist{},
		ActivePlaylist:   nil,
	}
}

// Normalize fills zero values with defaults so that a partially populated
// snapshot (an older persisted shape) still restores cleanly.
func (s StateSnapshot) Normalize() StateSnapshot {
	if s.SelectedCategory == "" {
		s.SelectedCategory = CategoryAll
	}
	if s.Playlists == nil {
		s.Playlists = []Playlist{}
	}
	return s
}

// TimeRange is a buffered interval reported by the media device.
type TimeRange struct {
	Start time.Duration
	End   time.Duration
}
