// Package ports defines repository interfaces for persistence abstraction.
package ports

import (
	"github.com/niarxxi/webmusic/internal/domain"
)

// StateRepository durably stores the session snapshot: the category filter,
// the user playlists, and the active-playlist pointer. It is loaded once at
// startup and written on every mutation of the persisted state.
//
// Thread-safety: implementations must be thread-safe.
type StateRepository interface {
	// Save persists the snapshot, replacing any previous one.
	Save(snapshot domain.StateSnapshot) error

	// Load retrieves the persisted snapshot.
	// Returns domain.ErrNoSnapshot when nothing has been saved yet.
	// A malformed stored snapshot returns an error; callers fall back to
	// domain.DefaultSnapshot rather than failing startup.
	Load() (domain.StateSnapshot, error)
}

// CatalogSource provides the static ordered song list available at startup.
// The catalog is read-only input: the core never fetches, caches, or
// mutates it after the initial load.
type CatalogSource interface {
	// Load returns the catalog songs in their canonical order.
	Load() ([]domain.Song, error)
}
