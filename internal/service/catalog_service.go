// Package service provides the state-owning business logic of the player core.
package service

import (
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

// CatalogService holds the static song catalog loaded once at startup.
// The catalog is immutable after construction, so queries need no locking.
type CatalogService struct {
	logger *slog.Logger

	songs []domain.Song
	byID  map[string]int // song ID -> index in songs
}

// NewCatalogService loads the catalog from the given source.
func NewCatalogService(logger *slog.Logger, source ports.CatalogSource) (*CatalogService, error) {
	songs, err := source.Load()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(songs))
	for i, song := range songs {
		byID[song.ID] = i
	}

	logger.Info("catalog loaded", slog.Int("songs", len(songs)))

	return &CatalogService{
		logger: logger,
		songs:  songs,
		byID:   byID,
	}, nil
}

// All returns the catalog songs in canonical order.
func (s *CatalogService) All() []domain.Song {
	// Return a copy to prevent external modification
	songs := make([]domain.Song, len(s.songs))
	copy(songs, s.songs)
	return songs
}

// Len returns the number of songs in the catalog.
func (s *CatalogService) Len() int {
	return len(s.songs)
}

// ByID looks up a song by its catalog ID.
func (s *CatalogService) ByID(id string) (domain.Song, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Song{}, false
	}
	return s.songs[i], true
}

// Resolve maps song IDs to songs, silently dropping dangling references.
// This is the single place playlist ID lists become song lists, so a catalog
// that changed between sessions can never produce a phantom entry.
func (s *CatalogService) Resolve(ids []string) []domain.Song {
	return lo.FilterMap(ids, func(id string, _ int) (domain.Song, bool) {
		return s.ByID(id)
	})
}

// Genres returns the distinct genres in catalog order.
func (s *CatalogService) Genres() []string {
	return lo.Uniq(lo.Map(s.songs, func(song domain.Song, _ int) string {
		return song.Genre
	}))
}

// Search returns songs whose name, artist, or album contains the query,
// case-insensitively. An empty query returns the whole catalog.
func (s *CatalogService) Search(query string) []domain.Song {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.All()
	}

	return lo.Filter(s.songs, func(song domain.Song, _ int) bool {
		return strings.Contains(strings.ToLower(song.Name), query) ||
			strings.Contains(strings.ToLower(song.Artist), query) ||
			strings.Contains(strings.ToLower(song.Album), query)
	})
}
