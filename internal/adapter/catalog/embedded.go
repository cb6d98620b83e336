// Package catalog provides CatalogSource implementations: a built-in song
// set compiled into the binary and a filesystem scanner that reads tags from
// local audio files.
package catalog

import (
	_ "embed"
	"encoding/json"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

//go:embed songs.json
var embeddedSongs []byte

// EmbeddedSource serves the song set bundled with the binary.
type EmbeddedSource struct{}

// NewEmbeddedSource creates a source backed by the compiled-in catalog.
func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{}
}

// Load implements ports.CatalogSource.
func (s *EmbeddedSource) Load() ([]domain.Song, error) {
	var songs []domain.Song
	if err := json.Unmarshal(embeddedSongs, &songs); err != nil {
		return nil, domain.NewRepositoryError("catalog", "failed to decode embedded catalog", err)
	}
	return songs, nil
}

// StaticSource serves a fixed song slice, mainly for tests.
type StaticSource struct {
	songs []domain.Song
}

// NewStaticSource creates a source that returns the given songs as-is.
func NewStaticSource(songs []domain.Song) *StaticSource {
	return &StaticSource{songs: songs}
}

// Load implements ports.CatalogSource.
func (s *StaticSource) Load() ([]domain.Song, error) {
	return s.songs, nil
}

// Verify interface compliance
var (
	_ ports.CatalogSource = (*EmbeddedSource)(nil)
	_ ports.CatalogSource = (*StaticSource)(nil)
)
