package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

var scanExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
}

// ScannerSource builds a catalog by walking a directory of audio files and
// reading their embedded tags. Files without tags fall back to filename
// metadata.
type ScannerSource struct {
	logger *slog.Logger
	root   string
}

// NewScannerSource creates a source that scans root recursively on Load.
func NewScannerSource(logger *slog.Logger, root string) *ScannerSource {
	return &ScannerSource{
		logger: logger,
		root:   root,
	}
}

// Load implements ports.CatalogSource.
func (s *ScannerSource) Load() ([]domain.Song, error) {
	var songs []domain.Song
	seq := 0

	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !scanExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		seq++
		songs = append(songs, s.readSong(path, seq))
		return nil
	})
	if err != nil {
		return nil, domain.NewRepositoryError("catalog", fmt.Sprintf("failed to scan %q", s.root), err)
	}

	s.logger.Info("music directory scanned", "root", s.root, "songs", len(songs))
	return songs, nil
}

func (s *ScannerSource) readSong(path string, seq int) domain.Song {
	song := domain.Song{
		ID:    fmt.Sprintf("local-%d", seq),
		Name:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Genre: "Unknown",
		Path:  path,
	}

	file, err := os.Open(path)
	if err != nil {
		s.logger.Warn("cannot open audio file", "path", path, "error", err)
		return song
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		s.logger.Debug("no readable tags", "path", path, "error", err)
		return song
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		song.Name = title
	}
	song.Artist = strings.TrimSpace(metadata.Artist())
	song.Album = strings.TrimSpace(metadata.Album())
	if genre := strings.TrimSpace(metadata.Genre()); genre != "" {
		song.Genre = genre
	}
	if year := metadata.Year(); year > 0 {
		song.Year = fmt.Sprintf("%d", year)
	}

	return song
}

// Verify that ScannerSource implements the CatalogSource interface
var _ ports.CatalogSource = (*ScannerSource)(nil)
