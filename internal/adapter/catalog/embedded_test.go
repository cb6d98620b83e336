package catalog

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niarxxi/webmusic/internal/domain"
)

func TestEmbeddedSource_Load(t *testing.T) {
	songs, err := NewEmbeddedSource().Load()
	require.NoError(t, err)
	require.NotEmpty(t, songs)

	ids := lo.Map(songs, func(song domain.Song, _ int) string { return song.ID })
	assert.Equal(t, len(ids), len(lo.Uniq(ids)), "catalog IDs must be unique")

	for _, song := range songs {
		assert.NotEmpty(t, song.Name, "song %s has no name", song.ID)
		assert.NotEmpty(t, song.Genre, "song %s has no genre", song.ID)
		assert.NotEmpty(t, song.Path, "song %s has no media path", song.ID)
		assert.Positive(t, song.Duration, "song %s has no duration", song.ID)
	}
}

func TestStaticSource_Load(t *testing.T) {
	want := []domain.Song{{ID: "x", Name: "X", Genre: "Pop", Path: "/x.mp3"}}

	songs, err := NewStaticSource(want).Load()
	require.NoError(t, err)
	assert.Equal(t, want, songs)
}
