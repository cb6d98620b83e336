package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niarxxi/webmusic/internal/adapter/catalog"
	"github.com/niarxxi/webmusic/internal/adapter/eventbus"
	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/logger"
)

func newTestPlaylists(t *testing.T) (*PlaylistService, *eventbus.SyncEventBus) {
	t.Helper()

	log := logger.NewTestLogger()
	catalogService, err := NewCatalogService(log, catalog.NewStaticSource(testSongs()))
	require.NoError(t, err)

	bus := eventbus.NewSyncEventBus()
	return NewPlaylistService(log, catalogService, bus), bus
}

func TestPlaylistService_Create(t *testing.T) {
	playlists, bus := newTestPlaylists(t)
	recorder := recordEvents(bus)

	id := playlists.Create("Road Trip")

	_, err := uuid.Parse(id)
	assert.NoError(t, err, "playlist IDs are UUIDs")

	playlist, ok := playlists.ByID(id)
	require.True(t, ok)
	assert.Equal(t, "Road Trip", playlist.Name)
	assert.Empty(t, playlist.Songs)
	assert.Equal(t, playlist.CreatedAt, playlist.UpdatedAt)

	created := recorder.ofType(domain.EventPlaylistCreated)
	require.Len(t, created, 1)
	assert.Equal(t, id, created[0].(domain.PlaylistCreatedEvent).Playlist.ID)
}

func TestPlaylistService_CreateAllowsDuplicateNames(t *testing.T) {
	playlists, _ := newTestPlaylists(t)

	first := playlists.Create("Mix")
	second := playlists.Create("Mix")

	assert.NotEqual(t, first, second)
	assert.Len(t, playlists.All(), 2)
}

func TestPlaylistService_Rename(t *testing.T) {
	playlists, bus := newTestPlaylists(t)

	id := playlists.Create("Old Name")
	before, _ := playlists.ByID(id)
	recorder := recordEvents(bus)

	time.Sleep(time.Millisecond) // UpdatedAt must visibly advance
	playlists.Rename(id, "New Name")

	playlist, ok := playlists.ByID(id)
	require.True(t, ok)
	assert.Equal(t, "New Name", playlist.Name)
	assert.True(t, playlist.UpdatedAt.After(before.UpdatedAt))
	assert.Len(t, recorder.ofType(domain.EventPlaylistRenamed), 1)
}

func TestPlaylistService_RenameMissingIsSilent(t *testing.T) {
	playlists, bus := newTestPlaylists(t)
	recorder := recordEvents(bus)

	playlists.Rename("missing", "whatever")

	assert.Empty(t, recorder.events)
}

func TestPlaylistService_Delete(t *testing.T) {
	playlists, bus := newTestPlaylists(t)

	id := playlists.Create("Doomed")
	recorder := recordEvents(bus)

	playlists.Delete(id)

	_, ok := playlists.ByID(id)
	assert.False(t, ok)

	deleted := recorder.ofType(domain.EventPlaylistDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, id, deleted[0].(domain.PlaylistDeletedEvent).PlaylistID)
}

func TestPlaylistService_AddSongIsIdempotent(t *testing.T) {
	playlists, bus := newTestPlaylists(t)

	id := playlists.Create("Mix")
	recorder := recordEvents(bus)

	playlists.AddSong(id, "2")
	playlists.AddSong(id, "2")

	playlist, _ := playlists.ByID(id)
	assert.Equal(t, []string{"2"}, playlist.Songs)
	// The duplicate add is a no-op and publishes nothing.
	assert.Len(t, recorder.ofType(domain.EventPlaylistSongsChanged), 1)
}

func TestPlaylistService_AddSongPreservesOrder(t *testing.T) {
	playlists, _ := newTestPlaylists(t)

	id := playlists.Create("Mix")
	playlists.AddSong(id, "3")
	playlists.AddSong(id, "1")
	playlists.AddSong(id, "5")

	playlist, _ := playlists.ByID(id)
	assert.Equal(t, []string{"3", "1", "5"}, playlist.Songs)
}

func TestPlaylistService_RemoveSong(t *testing.T) {
	playlists, _ := newTestPlaylists(t)

	id := playlists.Create("Mix")
	playlists.AddSong(id, "1")
	playlists.AddSong(id, "2")

	playlists.RemoveSong(id, "1")

	playlist, _ := playlists.ByID(id)
	assert.Equal(t, []string{"2"}, playlist.Songs)
}

func TestPlaylistService_RemoveSongDropsAllOccurrences(t *testing.T) {
	playlists, _ := newTestPlaylists(t)

	// Duplicates cannot be created through AddSong, but a persisted
	// snapshot may carry them; removal must still clear every copy.
	playlists.Restore([]domain.Playlist{{
		ID:    "pl-1",
		Name:  "dups",
		Songs: []string{"1", "2", "1"},
	}})

	playlists.RemoveSong("pl-1", "1")

	playlist, _ := playlists.ByID("pl-1")
	assert.Equal(t, []string{"2"}, playlist.Songs)
}

func TestPlaylistService_RemoveSongMissingIsSilent(t *testing.T) {
	playlists, bus := newTestPlaylists(t)

	id := playlists.Create("Mix")
	recorder := recordEvents(bus)

	playlists.RemoveSong(id, "404")
	playlists.RemoveSong("missing", "1")

	assert.Empty(t, recorder.ofType(domain.EventPlaylistSongsChanged))
}

func TestPlaylistService_Reorder(t *testing.T) {
	playlists, _ := newTestPlaylists(t)

	id := playlists.Create("Mix")
	playlists.AddSong(id, "1")
	playlists.AddSong(id, "2")
	playlists.AddSong(id, "3")

	// Remove-then-insert semantics: moving the head to the tail shifts
	// the rest left.
	playlists.Reorder(id, 0, 2)

	playlist, _ := playlists.ByID(id)
	assert.Equal(t, []string{"2", "3", "1"}, playlist.Songs)
}

func TestPlaylistService_ReorderBackward(t *testing.T) {
	playlists, _ := newTestPlaylists(t)

	id := playlists.Create("Mix")
	playlists.AddSong(id, "1")
	playlists.AddSong(id, "2")
	playlists.AddSong(id, "3")

	playlists.Reorder(id, 2, 0)

	playlist, _ := playlists.ByID(id)
	assert.Equal(t, []string{"3", "1", "2"}, playlist.Songs)
}

func TestPlaylistService_SongsResolvesAndDropsDangling(t *testing.T) {
	playlists, _ := newTestPlaylists(t)

	playlists.Restore([]domain.Playlist{{
		ID:    "pl-1",
		Name:  "stale",
		Songs: []string{"2", "gone", "4"},
	}})

	songs := playlists.Songs("pl-1")
	require.Len(t, songs, 2)
	assert.Equal(t, "Beta", songs[0].Name)
	assert.Equal(t, "Delta", songs[1].Name)

	assert.Nil(t, playlists.Songs("missing"))
}

func TestPlaylistService_AllReturnsCopies(t *testing.T) {
	playlists, _ := newTestPlaylists(t)

	id := playlists.Create("Mix")
	playlists.AddSong(id, "1")

	all := playlists.All()
	require.Len(t, all, 1)
	all[0].Name = "mutated"
	all[0].Songs[0] = "mutated"

	playlist, _ := playlists.ByID(id)
	assert.Equal(t, "Mix", playlist.Name)
	assert.Equal(t, []string{"1"}, playlist.Songs)
}
