package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	config := DefaultConfig()
	config.UseMockDevice = true
	config.DatabasePath = filepath.Join(t.TempDir(), "state.db")
	return config
}

func TestNewApplication(t *testing.T) {
	application, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, application)
	defer application.Shutdown()

	// Verify all services were created
	assert.NotNil(t, application.Catalog())
	assert.NotNil(t, application.Playlists())
	assert.NotNil(t, application.Player())
	assert.NotNil(t, application.Binding())
	assert.NotNil(t, application.EventBus())

	// The built-in catalog ships with the application
	assert.Positive(t, application.Catalog().Len())
}

func TestNewApplication_InMemoryPersistence(t *testing.T) {
	config := testConfig(t)
	config.DatabasePath = ""

	application, err := NewApplication(config)
	require.NoError(t, err)
	defer application.Shutdown()

	assert.NotNil(t, application.Player())
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotEmpty(t, config.DatabasePath)
	assert.False(t, config.UseMockDevice)
	assert.Empty(t, config.MusicDir)
}

func TestApplicationStatePersistsAcrossRestarts(t *testing.T) {
	config := testConfig(t)

	first, err := NewApplication(config)
	require.NoError(t, err)

	id := first.Playlists().Create("Favorites")
	first.Playlists().AddSong(id, "1")
	first.Player().SetCategory("K-Pop")
	first.Player().SetActivePlaylist(id)
	first.Shutdown()

	second, err := NewApplication(config)
	require.NoError(t, err)
	defer second.Shutdown()

	playlists := second.Playlists().All()
	require.Len(t, playlists, 1)
	assert.Equal(t, "Favorites", playlists[0].Name)
	assert.Equal(t, []string{"1"}, playlists[0].Songs)

	assert.Equal(t, "K-Pop", second.Player().SelectedCategory())
	require.NotNil(t, second.Player().ActivePlaylist())
	assert.Equal(t, id, *second.Player().ActivePlaylist())
}

func TestApplicationPlaybackThroughMockDevice(t *testing.T) {
	application, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	defer application.Shutdown()

	songs := application.Player().EffectiveSongs()
	require.NotEmpty(t, songs)

	application.Player().PlaySong(songs[0])

	state := application.Player().State()
	require.NotNil(t, state.CurrentSong)
	assert.Equal(t, songs[0].ID, state.CurrentSong.ID)
	assert.True(t, state.IsPlaying)
}
