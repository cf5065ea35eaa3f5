package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/testutil"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MusicDirs = []string{t.TempDir()}
	cfg.DataPath = "" // in-memory store
	cfg.WatchLibrary = false
	cfg.LogLevel = slog.LevelWarn
	cfg.LogFormat = "text"
	return cfg
}

func TestNewApplicationWiresEverything(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	defer app.Shutdown()

	assert.NotNil(t, app.Library())
	assert.NotNil(t, app.Playback())
	assert.NotNil(t, app.Playlists())
	assert.NotNil(t, app.PlayCounts())
	assert.NotNil(t, app.Settings())
	assert.NotNil(t, app.Artwork())
}

func TestApplicationRunLoadsLibrary(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	defer app.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, app.Run(ctx))

	// An empty temp dir has no audio files, but scanning it succeeded, so
	// this is a real empty library rather than demo mode.
	assert.False(t, app.Library().IsDemoMode())
	assert.Empty(t, app.Library().Songs())
}

func TestApplicationPersistsAcrossRestarts(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "melodia.db")

	cfg := testConfig(t)
	cfg.DataPath = dataPath

	app, err := NewApplication(cfg)
	require.NoError(t, err)

	require.NoError(t, app.Settings().SetTheme("dark"))
	_, err = app.Playlists().Create("Persisted")
	require.NoError(t, err)
	app.Shutdown()

	app2, err := NewApplication(cfg)
	require.NoError(t, err)
	defer app2.Shutdown()

	assert.Equal(t, "dark", app2.Settings().Theme())
	require.Len(t, app2.Playlists().Playlists(), 1)
	assert.Equal(t, "Persisted", app2.Playlists().Playlists()[0].Name)
}

func TestApplicationDefaultSettings(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	defer app.Shutdown()

	assert.Equal(t, domain.SortByName, app.Settings().SortBy())
	assert.Equal(t, "light", app.Settings().Theme())
	assert.Equal(t, "pt", app.Settings().Language())
}

func TestApplicationShutdownIsClean(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)

	app.Shutdown()
	testutil.VerifyNoLeaks(t)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.WatchLibrary)
	assert.NotEmpty(t, cfg.LogFormat)
}

func TestVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, "dev", info.Version)
	assert.Contains(t, info.FullString(), "Melodia")
}
