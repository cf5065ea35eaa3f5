// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/evxf/melodia/internal/adapter/artwork"
	"github.com/evxf/melodia/internal/adapter/engine/mock"
	"github.com/evxf/melodia/internal/adapter/eventbus"
	mediafs "github.com/evxf/melodia/internal/adapter/media/fs"
	"github.com/evxf/melodia/internal/adapter/storage/bolt"
	"github.com/evxf/melodia/internal/adapter/storage/memory"
	"github.com/evxf/melodia/internal/logger"
	"github.com/evxf/melodia/internal/ports"
	"github.com/evxf/melodia/internal/service"
)

// Application is the root structure that holds all dependencies.
// It follows constructor-based dependency injection: NewApplication wires
// everything, Run drives the lifecycle, Shutdown tears it down in reverse.
type Application struct {
	// Core dependencies
	logger *slog.Logger
	config Config

	// Infrastructure
	eventBus ports.EventBus
	engine   ports.PlaybackEngine
	store    ports.KeyValueStore
	artwork  ports.ArtworkExtractor

	// Services
	sorter   *service.Sorter
	settings *service.SettingsService
	counts   *service.PlayCountService
	playlist *service.PlaylistService
	library  *service.LibraryService
	playback *service.PlaybackService
}

// Config holds application configuration.
type Config struct {
	// MusicDirs are the directories scanned for audio files. Empty means
	// the user's home music folder.
	MusicDirs []string

	// DataPath is the bbolt database file. Empty selects an in-memory
	// store, losing state on exit.
	DataPath string

	// WatchLibrary enables filesystem watching with automatic reloads.
	WatchLibrary bool

	// Engine overrides the playback engine (tests). Nil selects the
	// built-in in-memory engine.
	Engine ports.PlaybackEngine

	// LogLevel controls logging verbosity.
	LogLevel slog.Level

	// LogFormat is "text" or "json".
	LogFormat string
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()

	var musicDirs []string
	if home, err := os.UserHomeDir(); err == nil {
		musicDirs = []string{filepath.Join(home, "Music")}
	}

	var dataPath string
	if dir, err := os.UserConfigDir(); err == nil {
		dataPath = filepath.Join(dir, "melodia", "melodia.db")
	}

	return Config{
		MusicDirs:    musicDirs,
		DataPath:     dataPath,
		WatchLibrary: true,
		LogLevel:     loggerCfg.Level,
		LogFormat:    loggerCfg.Format,
	}
}

// NewApplication creates a new application with all dependencies wired.
func NewApplication(config Config) (*Application, error) {
	app := &Application{config: config}

	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
	})
	app.logger.Info("initializing application",
		slog.String("version", GetVersionInfo().FullString()))

	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	if config.Engine != nil {
		app.engine = config.Engine
	} else {
		engine := mock.NewEngine()
		engine.SetLogger(app.logger.With(slog.String("engine", "mock")))
		app.engine = engine
	}

	store, err := openStore(app.logger, config.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	app.store = store

	app.artwork = artwork.NewExtractor(app.logger.With(slog.String("component", "artwork")))

	inventory := mediafs.NewInventory(
		app.logger.With(slog.String("component", "inventory")),
		config.MusicDirs,
		nil,
	)

	app.settings = service.NewSettingsService(
		app.logger.With(slog.String("service", "settings")),
		app.store,
		app.eventBus,
	)

	app.sorter = service.NewSorter(app.settings.Language())

	app.counts = service.NewPlayCountService(
		app.logger.With(slog.String("service", "playcount")),
		app.store,
	)

	app.playlist = service.NewPlaylistService(
		app.logger.With(slog.String("service", "playlist")),
		app.store,
		app.eventBus,
	)

	app.library = service.NewLibraryService(
		app.logger.With(slog.String("service", "library")),
		inventory,
		app.sorter,
		app.eventBus,
		app.playlist,
		app.counts,
	)

	app.playback = service.NewPlaybackService(
		app.logger.With(slog.String("service", "playback")),
		app.engine,
		app.library,
		app.counts,
		app.eventBus,
	)

	return app, nil
}

// openStore selects the persistence backend: bbolt when a path is
// configured, in-memory otherwise.
func openStore(log *slog.Logger, path string) (ports.KeyValueStore, error) {
	if path == "" {
		log.Warn("no data path configured, state will not survive restarts")
		return memory.NewStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return bolt.Open(path)
}

// Run loads the library and blocks until ctx is cancelled, optionally
// watching the music directories for changes.
func (a *Application) Run(ctx context.Context) error {
	songs := a.library.Load(ctx, a.settings.SortBy())
	a.logger.Info("library ready",
		slog.Int("songs", len(songs)),
		slog.Bool("demo_mode", a.library.IsDemoMode()))

	if !a.config.WatchLibrary {
		<-ctx.Done()
		return nil
	}

	err := a.library.Watch(ctx, a.settings.SortBy)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the application.
func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	if a.playback != nil {
		a.playback.Shutdown()
	}

	if closer, ok := a.engine.(interface{ Close() }); ok {
		closer.Close()
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close store", slog.Any("error", err))
		}
	}

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}
	}

	a.logger.Info("application shutdown complete")
}

// Library exposes the library service.
func (a *Application) Library() *service.LibraryService { return a.library }

// Playback exposes the playback service.
func (a *Application) Playback() *service.PlaybackService { return a.playback }

// Playlists exposes the playlist service.
func (a *Application) Playlists() *service.PlaylistService { return a.playlist }

// PlayCounts exposes the play-count ledger.
func (a *Application) PlayCounts() *service.PlayCountService { return a.counts }

// Settings exposes the settings service.
func (a *Application) Settings() *service.SettingsService { return a.settings }

// Artwork exposes the artwork extractor.
func (a *Application) Artwork() ports.ArtworkExtractor { return a.artwork }
