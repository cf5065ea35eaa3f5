package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

// maxLibraryAssets bounds a single inventory fetch.
const maxLibraryAssets = 1000

// Demo songs shown when media access is unavailable, so a first run never
// lands on an empty or broken library screen.
var demoSongs = []domain.Song{
	{
		ID:           "1",
		URI:          "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3",
		Title:        "Demonstração - Música 1",
		Artist:       "Evxf Sounds",
		Album:        "Álbum Demo",
		Duration:     372,
		DateAdded:    1735689600000,
		DateModified: 1735689600000,
	},
	{
		ID:           "2",
		URI:          "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-2.mp3",
		Title:        "Demonstração - Música 2",
		Artist:       "Evxf Sounds",
		Album:        "Álbum Demo",
		Duration:     425,
		DateAdded:    1735689600000,
		DateModified: 1735689600000,
	},
	{
		ID:           "3",
		URI:          "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-3.mp3",
		Title:        "Demonstração - Música 3",
		Artist:       "Evxf Sounds",
		Album:        "Álbum Demo",
		Duration:     320,
		DateAdded:    1735689600000,
		DateModified: 1735689600000,
	},
}

// DemoSongs returns a copy of the built-in demo library.
func DemoSongs() []domain.Song {
	out := make([]domain.Song, len(demoSongs))
	copy(out, demoSongs)
	return out
}

// LibraryService owns the in-memory library snapshot. Load replaces the
// snapshot wholesale; there is no incremental diffing. When the media
// inventory denies permission or fails, the service switches to demo mode
// instead of surfacing an error.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	logger    *slog.Logger
	inventory ports.MediaInventory
	sorter    *Sorter
	bus       ports.EventBus
	playlists *PlaylistService
	counts    *PlayCountService

	mu            sync.RWMutex
	songs         []domain.Song
	demoMode      bool
	hasPermission bool
}

// NewLibraryService creates a library service. The playlist and play-count
// services receive deletion propagation; either may be nil in tests that do
// not exercise DeleteSong.
func NewLibraryService(
	logger *slog.Logger,
	inventory ports.MediaInventory,
	sorter *Sorter,
	bus ports.EventBus,
	playlists *PlaylistService,
	counts *PlayCountService,
) *LibraryService {
	logger.Debug("library service initialized")
	return &LibraryService{
		logger:    logger,
		inventory: inventory,
		sorter:    sorter,
		bus:       bus,
		playlists: playlists,
		counts:    counts,
	}
}

// Load rebuilds the library snapshot. Permission denial or any inventory
// error falls back to the demo set; the only caller-visible signal is the
// demo-mode flag.
func (s *LibraryService) Load(ctx context.Context, sortKey domain.SortKey) []domain.Song {
	granted, err := s.inventory.RequestPermission(ctx)
	if err != nil {
		s.logger.Warn("media permission request failed", slog.Any("error", err))
		return s.enableDemoMode(sortKey)
	}
	if !granted {
		s.logger.Info("media permission denied, entering demo mode")
		return s.enableDemoMode(sortKey)
	}

	assets, err := s.inventory.ListAudioAssets(ctx, maxLibraryAssets)
	if err != nil {
		s.logger.Warn("audio asset listing failed, entering demo mode", slog.Any("error", err))
		return s.enableDemoMode(sortKey)
	}

	songs := make([]domain.Song, 0, len(assets))
	for _, asset := range assets {
		songs = append(songs, songFromAsset(asset))
	}
	sorted := s.sorter.Sort(songs, sortKey)

	s.mu.Lock()
	s.songs = sorted
	s.demoMode = false
	s.hasPermission = true
	s.mu.Unlock()

	s.logger.Info("library loaded", slog.Int("songs", len(sorted)))
	s.bus.Publish(domain.NewLibraryLoadedEvent(sorted, false))
	return s.Songs()
}

func (s *LibraryService) enableDemoMode(sortKey domain.SortKey) []domain.Song {
	sorted := s.sorter.Sort(DemoSongs(), sortKey)

	s.mu.Lock()
	s.songs = sorted
	s.demoMode = true
	s.hasPermission = false
	s.mu.Unlock()

	s.bus.Publish(domain.NewLibraryLoadedEvent(sorted, true))
	return s.Songs()
}

// songFromAsset normalizes an inventory record into a Song. The platform
// rarely supplies artist/album metadata, so those default to placeholders;
// the artwork locator follows the album-art convention and may not resolve.
func songFromAsset(asset domain.AssetRecord) domain.Song {
	title := strings.TrimSuffix(asset.Filename, filepath.Ext(asset.Filename))

	artwork := ""
	if asset.AlbumID != "" {
		artwork = "albumart://" + asset.AlbumID
	}

	return domain.Song{
		ID:           asset.ID,
		URI:          asset.Locator,
		Title:        title,
		Artist:       "Unknown Artist",
		Album:        "Unknown Album",
		Duration:     asset.DurationSeconds,
		Artwork:      artwork,
		DateAdded:    asset.CreatedAt,
		DateModified: asset.ModifiedAt,
	}
}

// Songs returns a copy of the current snapshot.
func (s *LibraryService) Songs() []domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Song, len(s.songs))
	copy(out, s.songs)
	return out
}

// Resort reorders the current snapshot in place by the given key.
func (s *LibraryService) Resort(sortKey domain.SortKey) []domain.Song {
	s.mu.Lock()
	s.songs = s.sorter.Sort(s.songs, sortKey)
	s.mu.Unlock()
	return s.Songs()
}

// Find returns the song with the given ID, or false when absent.
func (s *LibraryService) Find(id string) (domain.Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, song := range s.songs {
		if song.ID == id {
			return song, true
		}
	}
	return domain.Song{}, false
}

// IsDemoMode reports whether the library holds the demo set.
func (s *LibraryService) IsDemoMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demoMode
}

// HasPermission reports whether media access was granted on the last load.
func (s *LibraryService) HasPermission() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasPermission
}

// DeleteSong removes a song from the snapshot and propagates the removal
// into every playlist and the play-count ledger. Unknown IDs are a no-op.
func (s *LibraryService) DeleteSong(id string) {
	s.mu.Lock()
	// A fresh slice: the previous snapshot's backing array may still be
	// aliased by a published LibraryLoadedEvent payload.
	kept := make([]domain.Song, 0, len(s.songs))
	removed := false
	for _, song := range s.songs {
		if song.ID == id {
			removed = true
			continue
		}
		kept = append(kept, song)
	}
	s.songs = kept
	s.mu.Unlock()

	if !removed {
		return
	}

	s.logger.Info("song deleted", slog.String("song_id", id))
	if s.playlists != nil {
		s.playlists.RemoveSongEverywhere(id)
	}
	if s.counts != nil {
		s.counts.Forget(id)
	}
}

// Watch blocks until ctx is done, reloading the library whenever the
// inventory reports a change. Inventories without change support make this
// a plain wait.
func (s *LibraryService) Watch(ctx context.Context, sortKey func() domain.SortKey) error {
	watcher, ok := s.inventory.(interface {
		Watch(ctx context.Context, onChange func()) error
	})
	if !ok {
		<-ctx.Done()
		return ctx.Err()
	}

	return watcher.Watch(ctx, func() {
		s.logger.Debug("media change detected, reloading library")
		s.Load(ctx, sortKey())
	})
}
