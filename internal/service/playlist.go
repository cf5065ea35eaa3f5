package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

// PlaylistService manages user playlists. Every mutation rewrites the whole
// playlist array and persists it as one JSON blob; operating on a missing
// playlist ID is a silent no-op. Songs are stored as snapshots and a
// playlist may contain the same song more than once.
// All operations are thread-safe via sync.RWMutex.
type PlaylistService struct {
	logger *slog.Logger
	store  ports.KeyValueStore
	bus    ports.EventBus

	mu        sync.RWMutex
	playlists []domain.Playlist
}

// NewPlaylistService creates a playlist service and loads persisted
// playlists. Unreadable or corrupt data starts empty.
func NewPlaylistService(logger *slog.Logger, store ports.KeyValueStore, bus ports.EventBus) *PlaylistService {
	s := &PlaylistService{
		logger: logger,
		store:  store,
		bus:    bus,
	}
	s.load()

	logger.Debug("playlist service initialized", slog.Int("playlists", len(s.playlists)))
	return s
}

func (s *PlaylistService) load() {
	raw, err := s.store.Get(ports.KeyPlaylists)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.logger.Warn("failed to load playlists", slog.Any("error", err))
		}
		return
	}

	var playlists []domain.Playlist
	if err := json.Unmarshal([]byte(raw), &playlists); err != nil {
		s.logger.Warn("corrupt playlist data, starting empty", slog.Any("error", err))
		return
	}
	s.playlists = playlists
}

// Create adds an empty playlist. The name must be non-empty after trimming.
func (s *PlaylistService) Create(name string) (domain.Playlist, error) {
	return s.CreateWithSongs(name, nil)
}

// CreateWithSongs adds a playlist pre-filled with the given songs.
func (s *PlaylistService) CreateWithSongs(name string, songs []domain.Song) (domain.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Playlist{}, domain.ErrEmptyName
	}

	playlist := domain.Playlist{
		ID:        uuid.NewString(),
		Name:      name,
		Songs:     append([]domain.Song(nil), songs...),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.playlists = append(s.playlists, playlist)
	s.persistLocked()
	s.mu.Unlock()

	s.logger.Info("playlist created",
		slog.String("playlist_id", playlist.ID),
		slog.String("name", name))
	s.publishUpdated()
	return playlist, nil
}

// AddSong appends one song to a playlist. Duplicates are permitted.
func (s *PlaylistService) AddSong(playlistID string, song domain.Song) {
	s.AddSongs(playlistID, []domain.Song{song})
}

// AddSongs appends songs to a playlist in order, without deduplication.
// A missing playlist ID is a silent no-op.
func (s *PlaylistService) AddSongs(playlistID string, songs []domain.Song) {
	if len(songs) == 0 {
		return
	}

	s.mutate(playlistID, func(p *domain.Playlist) {
		p.Songs = append(p.Songs, songs...)
	})
}

// RemoveSong removes every occurrence of a song from a playlist.
func (s *PlaylistService) RemoveSong(playlistID, songID string) {
	s.mutate(playlistID, func(p *domain.Playlist) {
		p.Songs = lo.Reject(p.Songs, func(song domain.Song, _ int) bool {
			return song.ID == songID
		})
	})
}

// Rename changes a playlist's name. Empty names are ignored.
func (s *PlaylistService) Rename(playlistID, newName string) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return
	}

	s.mutate(playlistID, func(p *domain.Playlist) {
		p.Name = newName
	})
}

// Reorder replaces a playlist's songs wholesale with the given order.
// The caller guarantees newOrder is a permutation of the current songs.
func (s *PlaylistService) Reorder(playlistID string, newOrder []domain.Song) {
	s.mutate(playlistID, func(p *domain.Playlist) {
		p.Songs = append([]domain.Song(nil), newOrder...)
	})
}

// Delete removes a playlist. Missing IDs are a silent no-op.
func (s *PlaylistService) Delete(playlistID string) {
	s.mu.Lock()
	before := len(s.playlists)
	s.playlists = lo.Reject(s.playlists, func(p domain.Playlist, _ int) bool {
		return p.ID == playlistID
	})
	changed := len(s.playlists) != before
	if changed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if changed {
		s.logger.Info("playlist deleted", slog.String("playlist_id", playlistID))
		s.publishUpdated()
	}
}

// RemoveSongEverywhere removes a deleted library song from every playlist.
func (s *PlaylistService) RemoveSongEverywhere(songID string) {
	s.mu.Lock()
	changed := false
	for i := range s.playlists {
		before := len(s.playlists[i].Songs)
		s.playlists[i].Songs = lo.Reject(s.playlists[i].Songs, func(song domain.Song, _ int) bool {
			return song.ID == songID
		})
		if len(s.playlists[i].Songs) != before {
			changed = true
		}
	}
	if changed {
		s.persistLocked()
	}
	s.mu.Unlock()

	if changed {
		s.publishUpdated()
	}
}

// Playlists returns a copy of all playlists.
func (s *PlaylistService) Playlists() []domain.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPlaylists(s.playlists)
}

// Get returns the playlist with the given ID, or false when absent.
func (s *PlaylistService) Get(id string) (domain.Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.playlists {
		if p.ID == id {
			return copyPlaylist(p), true
		}
	}
	return domain.Playlist{}, false
}

// mutate applies fn to the playlist with the given ID, then persists and
// publishes. Missing IDs are a silent no-op.
func (s *PlaylistService) mutate(playlistID string, fn func(*domain.Playlist)) {
	s.mu.Lock()
	found := false
	for i := range s.playlists {
		if s.playlists[i].ID == playlistID {
			fn(&s.playlists[i])
			found = true
			break
		}
	}
	if found {
		s.persistLocked()
	}
	s.mu.Unlock()

	if found {
		s.publishUpdated()
	}
}

// persistLocked writes the whole playlist array; callers hold s.mu.
// Storage failures are logged and swallowed, in-memory state stays
// authoritative for the session.
func (s *PlaylistService) persistLocked() {
	data, err := json.Marshal(s.playlists)
	if err != nil {
		s.logger.Warn("failed to encode playlists", slog.Any("error", err))
		return
	}
	if err := s.store.Set(ports.KeyPlaylists, string(data)); err != nil {
		s.logger.Warn("failed to persist playlists", slog.Any("error", err))
	}
}

func (s *PlaylistService) publishUpdated() {
	s.bus.Publish(domain.NewPlaylistsUpdatedEvent(s.Playlists()))
}

func copyPlaylists(in []domain.Playlist) []domain.Playlist {
	out := make([]domain.Playlist, len(in))
	for i, p := range in {
		out[i] = copyPlaylist(p)
	}
	return out
}

func copyPlaylist(p domain.Playlist) domain.Playlist {
	p.Songs = append([]domain.Song(nil), p.Songs...)
	return p
}
