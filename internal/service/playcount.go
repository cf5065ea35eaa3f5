package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

// DefaultTopPlayedLimit caps the most-played ranking.
const DefaultTopPlayedLimit = 50

// PlayCountService is the play-count ledger. Every mutation is a
// read-modify-write against the live map under the mutex, so concurrent
// increments from reconciliation events can never lose updates. The full
// map is persisted as one JSON blob after each mutation; persistence
// failures are logged and swallowed.
type PlayCountService struct {
	logger *slog.Logger
	store  ports.KeyValueStore

	mu     sync.RWMutex
	counts map[string]int
}

// NewPlayCountService creates the ledger and loads persisted counts.
// Unreadable or corrupt persisted data starts an empty ledger.
func NewPlayCountService(logger *slog.Logger, store ports.KeyValueStore) *PlayCountService {
	s := &PlayCountService{
		logger: logger,
		store:  store,
		counts: make(map[string]int),
	}
	s.load()

	logger.Debug("play count service initialized", slog.Int("tracked", len(s.counts)))
	return s
}

func (s *PlayCountService) load() {
	raw, err := s.store.Get(ports.KeyPlayCounts)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.logger.Warn("failed to load play counts", slog.Any("error", err))
		}
		return
	}

	var counts map[string]int
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		s.logger.Warn("corrupt play count data, starting empty", slog.Any("error", err))
		return
	}
	s.counts = counts
}

// Increment bumps the play count for a song and returns the new count.
func (s *PlayCountService) Increment(songID string) int {
	s.mu.Lock()
	s.counts[songID]++
	count := s.counts[songID]
	s.persistLocked()
	s.mu.Unlock()

	s.logger.Debug("play count incremented",
		slog.String("song_id", songID),
		slog.Int("count", count))
	return count
}

// Count returns the play count for a song, zero when never played.
func (s *PlayCountService) Count(songID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[songID]
}

// Counts returns a copy of the whole ledger.
func (s *PlayCountService) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.counts))
	for id, n := range s.counts {
		out[id] = n
	}
	return out
}

// Forget removes a song from the ledger. Used when a song is deleted from
// the library. Unknown IDs are a no-op.
func (s *PlayCountService) Forget(songID string) {
	s.mu.Lock()
	if _, ok := s.counts[songID]; ok {
		delete(s.counts, songID)
		s.persistLocked()
	}
	s.mu.Unlock()
}

// TopPlayed annotates songs with their play counts and returns the ones
// actually played, most played first, truncated to limit (0 means
// DefaultTopPlayedLimit). Ties keep the input order.
func (s *PlayCountService) TopPlayed(songs []domain.Song, limit int) []domain.RankedSong {
	if limit <= 0 {
		limit = DefaultTopPlayedLimit
	}

	s.mu.RLock()
	ranked := lo.FilterMap(songs, func(song domain.Song, _ int) (domain.RankedSong, bool) {
		count := s.counts[song.ID]
		return domain.RankedSong{Song: song, PlayCount: count}, count > 0
	})
	s.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PlayCount > ranked[j].PlayCount
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// persistLocked writes the ledger; callers hold s.mu. Serializing inside
// the lock keeps the persisted blob consistent with the live map.
func (s *PlayCountService) persistLocked() {
	data, err := json.Marshal(s.counts)
	if err != nil {
		s.logger.Warn("failed to encode play counts", slog.Any("error", err))
		return
	}
	if err := s.store.Set(ports.KeyPlayCounts, string(data)); err != nil {
		s.logger.Warn("failed to persist play counts", slog.Any("error", err))
	}
}
