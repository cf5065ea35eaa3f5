package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evxf/melodia/internal/adapter/engine/mock"
	"github.com/evxf/melodia/internal/adapter/eventbus"
	"github.com/evxf/melodia/internal/adapter/storage/memory"
	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/logger"
	"github.com/evxf/melodia/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

// stubInventory serves a fixed asset list for library loading in tests.
type stubInventory struct {
	assets  []domain.AssetRecord
	granted bool
}

func (s *stubInventory) RequestPermission(context.Context) (bool, error) {
	return s.granted, nil
}

func (s *stubInventory) ListAudioAssets(context.Context, int) ([]domain.AssetRecord, error) {
	return s.assets, nil
}

type playbackFixture struct {
	playback *PlaybackService
	library  *LibraryService
	counts   *PlayCountService
	engine   *mock.Engine
	bus      *eventbus.SyncEventBus
}

func newPlaybackFixture(t *testing.T) *playbackFixture {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus()
	store := memory.NewStore()
	engine := mock.NewEngine()
	counts := NewPlayCountService(log, store)
	sorter := NewSorter("pt")

	inventory := &stubInventory{
		granted: true,
		assets: []domain.AssetRecord{
			{ID: "a", Locator: "/music/Alpha.mp3", Filename: "Alpha.mp3", DurationSeconds: 120},
			{ID: "b", Locator: "/music/Beta.mp3", Filename: "Beta.mp3", DurationSeconds: 90},
			{ID: "c", Locator: "/music/Gamma.mp3", Filename: "Gamma.mp3", DurationSeconds: 200},
		},
	}

	library := NewLibraryService(log, inventory, sorter, bus, nil, nil)
	library.Load(context.Background(), domain.SortByName)

	playback := NewPlaybackService(log, engine, library, counts, bus)

	t.Cleanup(func() {
		playback.Shutdown()
		engine.Close()
		_ = bus.Close()
		testutil.VerifyNoLeaks(t)
	})

	return &playbackFixture{
		playback: playback,
		library:  library,
		counts:   counts,
		engine:   engine,
		bus:      bus,
	}
}

func (f *playbackFixture) waitForCurrent(t *testing.T, songID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		current := f.playback.CurrentSong()
		return current != nil && current.ID == songID
	}, waitFor, tick, "current song never became %s", songID)
}

func (f *playbackFixture) waitForCount(t *testing.T, songID string, count int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.counts.Count(songID) == count
	}, waitFor, tick, "count for %s never reached %d", songID, count)
}

func TestPlaySongQueuesContextAndSkips(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlaySong(songs[1], nil)

	queue, err := f.engine.Queue()
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, "a", queue[0].ID)
	assert.Equal(t, 1, f.engine.ActiveIndex())

	f.waitForCurrent(t, "b")
	f.waitForCount(t, "b", 1)
}

func TestPlaySongSameContextSkipsInPlace(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlaySong(songs[0], songs)
	f.waitForCurrent(t, "a")

	f.playback.PlaySong(songs[2], songs)
	f.waitForCurrent(t, "c")

	// The queue was not reloaded, only skipped
	queue, err := f.engine.Queue()
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, 2, f.engine.ActiveIndex())
}

func TestPlaySongNotInContextIsNoOp(t *testing.T) {
	f := newPlaybackFixture(t)

	f.playback.PlaySong(domain.Song{ID: "ghost"}, f.library.Songs())

	assert.Nil(t, f.playback.CurrentSong())
	queue, err := f.engine.Queue()
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestAutoAdvanceReconciliation(t *testing.T) {
	f := newPlaybackFixture(t)

	// Library [Alpha, Beta, Gamma] by name; play Beta with no context.
	songs := f.library.Songs()
	f.playback.PlaySong(songs[1], nil)
	f.waitForCurrent(t, "b")
	f.waitForCount(t, "b", 1)

	// Engine advances to Gamma on its own.
	require.NoError(t, f.engine.SimulateTrackEnd())

	f.waitForCurrent(t, "c")
	f.waitForCount(t, "c", 1)

	current := f.playback.CurrentSong()
	require.NotNil(t, current)
	assert.Equal(t, "Gamma", current.Title)
}

func TestReconciliationResolvesFullLibraryRecord(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlaySong(songs[0], nil)
	f.waitForCurrent(t, "a")

	current := f.playback.CurrentSong()
	require.NotNil(t, current)
	// Full record from the library snapshot, not the truncated engine shape
	assert.Equal(t, "Unknown Artist", current.Artist)
	assert.Equal(t, "/music/Alpha.mp3", current.URI)
}

func TestTogglePlayPause(t *testing.T) {
	f := newPlaybackFixture(t)

	// Nothing playing yet: no-op
	f.playback.TogglePlayPause()
	assert.Nil(t, f.playback.CurrentSong())

	songs := f.library.Songs()
	f.playback.PlaySong(songs[0], nil)
	f.waitForCurrent(t, "a")
	f.waitForCount(t, "a", 1)

	f.playback.TogglePlayPause()
	playing, err := f.engine.IsPlaying()
	require.NoError(t, err)
	assert.False(t, playing)

	f.playback.TogglePlayPause()
	playing, err = f.engine.IsPlaying()
	require.NoError(t, err)
	assert.True(t, playing)

	// Pause then resume must not count as a new play
	assert.Equal(t, 1, f.counts.Count("a"))
}

func TestStopClearsState(t *testing.T) {
	f := newPlaybackFixture(t)

	var stopped int
	f.bus.Subscribe(domain.EventPlaybackStopped, func(domain.Event) {
		stopped++
	})

	songs := f.library.Songs()
	f.playback.PlaySong(songs[0], nil)
	f.waitForCurrent(t, "a")

	f.playback.Stop()

	assert.Nil(t, f.playback.CurrentSong())
	assert.Equal(t, 1, stopped)

	queue, err := f.engine.Queue()
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestNextAndPreviousDelegate(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlaySong(songs[1], nil)
	f.waitForCurrent(t, "b")

	f.playback.Next()
	f.waitForCurrent(t, "c")
	f.waitForCount(t, "c", 1)

	f.playback.Previous()
	f.waitForCurrent(t, "b")
	f.waitForCount(t, "b", 2)
}

func TestNextAtEndOfQueuePublishesError(t *testing.T) {
	f := newPlaybackFixture(t)

	var errs int
	f.bus.Subscribe(domain.EventPlaybackError, func(domain.Event) {
		errs++
	})

	songs := f.library.Songs()
	f.playback.PlaySong(songs[2], nil)
	f.waitForCurrent(t, "c")

	f.playback.Next()

	assert.Equal(t, 1, errs)
	// State kept
	current := f.playback.CurrentSong()
	require.NotNil(t, current)
	assert.Equal(t, "c", current.ID)
}

func TestToggleRepeatCycles(t *testing.T) {
	f := newPlaybackFixture(t)

	assert.Equal(t, domain.RepeatAll, f.playback.ToggleRepeat())
	assert.Equal(t, domain.RepeatOne, f.playback.ToggleRepeat())
	assert.Equal(t, domain.RepeatOff, f.playback.ToggleRepeat())

	assert.Equal(t, domain.RepeatOff, f.engine.RepeatMode())
}

func TestToggleShuffleReordersQueue(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlaySong(songs[1], nil)
	f.waitForCurrent(t, "b")
	f.waitForCount(t, "b", 1)

	enabled := f.playback.ToggleShuffle()
	assert.True(t, enabled)

	queue, err := f.engine.Queue()
	require.NoError(t, err)
	require.Len(t, queue, 3)
	// Current song moves to the front of the reordered queue
	assert.Equal(t, "b", queue[0].ID)
	assert.Equal(t, 0, f.engine.ActiveIndex())

	// The reorder re-activation must not inflate the play count
	assert.Never(t, func() bool {
		return f.counts.Count("b") > 1
	}, 300*time.Millisecond, 25*time.Millisecond)
}

func TestToggleShuffleOffRestoresOrder(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlaySong(songs[1], nil)
	f.waitForCurrent(t, "b")

	f.playback.ToggleShuffle()
	f.playback.ToggleShuffle()
	assert.False(t, f.playback.Shuffle())

	queue, err := f.engine.Queue()
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, "a", queue[0].ID)
	assert.Equal(t, "b", queue[1].ID)
	assert.Equal(t, "c", queue[2].ID)
}

func TestPlayShuffledUsesAllSongs(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlayShuffled(songs)

	assert.True(t, f.playback.Shuffle())

	queue, err := f.engine.Queue()
	require.NoError(t, err)
	require.Len(t, queue, 3)

	seen := map[string]bool{}
	for _, track := range queue {
		seen[track.ID] = true
	}
	assert.Len(t, seen, 3, "shuffle must be a permutation, not a resample")

	// First element of the permutation starts playing
	f.waitForCurrent(t, queue[0].ID)
	f.waitForCount(t, queue[0].ID, 1)
}

func TestFailedShuffleReloadDoesNotSwallowReplay(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlaySong(songs[1], nil)
	f.waitForCurrent(t, "b")
	f.waitForCount(t, "b", 1)

	// The shuffle reorder fails before any re-activation happens.
	f.engine.SetFailSkip(true)
	f.playback.ToggleShuffle()
	f.engine.SetFailSkip(false)

	// A later user-initiated replay of the same song is a real activation
	// and must still count.
	f.playback.PlaySong(songs[1], songs)
	f.waitForCount(t, "b", 2)
}

func TestPlayShuffledIsRoughlyUniform(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	const trials = 600

	// positions[p][id] counts how often song id lands at queue position p.
	positions := make([]map[string]int, len(songs))
	for p := range positions {
		positions[p] = make(map[string]int)
	}

	for n := 0; n < trials; n++ {
		f.playback.PlayShuffled(songs)

		queue, err := f.engine.Queue()
		require.NoError(t, err)
		require.Len(t, queue, len(songs))
		for p, track := range queue {
			positions[p][track.ID]++
		}
	}

	// Expected trials/3 = 200 per cell; ~5 standard deviations of slack
	// keeps the check meaningful without being flaky.
	for p, byID := range positions {
		for _, song := range songs {
			n := byID[song.ID]
			assert.Greater(t, n, 140, "song %s starved at position %d (%d/600)", song.ID, p, n)
			assert.Less(t, n, 260, "song %s dominates position %d (%d/600)", song.ID, p, n)
		}
	}
}

func TestShuffleKeepingFirstUniformTail(t *testing.T) {
	songs := []domain.Song{
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"},
	}
	const trials = 4000

	// Tail positions 1..4 over the four non-current songs: 1000 expected
	// per cell.
	positions := make([]map[string]int, len(songs))
	for p := range positions {
		positions[p] = make(map[string]int)
	}

	for n := 0; n < trials; n++ {
		out := shuffleKeepingFirst(songs, "c")
		require.Equal(t, "c", out[0].ID)
		for p, song := range out {
			positions[p][song.ID]++
		}
	}

	for p := 1; p < len(songs); p++ {
		for _, id := range []string{"a", "b", "d", "e"} {
			n := positions[p][id]
			assert.Greater(t, n, 850, "song %s starved at position %d (%d/4000)", id, p, n)
			assert.Less(t, n, 1150, "song %s dominates position %d (%d/4000)", id, p, n)
		}
	}
}

func TestReconciliationFallsBackToEnginePayload(t *testing.T) {
	f := newPlaybackFixture(t)

	events := make(chan domain.ActiveTrackChangedEvent, 1)
	f.bus.Subscribe(domain.EventActiveTrackChanged, func(e domain.Event) {
		if changed, ok := e.(domain.ActiveTrackChangedEvent); ok {
			select {
			case events <- changed:
			default:
			}
		}
	})

	// A track the library has never seen.
	foreign := domain.EngineTrack{
		ID:       "x9",
		URL:      "https://radio.example/stream",
		Title:    "Late Night Stream",
		Artist:   "Someone Else",
		Duration: 45,
	}
	require.NoError(t, f.engine.Add([]domain.EngineTrack{foreign}))
	require.NoError(t, f.engine.Play())

	f.waitForCurrent(t, "x9")
	f.waitForCount(t, "x9", 1)

	current := f.playback.CurrentSong()
	require.NotNil(t, current)
	assert.Equal(t, "Late Night Stream", current.Title)
	assert.Equal(t, "Someone Else", current.Artist)
	assert.Equal(t, "https://radio.example/stream", current.URI)
	assert.Equal(t, 45.0, current.Duration)

	select {
	case evt := <-events:
		assert.False(t, evt.FromLibrary)
		assert.Equal(t, "x9", evt.Song.ID)
		assert.Equal(t, 1, evt.PlayCount)
	case <-time.After(waitFor):
		t.Fatal("no active-track event arrived")
	}
}

func TestEngineFailureKeepsLocalState(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlaySong(songs[0], nil)
	f.waitForCurrent(t, "a")

	var errs int
	f.bus.Subscribe(domain.EventPlaybackError, func(domain.Event) {
		errs++
	})

	f.engine.SetFailSkip(true)
	f.playback.PlaySong(songs[2], songs)

	assert.Equal(t, 1, errs)
	current := f.playback.CurrentSong()
	require.NotNil(t, current)
	assert.Equal(t, "a", current.ID, "optimistic state must survive engine failure")
}

func TestStateSnapshot(t *testing.T) {
	f := newPlaybackFixture(t)

	songs := f.library.Songs()
	f.playback.PlaySong(songs[0], nil)
	f.waitForCurrent(t, "a")
	f.playback.Seek(30)

	state := f.playback.State()
	require.NotNil(t, state.CurrentSong)
	assert.Equal(t, "a", state.CurrentSong.ID)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, 30.0, state.Position)
	assert.Equal(t, 120.0, state.Duration)
	assert.Len(t, state.QueueContext, 3)
}

func TestShutdownStopsReconciliation(t *testing.T) {
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus()
	store := memory.NewStore()
	engine := mock.NewEngine()
	counts := NewPlayCountService(log, store)
	library := NewLibraryService(log, &stubInventory{}, NewSorter("pt"), bus, nil, nil)

	playback := NewPlaybackService(log, engine, library, counts, bus)
	playback.Shutdown()
	engine.Close()
	_ = bus.Close()

	testutil.VerifyNoLeaks(t)
}
