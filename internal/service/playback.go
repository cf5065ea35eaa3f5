package service

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

// PlaybackService is the bridge between the coordinator and the playback
// engine. It is the single source of transport intent: callers express
// "play this song in this context" and the service translates that into
// engine queue operations. The engine's asynchronous active-track stream is
// the source of truth for what is actually playing; local updates are
// optimistic and corrected by reconciliation.
// All operations are thread-safe via sync.RWMutex.
type PlaybackService struct {
	logger  *slog.Logger
	engine  ports.PlaybackEngine
	library *LibraryService
	counts  *PlayCountService
	bus     ports.EventBus

	mu           sync.RWMutex
	currentSong  *domain.Song
	isPlaying    bool
	repeatMode   domain.RepeatMode
	shuffle      bool
	queueContext []domain.Song // current queue order
	plainContext []domain.Song // pre-shuffle order, restored on disable
	// queue reorders re-activate the current track; that activation must
	// not count as a new play
	expectedResync int

	stopReconcile chan struct{}
	reconcileWg   sync.WaitGroup
}

// NewPlaybackService creates the bridge, runs engine setup and starts the
// reconciliation goroutine. A second setup of a shared engine is treated as
// already satisfied.
func NewPlaybackService(
	logger *slog.Logger,
	engine ports.PlaybackEngine,
	library *LibraryService,
	counts *PlayCountService,
	bus ports.EventBus,
) *PlaybackService {
	s := &PlaybackService{
		logger:        logger,
		engine:        engine,
		library:       library,
		counts:        counts,
		bus:           bus,
		repeatMode:    domain.RepeatOff,
		stopReconcile: make(chan struct{}),
	}

	if err := engine.Setup(); err != nil && !errors.Is(err, domain.ErrAlreadySetup) {
		logger.Warn("engine setup failed", slog.Any("error", err))
		s.bus.Publish(domain.NewPlaybackErrorEvent("setup", err))
	}

	s.reconcileWg.Add(1)
	go s.reconcile()

	logger.Debug("playback service initialized")
	return s
}

// PlaySong plays a song within a queue context. A nil or empty context means
// the current library order. When the engine queue already matches the
// target context (same length, same first track) the service skips in place;
// otherwise it reloads the whole queue.
func (s *PlaybackService) PlaySong(song domain.Song, context []domain.Song) {
	target := context
	if len(target) == 0 {
		target = s.library.Songs()
	}

	index := -1
	for i, t := range target {
		if t.ID == song.ID {
			index = i
			break
		}
	}
	if index == -1 {
		s.logger.Warn("song not in playback context", slog.String("song_id", song.ID))
		return
	}

	s.mu.Lock()
	sameQueue := len(s.queueContext) == len(target) &&
		len(target) > 0 &&
		s.queueContext[0].ID == target[0].ID
	s.mu.Unlock()

	if !sameQueue {
		if err := s.engine.Reset(); err != nil {
			s.reportEngineError("reset", err)
			return
		}
		if err := s.engine.Add(tracksFor(target)); err != nil {
			s.reportEngineError("add", err)
			return
		}
	}

	if err := s.engine.Skip(index); err != nil {
		s.reportEngineError("skip", err)
		return
	}
	if err := s.engine.Play(); err != nil {
		s.reportEngineError("play", err)
		return
	}

	s.mu.Lock()
	s.queueContext = append([]domain.Song(nil), target...)
	if !sameQueue {
		// a fresh queue starts unshuffled
		s.plainContext = append([]domain.Song(nil), target...)
		s.shuffle = false
	}
	s.currentSong = &song
	s.isPlaying = true
	s.mu.Unlock()
}

// TogglePlayPause pauses a playing engine or resumes a paused one. It is a
// no-op when nothing has been played yet.
func (s *PlaybackService) TogglePlayPause() {
	s.mu.RLock()
	hasCurrent := s.currentSong != nil
	s.mu.RUnlock()
	if !hasCurrent {
		return
	}

	playing, err := s.engine.IsPlaying()
	if err != nil {
		s.reportEngineError("is_playing", err)
		return
	}

	if playing {
		if err := s.engine.Pause(); err != nil {
			s.reportEngineError("pause", err)
			return
		}
	} else {
		if err := s.engine.Play(); err != nil {
			s.reportEngineError("play", err)
			return
		}
	}

	s.mu.Lock()
	s.isPlaying = !playing
	s.mu.Unlock()
}

// Stop resets the engine queue and clears the current song.
func (s *PlaybackService) Stop() {
	if err := s.engine.Reset(); err != nil {
		s.reportEngineError("reset", err)
	}

	s.mu.Lock()
	s.currentSong = nil
	s.isPlaying = false
	s.queueContext = nil
	s.plainContext = nil
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaybackStoppedEvent())
}

// Next delegates to the engine; the resulting track is learned through the
// active-track stream, never guessed locally.
func (s *PlaybackService) Next() {
	if err := s.engine.SkipToNext(); err != nil {
		s.reportEngineError("skip_to_next", err)
	}
}

// Previous delegates to the engine.
func (s *PlaybackService) Previous() {
	if err := s.engine.SkipToPrevious(); err != nil {
		s.reportEngineError("skip_to_previous", err)
	}
}

// Seek sets the playback position in seconds.
func (s *PlaybackService) Seek(seconds float64) {
	if err := s.engine.SeekTo(seconds); err != nil {
		s.reportEngineError("seek", err)
	}
}

// ToggleRepeat cycles off -> all -> one -> off and maps the new mode onto
// the engine.
func (s *PlaybackService) ToggleRepeat() domain.RepeatMode {
	s.mu.Lock()
	next := s.repeatMode.Next()
	s.repeatMode = next
	s.mu.Unlock()

	if err := s.engine.SetRepeatMode(next); err != nil {
		s.reportEngineError("set_repeat_mode", err)
	}

	s.bus.Publish(domain.NewRepeatChangedEvent(next))
	return next
}

// RepeatMode returns the current repeat mode.
func (s *PlaybackService) RepeatMode() domain.RepeatMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repeatMode
}

// ToggleShuffle physically reorders the live queue. Enabling keeps the
// current song first and shuffles the rest uniformly; disabling restores
// the pre-shuffle order. With nothing playing it only flips the flag.
func (s *PlaybackService) ToggleShuffle() bool {
	s.mu.Lock()
	enabled := !s.shuffle
	s.shuffle = enabled

	var reordered []domain.Song
	var current *domain.Song
	if s.currentSong != nil && len(s.queueContext) > 0 {
		current = s.currentSong
		if enabled {
			s.plainContext = append([]domain.Song(nil), s.queueContext...)
			reordered = shuffleKeepingFirst(s.queueContext, current.ID)
		} else if len(s.plainContext) > 0 {
			reordered = append([]domain.Song(nil), s.plainContext...)
		}
		if reordered != nil {
			s.queueContext = reordered
		}
	}
	s.mu.Unlock()

	if reordered != nil {
		s.reloadQueueAt(reordered, current)
	}

	s.bus.Publish(domain.NewShuffleToggledEvent(enabled))
	return enabled
}

// Shuffle reports whether shuffle is enabled.
func (s *PlaybackService) Shuffle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuffle
}

// PlayShuffled plays a uniform random permutation of the given songs,
// starting from the first shuffled element.
func (s *PlaybackService) PlayShuffled(songs []domain.Song) {
	if len(songs) == 0 {
		return
	}

	shuffled := make([]domain.Song, len(songs))
	copy(shuffled, songs)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if err := s.engine.Reset(); err != nil {
		s.reportEngineError("reset", err)
		return
	}
	if err := s.engine.Add(tracksFor(shuffled)); err != nil {
		s.reportEngineError("add", err)
		return
	}
	if err := s.engine.Play(); err != nil {
		s.reportEngineError("play", err)
		return
	}

	first := shuffled[0]

	s.mu.Lock()
	s.queueContext = shuffled
	s.plainContext = append([]domain.Song(nil), songs...)
	s.shuffle = true
	s.currentSong = &first
	s.isPlaying = true
	s.mu.Unlock()

	s.bus.Publish(domain.NewShuffleToggledEvent(true))
}

// State returns a snapshot of the derived playback state. Position and
// playing status come from the engine when reachable, the optimistic local
// values otherwise.
func (s *PlaybackService) State() domain.PlaybackState {
	s.mu.RLock()
	state := domain.PlaybackState{
		IsPlaying:    s.isPlaying,
		RepeatMode:   s.repeatMode,
		Shuffle:      s.shuffle,
		QueueContext: append([]domain.Song(nil), s.queueContext...),
	}
	if s.currentSong != nil {
		song := *s.currentSong
		state.CurrentSong = &song
	}
	s.mu.RUnlock()

	if playing, err := s.engine.IsPlaying(); err == nil {
		state.IsPlaying = playing
	}
	if pos, dur, err := s.engine.Position(); err == nil {
		state.Position = pos
		state.Duration = dur
	}
	return state
}

// CurrentSong returns the reconciled current song, nil when idle.
func (s *PlaybackService) CurrentSong() *domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentSong == nil {
		return nil
	}
	song := *s.currentSong
	return &song
}

// Shutdown stops the reconciliation goroutine and waits for it to exit.
func (s *PlaybackService) Shutdown() {
	close(s.stopReconcile)
	s.reconcileWg.Wait()
}

// reconcile consumes the engine's active-track stream. Every notification
// replaces the current song (resolved against the library snapshot when
// possible) and increments the play-count ledger, except for the expected
// re-activations caused by queue reorders.
func (s *PlaybackService) reconcile() {
	defer s.reconcileWg.Done()

	changes := s.engine.ActiveTrackChanges()
	for {
		select {
		case <-s.stopReconcile:
			return
		case track, ok := <-changes:
			if !ok {
				return
			}
			s.applyTrackChange(track)
		}
	}
}

func (s *PlaybackService) applyTrackChange(track domain.EngineTrack) {
	song, fromLibrary := s.library.Find(track.ID)
	if !fromLibrary {
		// best-effort record from the event payload
		song = domain.Song{
			ID:       track.ID,
			URI:      track.URL,
			Title:    track.Title,
			Artist:   track.Artist,
			Artwork:  track.Artwork,
			Duration: track.Duration,
		}
	}

	s.mu.Lock()
	suppressed := s.expectedResync > 0 &&
		s.currentSong != nil && s.currentSong.ID == track.ID
	if suppressed {
		s.expectedResync--
	}
	s.currentSong = &song
	s.isPlaying = true
	s.mu.Unlock()

	count := s.counts.Count(song.ID)
	if !suppressed {
		count = s.counts.Increment(song.ID)
	}

	s.logger.Debug("active track reconciled",
		slog.String("song_id", song.ID),
		slog.String("title", song.Title),
		slog.Bool("from_library", fromLibrary))

	s.bus.Publish(domain.NewActiveTrackChangedEvent(song, count, fromLibrary))
}

// reloadQueueAt swaps the engine queue for a reordered context while keeping
// the current track active and its position intact.
func (s *PlaybackService) reloadQueueAt(queue []domain.Song, current *domain.Song) {
	index := 0
	for i, song := range queue {
		if song.ID == current.ID {
			index = i
			break
		}
	}

	pos, _, posErr := s.engine.Position()
	playing, playErr := s.engine.IsPlaying()

	// The suppression must be registered before Skip can emit, and taken
	// back when Skip never succeeds, or it would swallow the next genuine
	// activation of the same song.
	s.mu.Lock()
	s.expectedResync++
	s.mu.Unlock()

	if err := s.engine.Reset(); err != nil {
		s.cancelResync()
		s.reportEngineError("reset", err)
		return
	}
	if err := s.engine.Add(tracksFor(queue)); err != nil {
		s.cancelResync()
		s.reportEngineError("add", err)
		return
	}
	if err := s.engine.Skip(index); err != nil {
		s.cancelResync()
		s.reportEngineError("skip", err)
		return
	}
	if posErr == nil && pos > 0 {
		if err := s.engine.SeekTo(pos); err != nil {
			s.reportEngineError("seek", err)
		}
	}
	if playErr == nil && playing {
		if err := s.engine.Play(); err != nil {
			s.reportEngineError("play", err)
		}
	}
}

// cancelResync withdraws a registered suppression after a reorder failed
// before activating anything.
func (s *PlaybackService) cancelResync() {
	s.mu.Lock()
	if s.expectedResync > 0 {
		s.expectedResync--
	}
	s.mu.Unlock()
}

// reportEngineError logs an engine failure and publishes it. Local state is
// kept; the next reconciliation corrects any drift.
func (s *PlaybackService) reportEngineError(op string, err error) {
	s.logger.Warn("engine operation failed",
		slog.String("op", op),
		slog.Any("error", err))
	s.bus.Publish(domain.NewPlaybackErrorEvent(op, err))
}

func tracksFor(songs []domain.Song) []domain.EngineTrack {
	tracks := make([]domain.EngineTrack, len(songs))
	for i, song := range songs {
		tracks[i] = domain.EngineTrack{
			ID:       song.ID,
			URL:      song.URI,
			Title:    song.Title,
			Artist:   song.Artist,
			Artwork:  song.Artwork,
			Duration: song.Duration,
		}
	}
	return tracks
}

// shuffleKeepingFirst returns a uniform permutation of songs with the song
// matching currentID moved to the front.
func shuffleKeepingFirst(songs []domain.Song, currentID string) []domain.Song {
	out := make([]domain.Song, len(songs))
	copy(out, songs)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	for i, song := range out {
		if song.ID == currentID {
			out[0], out[i] = out[i], out[0]
			break
		}
	}
	return out
}
