// Package mock provides an in-memory implementation of the PlaybackEngine
// port. It simulates queue transport and active-track notifications without
// touching an audio device, for tests and the demo runtime.
package mock

import (
	"log/slog"
	"sync"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

// eventBuffer sizes the notification channel. Consumers read promptly; a
// full buffer drops the oldest-pending semantics in favor of a warning.
const eventBuffer = 64

// Engine is a mock implementation of the PlaybackEngine interface.
//
// Thread-safety: all operations protected by sync.Mutex.
type Engine struct {
	logger *slog.Logger

	mu       sync.Mutex
	ready    bool
	queue    []domain.EngineTrack
	active   int // -1 when no active track
	playing  bool
	position float64
	repeat   domain.RepeatMode

	events chan domain.EngineTrack
	closed bool

	// Behavior configuration (for testing error scenarios)
	failPlay bool
	failSkip bool
}

// NewEngine creates a new mock playback engine.
func NewEngine() *Engine {
	return &Engine{
		active: -1,
		repeat: domain.RepeatOff,
		events: make(chan domain.EngineTrack, eventBuffer),
	}
}

// SetLogger sets the logger for this engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailPlay configures the mock to fail Play calls (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetFailSkip configures the mock to fail Skip calls (for testing).
func (m *Engine) SetFailSkip(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSkip = fail
}

// Setup initializes the engine. A second call returns ErrAlreadySetup.
func (m *Engine) Setup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return domain.ErrAlreadySetup
	}
	m.ready = true
	return nil
}

// Reset clears the queue and stops playback. No notification is emitted.
func (m *Engine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}

	m.queue = nil
	m.active = -1
	m.playing = false
	m.position = 0
	return nil
}

// Add appends tracks to the queue.
func (m *Engine) Add(tracks []domain.EngineTrack) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}

	m.queue = append(m.queue, tracks...)
	return nil
}

// Skip makes the track at index active and emits a notification.
func (m *Engine) Skip(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}
	if m.failSkip {
		return domain.NewServiceError("mockEngine", "Skip", "injected failure", nil)
	}
	if len(m.queue) == 0 {
		return domain.ErrQueueEmpty
	}
	if index < 0 || index >= len(m.queue) {
		return domain.ErrInvalidIndex
	}

	m.activate(index)
	return nil
}

// Play starts or resumes playback. Starting on a fresh queue activates the
// first track and emits a notification.
func (m *Engine) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}
	if m.failPlay {
		return domain.NewServiceError("mockEngine", "Play", "injected failure", nil)
	}
	if len(m.queue) == 0 {
		return domain.ErrQueueEmpty
	}

	if m.active == -1 {
		m.activate(0)
	}
	m.playing = true
	return nil
}

// Pause pauses playback, preserving position.
func (m *Engine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}

	m.playing = false
	return nil
}

// SkipToNext advances within the queue, wrapping when repeat-all is set.
func (m *Engine) SkipToNext() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}
	if len(m.queue) == 0 {
		return domain.ErrQueueEmpty
	}

	next := m.active + 1
	if next >= len(m.queue) {
		if m.repeat != domain.RepeatAll {
			return domain.ErrEndOfQueue
		}
		next = 0
	}

	m.activate(next)
	return nil
}

// SkipToPrevious moves back within the queue, wrapping when repeat-all is set.
func (m *Engine) SkipToPrevious() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}
	if len(m.queue) == 0 {
		return domain.ErrQueueEmpty
	}

	prev := m.active - 1
	if prev < 0 {
		if m.repeat != domain.RepeatAll {
			return domain.ErrStartOfQueue
		}
		prev = len(m.queue) - 1
	}

	m.activate(prev)
	return nil
}

// SeekTo sets the playback position, clamped to the active track's duration.
func (m *Engine) SeekTo(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}
	if m.active == -1 {
		return domain.ErrQueueEmpty
	}

	if seconds < 0 {
		seconds = 0
	}
	if dur := m.queue[m.active].Duration; dur > 0 && seconds > dur {
		seconds = dur
	}
	m.position = seconds
	return nil
}

// SetRepeatMode stores the repeat mode. Unknown modes fall back to off.
func (m *Engine) SetRepeatMode(mode domain.RepeatMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}

	if !mode.Valid() {
		mode = domain.RepeatOff
	}
	m.repeat = mode
	return nil
}

// Queue returns a copy of the currently loaded queue.
func (m *Engine) Queue() ([]domain.EngineTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return nil, domain.ErrEngineNotReady
	}

	queue := make([]domain.EngineTrack, len(m.queue))
	copy(queue, m.queue)
	return queue, nil
}

// IsPlaying reports whether the engine is playing.
func (m *Engine) IsPlaying() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return false, domain.ErrEngineNotReady
	}
	return m.playing, nil
}

// Position returns the current position and duration in seconds.
func (m *Engine) Position() (float64, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return 0, 0, domain.ErrEngineNotReady
	}
	if m.active == -1 {
		return 0, 0, nil
	}
	return m.position, m.queue[m.active].Duration, nil
}

// ActiveTrackChanges returns the notification stream.
func (m *Engine) ActiveTrackChanges() <-chan domain.EngineTrack {
	return m.events
}

// SimulateTrackEnd drives the engine's automatic advance, as if the active
// track finished playing: repeat-one replays it silently, repeat-all wraps
// at the end of the queue, repeat-off stops after the last track.
func (m *Engine) SimulateTrackEnd() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return domain.ErrEngineNotReady
	}
	if m.active == -1 || !m.playing {
		return domain.ErrQueueEmpty
	}

	if m.repeat == domain.RepeatOne {
		// Same track restarts; no activation notification.
		m.position = 0
		return nil
	}

	next := m.active + 1
	if next >= len(m.queue) {
		if m.repeat != domain.RepeatAll {
			m.playing = false
			m.position = 0
			return nil
		}
		next = 0
	}

	m.activate(next)
	return nil
}

// ActiveIndex returns the active queue index, or -1 (for testing).
func (m *Engine) ActiveIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// RepeatMode returns the stored repeat mode (for testing).
func (m *Engine) RepeatMode() domain.RepeatMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repeat
}

// Close shuts the notification stream. Further emissions are dropped.
func (m *Engine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.events)
	}
}

// activate sets the active index and emits a notification.
// Caller must hold the lock.
func (m *Engine) activate(index int) {
	m.active = index
	m.position = 0

	if m.closed {
		return
	}
	select {
	case m.events <- m.queue[index]:
	default:
		if m.logger != nil {
			m.logger.Warn("dropping active-track notification, buffer full")
		}
	}
}

// Verify that Engine implements the PlaybackEngine interface
var _ ports.PlaybackEngine = (*Engine)(nil)
