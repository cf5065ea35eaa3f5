// Package ports defines interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of the
// platform collaborators: the playback engine, the media inventory, the
// key-value store and the artwork extractor.
package ports

import (
	"github.com/evxf/melodia/internal/domain"
)

// PlaybackEngine is the interface for the external track-playback transport.
// The engine owns buffering and decoding; the coordinator only hands it an
// ordered queue and transport intents, and consumes its asynchronous
// active-track notifications.
//
// Implementations must be thread-safe.
type PlaybackEngine interface {
	// Setup initializes the engine. Calling Setup twice returns
	// domain.ErrAlreadySetup; callers treat that as already satisfied.
	Setup() error

	// Reset clears the queue and stops playback.
	Reset() error

	// Add appends tracks to the engine queue.
	Add(tracks []domain.EngineTrack) error

	// Skip makes the track at the given queue index active.
	Skip(index int) error

	// Play starts or resumes playback of the active track.
	Play() error

	// Pause pauses playback, preserving position.
	Pause() error

	// SkipToNext and SkipToPrevious move within the engine queue. The
	// resulting track is learned through the active-track stream, never
	// guessed locally.
	SkipToNext() error
	SkipToPrevious() error

	// SeekTo sets the playback position in seconds. Clamping is the
	// engine's business.
	SeekTo(seconds float64) error

	// SetRepeatMode maps the coordinator repeat mode onto the engine.
	SetRepeatMode(mode domain.RepeatMode) error

	// Queue returns the currently loaded queue.
	Queue() ([]domain.EngineTrack, error)

	// IsPlaying reports whether the engine is playing or buffering.
	IsPlaying() (bool, error)

	// Position returns the current position and duration in seconds.
	Position() (pos, dur float64, err error)

	// ActiveTrackChanges returns the stream of active-track notifications.
	// The engine emits exactly one notification per actual track activation,
	// including automatic advance. The channel is closed when the engine
	// shuts down.
	ActiveTrackChanges() <-chan domain.EngineTrack
}
