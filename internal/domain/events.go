// Package domain defines events for the event-driven architecture.
// Events decouple the coordinator services from whatever presentation layer
// consumes them.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventActiveTrackChanged EventType = "playback.active_track_changed"
	EventPlaybackStopped    EventType = "playback.stopped"
	EventRepeatChanged      EventType = "playback.repeat_changed"
	EventShuffleToggled     EventType = "playback.shuffle_toggled"
	EventPlaybackError      EventType = "playback.error"

	// Library events
	EventLibraryLoaded EventType = "library.loaded"

	// Playlist events
	EventPlaylistsUpdated EventType = "playlists.updated"

	// Settings events
	EventSettingsChanged EventType = "settings.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// ActiveTrackChangedEvent is published after every reconciliation with the
// engine: the current song has been resolved against the library (or rebuilt
// from the engine payload) and its play count incremented.
type ActiveTrackChangedEvent struct {
	baseEvent
	Song      Song
	PlayCount int
	// FromLibrary is true when the song was resolved to a full library record.
	FromLibrary bool
}

// Type returns the event type.
func (e ActiveTrackChangedEvent) Type() EventType {
	return EventActiveTrackChanged
}

// NewActiveTrackChangedEvent creates a new ActiveTrackChangedEvent.
func NewActiveTrackChangedEvent(song Song, playCount int, fromLibrary bool) ActiveTrackChangedEvent {
	return ActiveTrackChangedEvent{
		baseEvent:   newBaseEvent(),
		Song:        song,
		PlayCount:   playCount,
		FromLibrary: fromLibrary,
	}
}

// PlaybackStoppedEvent is published when the queue is reset and the current
// song cleared.
type PlaybackStoppedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e PlaybackStoppedEvent) Type() EventType {
	return EventPlaybackStopped
}

// NewPlaybackStoppedEvent creates a new PlaybackStoppedEvent.
func NewPlaybackStoppedEvent() PlaybackStoppedEvent {
	return PlaybackStoppedEvent{baseEvent: newBaseEvent()}
}

// RepeatChangedEvent is published when the repeat mode cycles.
type RepeatChangedEvent struct {
	baseEvent
	Mode RepeatMode
}

// Type returns the event type.
func (e RepeatChangedEvent) Type() EventType {
	return EventRepeatChanged
}

// NewRepeatChangedEvent creates a new RepeatChangedEvent.
func NewRepeatChangedEvent(mode RepeatMode) RepeatChangedEvent {
	return RepeatChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// ShuffleToggledEvent is published when the shuffle flag flips.
type ShuffleToggledEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e ShuffleToggledEvent) Type() EventType {
	return EventShuffleToggled
}

// NewShuffleToggledEvent creates a new ShuffleToggledEvent.
func NewShuffleToggledEvent(enabled bool) ShuffleToggledEvent {
	return ShuffleToggledEvent{
		baseEvent: newBaseEvent(),
		Enabled:   enabled,
	}
}

// PlaybackErrorEvent is published when an engine operation fails. Local state
// keeps the optimistic update; the next reconciliation corrects drift.
type PlaybackErrorEvent struct {
	baseEvent
	Op  string
	Err error
}

// Type returns the event type.
func (e PlaybackErrorEvent) Type() EventType {
	return EventPlaybackError
}

// NewPlaybackErrorEvent creates a new PlaybackErrorEvent.
func NewPlaybackErrorEvent(op string, err error) PlaybackErrorEvent {
	return PlaybackErrorEvent{
		baseEvent: newBaseEvent(),
		Op:        op,
		Err:       err,
	}
}

// LibraryLoadedEvent is published when the library snapshot is replaced.
type LibraryLoadedEvent struct {
	baseEvent
	Songs    []Song
	DemoMode bool
}

// Type returns the event type.
func (e LibraryLoadedEvent) Type() EventType {
	return EventLibraryLoaded
}

// NewLibraryLoadedEvent creates a new LibraryLoadedEvent.
func NewLibraryLoadedEvent(songs []Song, demoMode bool) LibraryLoadedEvent {
	return LibraryLoadedEvent{
		baseEvent: newBaseEvent(),
		Songs:     songs,
		DemoMode:  demoMode,
	}
}

// PlaylistsUpdatedEvent is published after every persisted playlist mutation.
type PlaylistsUpdatedEvent struct {
	baseEvent
	Playlists []Playlist
}

// Type returns the event type.
func (e PlaylistsUpdatedEvent) Type() EventType {
	return EventPlaylistsUpdated
}

// NewPlaylistsUpdatedEvent creates a new PlaylistsUpdatedEvent.
func NewPlaylistsUpdatedEvent(playlists []Playlist) PlaylistsUpdatedEvent {
	return PlaylistsUpdatedEvent{
		baseEvent: newBaseEvent(),
		Playlists: playlists,
	}
}

// SettingsChangedEvent is published when a preference changes.
type SettingsChangedEvent struct {
	baseEvent
	Key   string
	Value string
}

// Type returns the event type.
func (e SettingsChangedEvent) Type() EventType {
	return EventSettingsChanged
}

// NewSettingsChangedEvent creates a new SettingsChangedEvent.
func NewSettingsChangedEvent(key, value string) SettingsChangedEvent {
	return SettingsChangedEvent{
		baseEvent: newBaseEvent(),
		Key:       key,
		Value:     value,
	}
}
