// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Melodia music coordinator.
package domain

import (
	"time"
)

// Song represents one playable audio item as normalized by the library.
type Song struct {
	// ID is a stable identifier, unique within the current library snapshot.
	// Two songs with the same ID are always the same track for selection,
	// play counting and playlist membership.
	ID string `json:"id"`

	// URI is a locator the playback engine can resolve to a byte stream.
	URI string `json:"uri"`

	// Title is the display title (from metadata or the filename).
	Title string `json:"title"`

	// Artist is the performing artist, or a placeholder when unknown.
	Artist string `json:"artist"`

	// Album is the album name, or a placeholder when unknown.
	Album string `json:"album"`

	// Duration is the track length in seconds. Zero means unknown.
	Duration float64 `json:"duration"`

	// Artwork is an optional locator for cover art. It may not resolve;
	// resolution is the artwork extractor's concern, not the library's.
	Artwork string `json:"artwork,omitempty"`

	// DateAdded and DateModified are epoch milliseconds, used only for sorting.
	DateAdded    int64 `json:"dateAdded"`
	DateModified int64 `json:"dateModified"`
}

// RankedSong is a Song annotated with its play count.
type RankedSong struct {
	Song
	PlayCount int `json:"playCount"`
}

// Playlist is a user-defined named ordered collection of song snapshots.
// Playlists hold their own copies of songs, so a library deletion must be
// propagated explicitly.
type Playlist struct {
	// ID is generated at creation time and stable for the playlist's lifetime.
	ID string `json:"id"`

	// Name is mutable; callers reject empty or whitespace-only names.
	Name string `json:"name"`

	// Songs is the ordered membership. Order is user-controlled and
	// duplicates are permitted.
	Songs []Song `json:"songs"`

	// CreatedAt is fixed at creation.
	CreatedAt time.Time `json:"createdAt"`
}

// EngineTrack is the truncated track shape the playback engine reports back.
// It carries only the fields the bridge pushed into the queue.
type EngineTrack struct {
	ID       string
	URL      string
	Title    string
	Artist   string
	Artwork  string
	Duration float64
}

// AssetRecord is one audio asset as reported by the media inventory.
type AssetRecord struct {
	ID              string
	Locator         string
	Filename        string
	DurationSeconds float64
	AlbumID         string
	CreatedAt       int64 // epoch ms
	ModifiedAt      int64 // epoch ms
}

// SortKey selects the library sort order.
type SortKey string

const (
	SortByName         SortKey = "name"
	SortByDateAdded    SortKey = "dateAdded"
	SortByDateModified SortKey = "dateModified"
)

// RepeatMode controls queue repetition in the playback engine.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// Next returns the mode that follows in the user-facing cycle
// off -> all -> one -> off. An unknown mode is treated as off,
// so cycling from it yields all.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	case RepeatOne:
		return RepeatOff
	default:
		return RepeatAll
	}
}

// Valid reports whether the mode is a known value.
func (m RepeatMode) Valid() bool {
	switch m {
	case RepeatOff, RepeatAll, RepeatOne:
		return true
	}
	return false
}

// PlaybackState is the derived state of the coordinator. It is never stored;
// it always reconciles to the engine's reported truth.
type PlaybackState struct {
	// CurrentSong is the song currently loaded in the engine (nil if none).
	CurrentSong *Song

	// IsPlaying is derived from the engine-reported state. Buffering counts
	// as playing.
	IsPlaying bool

	// Position and Duration are seconds, as reported by the engine.
	Position float64
	Duration float64

	// RepeatMode is the active repeat mode.
	RepeatMode RepeatMode

	// Shuffle is the shuffle flag.
	Shuffle bool

	// QueueContext is the ordered list of songs most recently handed to the
	// engine, used to detect whether a re-queue is necessary.
	QueueContext []Song
}
