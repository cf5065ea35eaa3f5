// Package ports defines the persistence interface.
package ports

// KeyValueStore is the persistent key-value collaborator. Each value is an
// independently-serialized blob under its own key; there is no transactional
// cross-key guarantee.
//
// Thread-safety: implementations must be safe for concurrent use.
type KeyValueStore interface {
	// Get returns the value for key, or domain.ErrKeyNotFound when absent.
	Get(key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Close releases the underlying storage.
	Close() error
}

// Well-known persisted keys.
const (
	KeyPlaylists  = "playlists"
	KeyPlayCounts = "playCounts"
	KeySortBy     = "sortBy"
	KeyTheme      = "theme"
	KeyLanguage   = "language"
)
