// Package ports defines the artwork extraction interface.
package ports

// ArtworkExtractor pulls embedded cover art out of an audio file. It is used
// as a fallback when a conventionally-constructed artwork locator fails to
// resolve.
type ArtworkExtractor interface {
	// Extract returns the embedded picture bytes for the audio file at the
	// given locator, or domain.ErrNoArtwork when the file has none.
	Extract(locator string) ([]byte, error)

	// ExtractToFile writes the embedded picture to a temporary file and
	// returns its path, or domain.ErrNoArtwork when the file has none.
	ExtractToFile(locator string) (string, error)
}
