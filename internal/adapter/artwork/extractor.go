// Package artwork extracts embedded album art from audio files.
// It is the fallback collaborator used when a conventionally-built artwork
// locator does not resolve.
package artwork

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dhowden/tag"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

// Extractor reads embedded pictures via the tag library.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new artwork extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the embedded picture bytes for the audio file at locator,
// or domain.ErrNoArtwork when the file carries none.
func (e *Extractor) Extract(locator string) ([]byte, error) {
	path := strings.TrimPrefix(locator, "file://")

	file, err := os.Open(path)
	if err != nil {
		return nil, domain.NewRepositoryError("extract", path, "failed to open file", err)
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		// Unreadable tags mean no artwork, not a hard failure
		e.logger.Debug("no readable tags", slog.String("path", path))
		return nil, domain.ErrNoArtwork
	}

	picture := metadata.Picture()
	if picture == nil || len(picture.Data) == 0 {
		return nil, domain.ErrNoArtwork
	}

	return picture.Data, nil
}

// ExtractToFile writes the embedded picture to a temporary file and returns
// its path, or domain.ErrNoArtwork when there is none.
func (e *Extractor) ExtractToFile(locator string) (string, error) {
	data, err := e.Extract(locator)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "melodia-artwork-*"+pictureExt(locator))
	if err != nil {
		return "", domain.NewRepositoryError("extract", locator, "failed to create temp file", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", domain.NewRepositoryError("extract", locator, "failed to write temp file", err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp artwork file: %w", err)
	}

	return tmp.Name(), nil
}

// pictureExt guesses a reasonable extension for the temp file. Embedded
// pictures are almost always JPEG.
func pictureExt(locator string) string {
	if strings.HasSuffix(strings.ToLower(locator), ".flac") {
		return ".png"
	}
	return ".jpg"
}

// Verify interface implementation
var _ ports.ArtworkExtractor = (*Extractor)(nil)
