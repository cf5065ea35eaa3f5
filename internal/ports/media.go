// Package ports defines the media inventory interface.
package ports

import (
	"context"

	"github.com/evxf/melodia/internal/domain"
)

// MediaInventory is the device media-access collaborator: it answers
// permission requests and enumerates audio assets.
//
// Thread-safety: implementations must be safe for concurrent use.
type MediaInventory interface {
	// RequestPermission asks for media access. It returns false (with a nil
	// error) on denial; errors are treated the same as denial by callers.
	RequestPermission(ctx context.Context) (bool, error)

	// ListAudioAssets returns up to limit audio assets. Order is
	// implementation-defined; the library applies its own sort.
	ListAudioAssets(ctx context.Context, limit int) ([]domain.AssetRecord, error)
}
