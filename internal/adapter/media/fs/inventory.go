// Package fs provides a filesystem-backed MediaInventory implementation.
// It walks configured music directories and reports audio files as assets.
package fs

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

// supported audio extensions, lowercase.
var audioExts = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".m4b":  true,
	".aac":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".wav":  true,
	".aif":  true,
	".aiff": true,
	".wma":  true,
}

// PermissionFunc lets the host decide whether media access is granted.
// A nil func means access is granted whenever at least one root is readable.
type PermissionFunc func(ctx context.Context) (bool, error)

// Inventory enumerates audio files under a set of root directories.
//
// Thread-safety: Inventory is immutable after construction and safe for
// concurrent use.
type Inventory struct {
	logger     *slog.Logger
	roots      []string
	permission PermissionFunc
}

// NewInventory creates a filesystem inventory over the given roots.
func NewInventory(logger *slog.Logger, roots []string, permission PermissionFunc) *Inventory {
	return &Inventory{
		logger:     logger,
		roots:      append([]string(nil), roots...),
		permission: permission,
	}
}

// RequestPermission reports whether media access is granted. Without a
// permission hook, access is granted when at least one root is a readable
// directory.
func (i *Inventory) RequestPermission(ctx context.Context) (bool, error) {
	if i.permission != nil {
		return i.permission(ctx)
	}

	for _, root := range i.roots {
		info, err := os.Stat(root)
		if err == nil && info.IsDir() {
			return true, nil
		}
	}
	return false, nil
}

// ListAudioAssets walks the roots and returns up to limit audio assets.
func (i *Inventory) ListAudioAssets(ctx context.Context, limit int) ([]domain.AssetRecord, error) {
	assets := make([]domain.AssetRecord, 0, 64)

	for _, root := range i.roots {
		if len(assets) >= limit {
			break
		}

		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				// Skip unreadable entries
				return nil
			}
			if entry.IsDir() {
				return nil
			}
			if !audioExts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if len(assets) >= limit {
				return fs.SkipAll
			}

			info, err := entry.Info()
			if err != nil {
				return nil
			}

			assets = append(assets, i.assetFor(path, info))
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, domain.NewServiceError("Inventory", "ListAudioAssets", root, err)
		}
	}

	i.logger.Debug("listed audio assets", slog.Int("count", len(assets)))
	return assets, nil
}

// assetFor builds an AssetRecord for one audio file. The album id is pulled
// from the file's tags when they are readable; it feeds the best-effort
// artwork locator convention and nothing else.
func (i *Inventory) assetFor(path string, info fs.FileInfo) domain.AssetRecord {
	modMillis := info.ModTime().UnixMilli()

	record := domain.AssetRecord{
		ID:       path,
		Locator:  path,
		Filename: filepath.Base(path),
		// Creation time is not portable; the modification time stands in.
		CreatedAt:  modMillis,
		ModifiedAt: modMillis,
	}

	if file, err := os.Open(path); err == nil {
		if metadata, err := tag.ReadFrom(file); err == nil && metadata != nil {
			record.AlbumID = strings.TrimSpace(metadata.Album())
		}
		_ = file.Close()
	}

	return record
}

// Roots returns the configured root directories.
func (i *Inventory) Roots() []string {
	return append([]string(nil), i.roots...)
}

// Verify interface implementation
var _ ports.MediaInventory = (*Inventory)(nil)
