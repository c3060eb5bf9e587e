package loaders

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/fsaccess"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

// LocalLoadingStrategy reads archives from the gfx directory and raw assets
// from the custom assets directory, falling back to the built-in assets.
type LocalLoadingStrategy struct {
	gfx      fsaccess.DirectoryHandle
	custom   fsaccess.DirectoryHandle
	fallback fs.FS
}

// NewLocalLoadingStrategy requires a gfx directory. custom and fallback may be
// nil.
func NewLocalLoadingStrategy(gfx, custom fsaccess.DirectoryHandle, fallback fs.FS) (*LocalLoadingStrategy, error) {
	if gfx == nil {
		return nil, fmt.Errorf("func NewLocalLoadingStrategy - gfx directory is required")
	}
	return &LocalLoadingStrategy{
		gfx:      gfx,
		custom:   custom,
		fallback: fallback,
	}, nil
}

func (s *LocalLoadingStrategy) FetchArchive(ctx context.Context, fileID int) (*metadata.Resource, error) {
	name := ArchiveName(fileID)
	data, err := s.gfx.ReadFile(ctx, name)
	if err != nil {
		return nil, classifyFSError(err)
	}
	return metadata.NewResource(metadata.ResourceTypeArchive, name, s.gfx.Name()+"/"+name, data), nil
}

func (s *LocalLoadingStrategy) FetchRaw(ctx context.Context, path string) (*metadata.Resource, error) {
	if s.custom != nil {
		data, err := s.custom.ReadFile(ctx, path)
		if err == nil {
			return metadata.NewResource(metadata.ResourceTypeRaw, path, s.custom.Name()+"/"+path, data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, classifyFSError(err)
		}
		core.LogDebug("%s not in custom assets, using built-in copy", path)
	}
	if s.fallback == nil {
		return nil, fmt.Errorf("raw asset %s: %w", path, core.ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fallback, path)
	if err != nil {
		return nil, classifyFSError(err)
	}
	return metadata.NewResource(metadata.ResourceTypeRaw, path, path, data), nil
}

// Close is a no-op; directory handles are owned by the settings.
func (s *LocalLoadingStrategy) Close() error {
	return nil
}

func classifyFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", core.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", core.ErrPermissionDenied, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
}
