package gfx

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spaghettifunk/eomap/engine/assets/loaders"
	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/gfx/egf"
)

type resourceKey struct {
	fileID     int
	resourceID int
}

// GFXLoader owns one loading strategy and the archives fetched through it.
// Once destroyed it fetches nothing and results that arrive late are dropped.
type GFXLoader struct {
	id       string
	strategy loaders.LoadingStrategy
	logger   *log.Logger

	mu        sync.Mutex
	archives  map[int]*egf.Archive
	resources map[resourceKey]image.Image
	raws      map[string]image.Image
	destroyed bool
}

func NewGFXLoader(strategy loaders.LoadingStrategy) *GFXLoader {
	id := core.NewIdentifier()
	return &GFXLoader{
		id:        id,
		strategy:  strategy,
		logger:    core.Logger().With("loader", core.ShortIdentifier(id)),
		archives:  make(map[int]*egf.Archive),
		resources: make(map[resourceKey]image.Image),
		raws:      make(map[string]image.Image),
	}
}

func (l *GFXLoader) ID() string {
	return l.id
}

// LoadEGF fetches and indexes one archive. Failures are *LoadError values;
// a loader destroyed before or during the fetch returns core.ErrDestroyed.
func (l *GFXLoader) LoadEGF(ctx context.Context, fileID int) error {
	l.mu.Lock()
	if l.destroyed {
		l.mu.Unlock()
		return core.ErrDestroyed
	}
	if _, ok := l.archives[fileID]; ok {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	res, err := l.strategy.FetchArchive(ctx, fileID)
	if err != nil {
		return newLoadError(fileID, err)
	}
	archive, err := egf.Parse(res.Data)
	if err != nil {
		return newLoadError(fileID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.destroyed {
		l.logger.Debug("discarding archive fetched after destroy", "file", fileID)
		return core.ErrDestroyed
	}
	l.archives[fileID] = archive
	l.logger.Debug("loaded archive", "file", fileID, "bitmaps", archive.Len(), "bytes", res.DataSize)
	return nil
}

// Loaded reports whether the archive was fetched successfully.
func (l *GFXLoader) Loaded(fileID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.archives[fileID]
	return ok
}

// ResourceIDs lists the bitmaps of a loaded archive.
func (l *GFXLoader) ResourceIDs(fileID int) ([]int, error) {
	archive, err := l.archive(fileID)
	if err != nil {
		return nil, err
	}
	return archive.ResourceIDs(), nil
}

// LoadResource decodes a bitmap of a loaded archive. Decoded images are cached
// for the lifetime of the loader.
func (l *GFXLoader) LoadResource(ctx context.Context, fileID, resourceID int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := resourceKey{fileID: fileID, resourceID: resourceID}
	l.mu.Lock()
	if img, ok := l.resources[key]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	archive, err := l.archive(fileID)
	if err != nil {
		return nil, err
	}
	img, err := archive.Decode(resourceID)
	if err != nil {
		return nil, fmt.Errorf("EGF %d: %w", fileID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.destroyed {
		return nil, core.ErrDestroyed
	}
	l.resources[key] = img
	return img, nil
}

// LoadRaw fetches and decodes a standalone image through the strategy.
func (l *GFXLoader) LoadRaw(ctx context.Context, path string) (image.Image, error) {
	l.mu.Lock()
	if l.destroyed {
		l.mu.Unlock()
		return nil, core.ErrDestroyed
	}
	if img, ok := l.raws[path]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	res, err := l.strategy.FetchRaw(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("raw asset %s: %w", path, err)
	}
	img, _, err := image.Decode(bytes.NewReader(res.Data))
	if err != nil {
		return nil, fmt.Errorf("raw asset %s: %w: %v", path, core.ErrMalformed, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.destroyed {
		return nil, core.ErrDestroyed
	}
	l.raws[path] = img
	return img, nil
}

// Destroy drops every cached archive and closes the strategy. Only the first
// call has any effect.
func (l *GFXLoader) Destroy() {
	l.mu.Lock()
	if l.destroyed {
		l.mu.Unlock()
		return
	}
	l.destroyed = true
	l.archives = make(map[int]*egf.Archive)
	l.resources = make(map[resourceKey]image.Image)
	l.raws = make(map[string]image.Image)
	l.mu.Unlock()

	if err := l.strategy.Close(); err != nil {
		l.logger.Warn("closing loading strategy", "err", err)
	}
	l.logger.Debug("destroyed")
}

func (l *GFXLoader) Destroyed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.destroyed
}

func (l *GFXLoader) archive(fileID int) (*egf.Archive, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.destroyed {
		return nil, core.ErrDestroyed
	}
	archive, ok := l.archives[fileID]
	if !ok {
		return nil, fmt.Errorf("EGF %d not loaded: %w", fileID, core.ErrNotFound)
	}
	return archive, nil
}
