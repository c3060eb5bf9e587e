package gfx

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/gfx/egf/egftest"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

var red = color.RGBA{R: 255, A: 255}

func archiveBytes() []byte {
	return egftest.Build(map[int][]byte{
		100: egftest.DIB24(4, 2, red),
		101: egftest.DIB24(2, 2, red),
	})
}

// fakeStrategy serves archives from memory. When gate is set every fetch
// blocks until it is closed.
type fakeStrategy struct {
	archives map[int][]byte
	failures map[int]error
	raws     map[string][]byte

	gate    chan struct{}
	started chan int

	mu      sync.Mutex
	fetched []int
	closes  atomic.Int32
}

func newFakeStrategy(ids ...int) *fakeStrategy {
	s := &fakeStrategy{
		archives: make(map[int][]byte),
		failures: make(map[int]error),
		raws:     make(map[string][]byte),
	}
	for _, id := range ids {
		s.archives[id] = archiveBytes()
	}
	return s
}

func (s *fakeStrategy) FetchArchive(ctx context.Context, fileID int) (*metadata.Resource, error) {
	if s.started != nil {
		s.started <- fileID
	}
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	s.fetched = append(s.fetched, fileID)
	s.mu.Unlock()

	if err, ok := s.failures[fileID]; ok {
		return nil, err
	}
	data, ok := s.archives[fileID]
	if !ok {
		return nil, fmt.Errorf("gfx%03d.egf: %w", fileID, core.ErrNotFound)
	}
	return metadata.NewResource(metadata.ResourceTypeArchive, fmt.Sprintf("gfx%03d.egf", fileID), "", data), nil
}

func (s *fakeStrategy) FetchRaw(ctx context.Context, path string) (*metadata.Resource, error) {
	data, ok := s.raws[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, core.ErrNotFound)
	}
	return metadata.NewResource(metadata.ResourceTypeRaw, path, path, data), nil
}

func (s *fakeStrategy) Close() error {
	s.closes.Add(1)
	return nil
}

func (s *fakeStrategy) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fetched)
}
