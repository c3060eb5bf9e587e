// Package assets watches graphics and custom asset directories and reports
// changed files so the editor can reload its graphics.
package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

var ErrWatcherClosed = errors.New("asset watcher already closed")

type AssetInfo struct {
	Path         string
	Type         metadata.ResourceType
	LastModified time.Time
}

// FileID returns the archive number of a gfxNNN.egf path.
func (a AssetInfo) FileID() (int, bool) {
	if a.Type != metadata.ResourceTypeArchive {
		return 0, false
	}
	name := strings.TrimSuffix(strings.ToLower(filepath.Base(a.Path)), ".egf")
	if !strings.HasPrefix(name, "gfx") {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(name, "gfx"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// OnChange receives the assets changed within one debounce window.
type OnChange func(changed []AssetInfo)

type Watcher struct {
	assets  map[string]AssetInfo
	pending map[string]AssetInfo

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool

	debounce time.Duration
	timer    *time.Timer
	onChange OnChange
}

func NewWatcher(debounce time.Duration, onChange OnChange) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		assets:   make(map[string]AssetInfo),
		pending:  make(map[string]AssetInfo),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		debounce: debounce,
		onChange: onChange,
	}
	go w.start()
	return w, nil
}

// Watch starts watching dir and all of its sub-directories.
func (w *Watcher) Watch(dir string) error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return ErrWatcherClosed
	}
	w.mutex.Unlock()
	return w.watchRecursive(dir)
}

// Reset stops watching every directory and forgets the indexed assets.
func (w *Watcher) Reset() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return ErrWatcherClosed
	}
	w.assets = make(map[string]AssetInfo)
	w.pending = make(map[string]AssetInfo)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mutex.Unlock()

	var errs []error
	for _, name := range w.fsnotify.WatchList() {
		if err := w.fsnotify.Remove(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Assets lists the indexed assets ordered by path.
func (w *Watcher) Assets() []AssetInfo {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	out := make([]AssetInfo, 0, len(w.assets))
	for _, a := range w.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	w.mutex.Unlock()

	<-w.stopped
	return nil
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {

		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := w.watchRecursive(e.Name); err != nil {
						core.LogWarn("watching %s: %s", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.handleFileEvent(e.Name, true)
			}
			// a removed or renamed path cannot be stat'ed; drop it from the
			// index and the watch list in case it was a directory
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.removeAsset(e.Name)
				_ = w.fsnotify.Remove(e.Name)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds every directory under path and indexes the files found
// on the way.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		w.handleFileEvent(walkPath, false)
		return nil
	})
}

// handleFileEvent indexes a created or modified file and, when notify is set,
// queues it for the next change batch.
func (w *Watcher) handleFileEvent(path string, notify bool) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}
	info := AssetInfo{
		Path:         path,
		Type:         assetType,
		LastModified: time.Now(),
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.assets[path] = info
	if !notify || w.onChange == nil || w.isClosed {
		return
	}
	w.pending[path] = info
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

func (w *Watcher) flush() {
	w.mutex.Lock()
	if w.isClosed || len(w.pending) == 0 {
		w.mutex.Unlock()
		return
	}
	changed := make([]AssetInfo, 0, len(w.pending))
	for _, a := range w.pending {
		changed = append(changed, a)
	}
	w.pending = make(map[string]AssetInfo)
	w.mutex.Unlock()

	sort.Slice(changed, func(i, j int) bool { return changed[i].Path < changed[j].Path })
	w.onChange(changed)
}

// Remove the asset from the index if it was deleted
func (w *Watcher) removeAsset(path string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	delete(w.assets, path)
	delete(w.pending, path)
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".egf":
		return metadata.ResourceTypeArchive
	case ".png":
		return metadata.ResourceTypeRaw
	default:
		return metadata.ResourceTypeNone
	}
}
