package gfx

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/spaghettifunk/eomap/engine/assets/loaders"
	"github.com/spaghettifunk/eomap/engine/containers"
	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/fsaccess"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
	"github.com/spaghettifunk/eomap/engine/settings"
	"github.com/spaghettifunk/eomap/engine/systems"
)

// recentFailureCount bounds the failures kept for display.
const recentFailureCount = 16

// DefaultArchiveFileIDs are the archives every editor session needs.
var DefaultArchiveFileIDs = []int{3, 4, 5, 6, 7, 22}

// StrategyFactory builds the loading strategy for one run.
type StrategyFactory func(s *settings.Settings, connected bool, url string) (loaders.LoadingStrategy, error)

// LoaderChanged is called once the current loader was replaced, with the new
// loader or nil after Destroy. Anything derived from the previous loader is
// stale from then on.
type LoaderChanged func(current *GFXLoader)

type OrchestratorConfig struct {
	/** @brief When set, connected mode is always on and this URL wins over the settings. */
	ForceConnectedModeURL string
	/** @brief Archives loaded by every run. DefaultArchiveFileIDs when empty. */
	ArchiveFileIDs []int
	/** @brief Built-in raw assets used when the custom assets directory lacks a file. */
	BuiltinAssets fs.FS
	/** @brief Timeout of remote fetches. */
	HTTPTimeout time.Duration
	/** @brief Overrides strategy construction. */
	NewStrategy StrategyFactory
	/** @brief Notified after every promotion and after Destroy dropped a current loader. */
	OnLoaderChanged LoaderChanged
}

// Orchestrator rebuilds the GFXLoader whenever settings invalidate the
// current graphics. It holds at most one current and one pending loader.
type Orchestrator struct {
	config OrchestratorConfig

	mu         sync.Mutex
	generation uint64
	current    *GFXLoader
	pending    *GFXLoader
	errors     int
	failures   *containers.RingQueue[error]
}

func NewOrchestrator(config *OrchestratorConfig) *Orchestrator {
	c := OrchestratorConfig{}
	if config != nil {
		c = *config
	}
	if len(c.ArchiveFileIDs) == 0 {
		c.ArchiveFileIDs = DefaultArchiveFileIDs
	}
	if c.NewStrategy == nil {
		c.NewStrategy = c.defaultStrategy
	}
	return &Orchestrator{
		config:   c,
		failures: containers.NewRingQueue[error](recentFailureCount),
	}
}

// ConnectedMode reports whether graphics come from a remote server.
func (o *Orchestrator) ConnectedMode(s *settings.Settings) bool {
	return o.config.ForceConnectedModeURL != "" || (s != nil && s.ConnectedModeEnabled)
}

func (o *Orchestrator) connectedModeURL(s *settings.Settings) string {
	if o.config.ForceConnectedModeURL != "" {
		return o.config.ForceConnectedModeURL
	}
	return s.ConnectedModeURL
}

// Run loads the archive set through a fresh loader and promotes it once every
// load has settled. A run superseded by a newer Run or by Destroy discards its
// loader and returns core.ErrSuperseded.
func (o *Orchestrator) Run(ctx context.Context, s *settings.Settings) error {
	if s == nil {
		return fmt.Errorf("run orchestrator: no settings")
	}

	o.mu.Lock()
	if o.pending != nil {
		o.pending.Destroy()
		o.pending = nil
	}
	o.generation++
	gen := o.generation
	o.errors = 0
	o.failures.Clear()
	connected := o.ConnectedMode(s)
	o.mu.Unlock()

	strategy, err := o.config.NewStrategy(s, connected, o.connectedModeURL(s))
	if err != nil {
		o.fail(gen, err)
		core.LogError("failed to create loading strategy: %s", err)
		return err
	}
	loader := NewGFXLoader(strategy)

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		loader.Destroy()
		return core.ErrSuperseded
	}
	o.pending = loader
	o.mu.Unlock()

	core.LogInfo("loading %d archives (connected mode: %t, loader %s)", len(o.config.ArchiveFileIDs), connected, core.ShortIdentifier(loader.ID()))
	if err := o.loadAll(ctx, gen, loader); err != nil {
		o.mu.Lock()
		if o.pending == loader {
			o.pending = nil
		}
		o.mu.Unlock()
		loader.Destroy()
		if gen != o.currentGeneration() {
			return core.ErrSuperseded
		}
		return err
	}

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		loader.Destroy()
		return core.ErrSuperseded
	}
	previous := o.current
	o.current = loader
	o.pending = nil
	failed := o.errors
	o.mu.Unlock()

	if previous != nil {
		previous.Destroy()
	}
	o.notify(loader)
	core.LogInfo("loader %s is current (%d failed archives)", core.ShortIdentifier(loader.ID()), failed)
	return nil
}

// loadAll runs one job per archive and waits for all of them to settle.
func (o *Orchestrator) loadAll(ctx context.Context, gen uint64, loader *GFXLoader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ids := o.config.ArchiveFileIDs
	jobs, err := systems.NewJobSystem(len(ids), len(ids))
	if err != nil {
		return err
	}
	defer jobs.Shutdown()

	tasks := make([]metadata.JobTask, 0, len(ids))
	for _, fileID := range ids {
		fileID := fileID
		tasks = append(tasks, metadata.JobTask{
			Name:    fmt.Sprintf("load EGF %d", fileID),
			Context: ctx,
			OnStart: func(ctx context.Context) error {
				return loader.LoadEGF(ctx, fileID)
			},
			OnFailure: func(err error) {
				if o.fail(gen, err) {
					core.LogError("failed to load EGF %d: %s", fileID, err)
				}
			},
		})
	}
	return jobs.SubmitAndWait(tasks...)
}

// fail counts an error if gen is still the latest run.
func (o *Orchestrator) fail(gen uint64, err error) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		return false
	}
	o.errors++
	o.failures.Push(err)
	return true
}

// Destroy drops the pending and current loaders and resets the error counter.
// Runs in flight are superseded.
func (o *Orchestrator) Destroy() {
	o.mu.Lock()
	o.generation++
	pending, current := o.pending, o.current
	o.pending, o.current = nil, nil
	o.errors = 0
	o.failures.Clear()
	o.mu.Unlock()

	if pending != nil {
		pending.Destroy()
	}
	if current != nil {
		current.Destroy()
		o.notify(nil)
	}
}

func (o *Orchestrator) notify(current *GFXLoader) {
	if o.config.OnLoaderChanged != nil {
		o.config.OnLoaderChanged(current)
	}
}

func (o *Orchestrator) currentGeneration() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// Current returns the promoted loader, or nil while none has settled.
func (o *Orchestrator) Current() *GFXLoader {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

func (o *Orchestrator) ErrorCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.errors
}

// RecentErrors returns the latest failures of the current run, oldest first.
func (o *Orchestrator) RecentErrors() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failures.Items()
}

// Valid reports whether a loader is current and every archive loaded.
func (o *Orchestrator) Valid() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil && o.errors == 0
}

// RequiresReload reports whether moving from previous to next settings
// invalidates the loaded graphics.
func (o *Orchestrator) RequiresReload(ctx context.Context, previous, next *settings.Settings) (bool, error) {
	if previous == nil {
		return true, nil
	}
	if o.config.ForceConnectedModeURL != "" {
		return false, nil
	}
	if previous.ConnectedModeEnabled != next.ConnectedModeEnabled {
		return true, nil
	}
	if o.ConnectedMode(next) {
		return previous.ConnectedModeURL != next.ConnectedModeURL, nil
	}
	different, err := fsaccess.IsDifferentHandle(ctx, previous.GfxDirectory, next.GfxDirectory)
	if err != nil || different {
		return different, err
	}
	return fsaccess.IsDifferentHandle(ctx, previous.CustomAssetsDirectory, next.CustomAssetsDirectory)
}

func (c OrchestratorConfig) defaultStrategy(s *settings.Settings, connected bool, url string) (loaders.LoadingStrategy, error) {
	if connected {
		return loaders.NewRemoteLoadingStrategy(url, c.HTTPTimeout)
	}
	return loaders.NewLocalLoadingStrategy(s.GfxDirectory, s.CustomAssetsDirectory, c.BuiltinAssets)
}
