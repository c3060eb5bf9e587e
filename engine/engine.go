package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/spaghettifunk/eomap/engine/assets"
	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/document"
	"github.com/spaghettifunk/eomap/engine/fsaccess"
	"github.com/spaghettifunk/eomap/engine/gfx"
	"github.com/spaghettifunk/eomap/engine/math"
	"github.com/spaghettifunk/eomap/engine/platform"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
	"github.com/spaghettifunk/eomap/engine/settings"
	"github.com/spaghettifunk/eomap/engine/startup"
	"github.com/spaghettifunk/eomap/engine/systems"
	"golang.org/x/exp/slices"
)

type Stage uint8

const (
	// Editor is in an uninitialized state
	EditorStageUninitialized Stage = iota
	// Editor is loading settings and graphics
	EditorStageInitializing
	// Editor initialization is complete
	EditorStageInitialized
	// Editor is currently running
	EditorStageRunning
	// Editor is in the process of shutting down
	EditorStageShuttingDown
)

const (
	baseFrame              = "__BASE"
	defaultMaxTextureCount = 4096
)

// Editor wires settings, graphics loading and the open document together and
// derives the startup status from them.
type Editor struct {
	config       *ApplicationConfig
	currentStage Stage

	platform     *platform.Platform
	store        *settings.Store
	orchestrator *gfx.Orchestrator
	atlas        *systems.TextureSystem
	factory      *gfx.AssetFactory
	document     *document.MapState
	watcher      *assets.Watcher

	// assetMu orders atlas registrations against the atlas reset that follows
	// every loader change.
	assetMu sync.Mutex

	mu       sync.RWMutex
	settings *settings.Settings
	status   startup.Status
}

func New(config *ApplicationConfig, codec document.Codec) (*Editor, error) {
	if config == nil {
		config = DefaultApplicationConfig()
	}
	if config.LogLevel != "" && !core.SetLogLevel(config.LogLevel) {
		core.LogWarn("unknown log level %q", config.LogLevel)
	}

	if config.MaxTextureCount <= 0 {
		config.MaxTextureCount = defaultMaxTextureCount
	}

	p, err := platform.New()
	if err != nil {
		return nil, err
	}

	atlas, err := systems.NewTextureSystem(&systems.TextureSystemConfig{
		MaxTextureCount: uint32(config.MaxTextureCount),
	})
	if err != nil {
		return nil, err
	}

	e := &Editor{
		config:       config,
		currentStage: EditorStageUninitialized,
		platform:     p,
		store:        settings.NewStore(config.SettingsPath),
		atlas:        atlas,
		factory:      gfx.NewAssetFactory(atlas, config.Name),
		document:     document.NewMapState(codec),
		status:       startup.StatusLoadingSettings,
	}
	e.orchestrator = gfx.NewOrchestrator(&gfx.OrchestratorConfig{
		ForceConnectedModeURL: config.ForceConnectedModeURL,
		ArchiveFileIDs:        config.ArchiveFileIDs,
		BuiltinAssets:         os.DirFS(config.AssetsDir),
		HTTPTimeout:           config.HTTPTimeout,
		OnLoaderChanged:       e.onLoaderChanged,
	})

	if config.Watch {
		w, err := assets.NewWatcher(config.WatchDebounce, e.onAssetsChanged)
		if err != nil {
			return nil, err
		}
		e.watcher = w
	}
	return e, nil
}

// Initialize loads the stored settings and, when possible, the graphics.
func (e *Editor) Initialize(ctx context.Context) error {
	e.currentStage = EditorStageInitializing

	if err := e.platform.Startup(e.config.Name); err != nil {
		if errors.Is(err, core.ErrUnsupported) {
			e.currentStage = EditorStageInitialized
			return nil
		}
		return err
	}

	s, err := e.store.Load()
	if err != nil {
		return err
	}
	if err := e.UpdateSettings(ctx, s); err != nil {
		core.LogError("initial graphics load failed: %s", err)
	}

	e.currentStage = EditorStageInitialized
	return nil
}

// Settings returns a copy of the active settings, or nil before they loaded.
func (e *Editor) Settings() *settings.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings.Clone()
}

// UpdateSettings replaces the active settings and reloads graphics if needed.
func (e *Editor) UpdateSettings(ctx context.Context, next *settings.Settings) error {
	e.mu.Lock()
	previous := e.settings
	e.settings = next.Clone()
	e.mu.Unlock()
	return e.ManageSettings(ctx, previous)
}

// SaveSettings persists the active settings.
func (e *Editor) SaveSettings() error {
	s := e.Settings()
	if s == nil {
		return fmt.Errorf("save settings: %w", core.ErrNotFound)
	}
	return e.store.Save(s)
}

// ManageSettings reacts to a settings change from previous to the active
// settings.
func (e *Editor) ManageSettings(ctx context.Context, previous *settings.Settings) error {
	if !platform.FileSystemAccessSupported() {
		return nil
	}
	current := e.Settings()
	if current == nil {
		return nil
	}

	reload, err := e.orchestrator.RequiresReload(ctx, previous, current)
	if err != nil {
		return err
	}
	if !reload {
		return nil
	}

	e.orchestrator.Destroy()
	e.rewatch(current)

	if e.orchestrator.ConnectedMode(current) {
		return e.loadGFX(ctx)
	}
	if current.GfxDirectory != nil {
		return e.TryLoadingGFX(ctx)
	}
	return nil
}

// TryLoadingGFX loads graphics only once the gfx directory is set and every
// configured directory is readable.
func (e *Editor) TryLoadingGFX(ctx context.Context) error {
	s := e.Settings()
	if s == nil || s.GfxDirectory == nil {
		return nil
	}
	need, err := fsaccess.NeedsPermission(ctx, s.GfxDirectory)
	if err != nil || need {
		return err
	}
	need, err = fsaccess.NeedsPermission(ctx, s.CustomAssetsDirectory)
	if err != nil || need {
		return err
	}
	return e.loadGFX(ctx)
}

func (e *Editor) loadGFX(ctx context.Context) error {
	s := e.Settings()
	err := e.orchestrator.Run(ctx, s)
	if errors.Is(err, core.ErrSuperseded) {
		return nil
	}
	return err
}

// RequestGfxDirectoryPermission asks the user for access to the gfx directory
// and retries loading.
func (e *Editor) RequestGfxDirectoryPermission(ctx context.Context) error {
	s := e.Settings()
	if s == nil || s.GfxDirectory == nil {
		return fmt.Errorf("gfx directory: %w", core.ErrNotFound)
	}
	return e.requestPermission(ctx, s.GfxDirectory)
}

// RequestAssetsDirectoryPermission asks the user for access to the custom
// assets directory and retries loading.
func (e *Editor) RequestAssetsDirectoryPermission(ctx context.Context) error {
	s := e.Settings()
	if s == nil || s.CustomAssetsDirectory == nil {
		return fmt.Errorf("custom assets directory: %w", core.ErrNotFound)
	}
	return e.requestPermission(ctx, s.CustomAssetsDirectory)
}

func (e *Editor) requestPermission(ctx context.Context, h fsaccess.DirectoryHandle) error {
	state, err := h.RequestPermission(ctx)
	if err != nil {
		return err
	}
	core.LogInfo("permission for %s: %s", h.Name(), state)
	return e.TryLoadingGFX(ctx)
}

// StartupStatus derives the readiness of the editor.
func (e *Editor) StartupStatus(ctx context.Context) (startup.Status, error) {
	in := startup.Inputs{
		FileSystemAccessSupported: platform.FileSystemAccessSupported(),
		GfxErrors:                 e.orchestrator.ErrorCount(),
		LoaderReady:               e.orchestrator.Current() != nil,
		DocumentError:             e.document.Err() != nil,
		DocumentLoading:           e.document.Loading(),
	}
	s := e.Settings()
	in.SettingsLoaded = s != nil
	if s != nil {
		in.ConnectedMode = e.orchestrator.ConnectedMode(s)
		in.GfxDirectoryConfigured = s.GfxDirectory != nil
		in.AssetsDirectoryConfigured = s.CustomAssetsDirectory != nil
		var err error
		if in.GfxDirectoryPermissionNeeded, err = fsaccess.NeedsPermission(ctx, s.GfxDirectory); err != nil {
			return startup.StatusUnsupported, err
		}
		if in.AssetsDirectoryPermissionNeeded, err = fsaccess.NeedsPermission(ctx, s.CustomAssetsDirectory); err != nil {
			return startup.StatusUnsupported, err
		}
	}
	return startup.Evaluate(in), nil
}

// GfxErrors returns the most recent archive load failures.
func (e *Editor) GfxErrors() []error {
	return e.orchestrator.RecentErrors()
}

// ValidGFX reports whether a loader is current and no archive failed.
func (e *Editor) ValidGFX() bool {
	return e.orchestrator.Valid()
}

// OpenMap reads a map file from dir into the document.
func (e *Editor) OpenMap(ctx context.Context, dir fsaccess.DirectoryHandle, name string) error {
	return e.document.Open(ctx, dir, name)
}

func (e *Editor) Document() *document.MapState {
	return e.document
}

func (e *Editor) Factory() *gfx.AssetFactory {
	return e.factory
}

func (e *Editor) Atlas() *systems.TextureSystem {
	return e.atlas
}

// Loader returns the current graphics loader, or nil.
func (e *Editor) Loader() *gfx.GFXLoader {
	return e.orchestrator.Current()
}

// ResourceAsset registers the bitmap in the atlas on first use and derives its
// asset.
func (e *Editor) ResourceAsset(ctx context.Context, fileID, resourceID int) (*gfx.Asset, error) {
	e.assetMu.Lock()
	defer e.assetMu.Unlock()
	loader := e.Loader()
	if loader == nil {
		return nil, fmt.Errorf("resource %d/%d: no graphics loaded: %w", fileID, resourceID, core.ErrNotFound)
	}
	key := fmt.Sprintf("gfx%03d.%d", fileID, resourceID)
	if err := e.registerTexture(key, func() (image.Image, error) {
		return loader.LoadResource(ctx, fileID, resourceID)
	}); err != nil {
		return nil, err
	}
	return e.factory.CreateResource(key, baseFrame, fileID, resourceID)
}

func (e *Editor) SpecAsset(ctx context.Context, tileSpec int) (*gfx.Asset, error) {
	e.assetMu.Lock()
	defer e.assetMu.Unlock()
	key := gfx.SpecPath(tileSpec)
	if err := e.registerRaw(ctx, key); err != nil {
		return nil, err
	}
	return e.factory.CreateSpec(key, baseFrame, tileSpec)
}

func (e *Editor) EntityAsset(ctx context.Context, entityType int) (*gfx.Asset, error) {
	e.assetMu.Lock()
	defer e.assetMu.Unlock()
	key := gfx.EntityPath(entityType)
	if err := e.registerRaw(ctx, key); err != nil {
		return nil, err
	}
	return e.factory.CreateEntity(key, baseFrame, entityType)
}

func (e *Editor) BlackTileAsset(ctx context.Context) (*gfx.Asset, error) {
	e.assetMu.Lock()
	defer e.assetMu.Unlock()
	if err := e.registerRaw(ctx, gfx.BlackTilePath); err != nil {
		return nil, err
	}
	return e.factory.CreateBlackTile(gfx.BlackTilePath, baseFrame)
}

func (e *Editor) registerRaw(ctx context.Context, path string) error {
	loader := e.Loader()
	if loader == nil {
		return fmt.Errorf("raw asset %s: no graphics loaded: %w", path, core.ErrNotFound)
	}
	return e.registerTexture(path, func() (image.Image, error) {
		return loader.LoadRaw(ctx, path)
	})
}

// registerTexture adds a single source texture sized after the decoded image.
func (e *Editor) registerTexture(key string, decode func() (image.Image, error)) error {
	if _, err := e.atlas.Frame(key, baseFrame); err == nil {
		return nil
	}
	img, err := decode()
	if err != nil {
		return err
	}
	b := img.Bounds()
	err = e.atlas.AddTexture(key, math.Size{Width: b.Dx(), Height: b.Dy()})
	if err != nil && !errors.Is(err, systems.ErrTextureRegistered) {
		return err
	}
	return nil
}

// Run re-derives the startup status until ctx is done and logs every change.
func (e *Editor) Run(ctx context.Context) error {
	e.currentStage = EditorStageRunning
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	e.refreshStatus(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.refreshStatus(ctx)
		}
	}
}

func (e *Editor) refreshStatus(ctx context.Context) {
	status, err := e.StartupStatus(ctx)
	if err != nil {
		core.LogWarn("startup status: %s", err)
		return
	}
	e.mu.Lock()
	changed := status != e.status
	e.status = status
	e.mu.Unlock()
	if !changed {
		return
	}
	core.LogInfo("status: %s", status)
	if status == startup.StatusErrorGfx {
		for _, err := range e.orchestrator.RecentErrors() {
			core.LogWarn("gfx: %s", err)
		}
	}
}

// Status returns the last derived startup status.
func (e *Editor) Status() startup.Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

func (e *Editor) Shutdown() error {
	e.currentStage = EditorStageShuttingDown
	var errs []error
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	e.orchestrator.Destroy()
	e.document.Close()
	errs = append(errs, e.atlas.Shutdown(), e.platform.Shutdown())
	return errors.Join(errs...)
}

// rewatch points the watcher at the local directories of s.
func (e *Editor) rewatch(s *settings.Settings) {
	if e.watcher == nil {
		return
	}
	if err := e.watcher.Reset(); err != nil {
		core.LogWarn("resetting asset watcher: %s", err)
	}
	if e.orchestrator.ConnectedMode(s) {
		return
	}
	for _, h := range []fsaccess.DirectoryHandle{s.GfxDirectory, s.CustomAssetsDirectory} {
		d, ok := h.(*fsaccess.OSDirectory)
		if !ok {
			continue
		}
		if err := e.watcher.Watch(d.Path()); err != nil {
			core.LogWarn("watching %s: %s", d.Path(), err)
		}
	}
}

// onAssetsChanged reloads graphics when an archive of the load set or a raw
// asset changed on disk.
func (e *Editor) onAssetsChanged(changed []assets.AssetInfo) {
	relevant := false
	for _, a := range changed {
		if a.Type == metadata.ResourceTypeRaw {
			relevant = true
			break
		}
		if id, ok := a.FileID(); ok && e.inLoadSet(id) {
			relevant = true
			break
		}
	}
	if !relevant {
		return
	}
	core.LogInfo("%d asset(s) changed on disk, reloading graphics", len(changed))
	if err := e.TryLoadingGFX(context.Background()); err != nil {
		core.LogError("reloading graphics: %s", err)
	}
}

// onLoaderChanged drops every atlas entry derived from the previous loader.
func (e *Editor) onLoaderChanged(current *gfx.GFXLoader) {
	e.assetMu.Lock()
	defer e.assetMu.Unlock()
	e.atlas.Clear()
	if current != nil {
		core.LogDebug("atlas cleared for loader %s", core.ShortIdentifier(current.ID()))
	}
}

func (e *Editor) inLoadSet(fileID int) bool {
	ids := e.config.ArchiveFileIDs
	if len(ids) == 0 {
		ids = gfx.DefaultArchiveFileIDs
	}
	return slices.Contains(ids, fileID)
}
