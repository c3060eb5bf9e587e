package gfx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spaghettifunk/eomap/engine/assets/loaders"
	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/fsaccess"
	"github.com/spaghettifunk/eomap/engine/settings"
	"github.com/spaghettifunk/eomap/engine/startup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence hands out the given strategies in order, one per run.
func sequence(strategies ...*fakeStrategy) StrategyFactory {
	var mu sync.Mutex
	return func(*settings.Settings, bool, string) (loaders.LoadingStrategy, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(strategies) == 0 {
			return nil, errors.New("no strategy left")
		}
		s := strategies[0]
		strategies = strategies[1:]
		return s, nil
	}
}

func localSettings() *settings.Settings {
	return &settings.Settings{
		GfxDirectory: fsaccess.NewMemoryDirectory("gfx", fsaccess.PermissionGranted, nil),
	}
}

func readiness(o *Orchestrator) startup.Status {
	return startup.Evaluate(startup.Inputs{
		FileSystemAccessSupported: true,
		SettingsLoaded:            true,
		GfxDirectoryConfigured:    true,
		GfxErrors:                 o.ErrorCount(),
		LoaderReady:               o.Current() != nil,
	})
}

func TestOrchestratorPartialFailure(t *testing.T) {
	strategy := newFakeStrategy(3, 4, 5, 6)
	o := NewOrchestrator(&OrchestratorConfig{NewStrategy: sequence(strategy)})

	require.NoError(t, o.Run(context.Background(), localSettings()))

	assert.Equal(t, 2, o.ErrorCount())
	require.NotNil(t, o.Current())
	assert.False(t, o.Valid())
	assert.Equal(t, 6, strategy.fetchCount())
	assert.True(t, o.Current().Loaded(3))
	assert.False(t, o.Current().Loaded(22))
	assert.Equal(t, startup.StatusErrorGfx, readiness(o))

	failures := o.RecentErrors()
	require.Len(t, failures, 2)
	for _, err := range failures {
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, LoadErrorNotFound, le.Kind)
		assert.Contains(t, []int{7, 22}, le.FileID)
	}
}

func TestOrchestratorAllLoaded(t *testing.T) {
	strategy := newFakeStrategy(DefaultArchiveFileIDs...)
	o := NewOrchestrator(&OrchestratorConfig{NewStrategy: sequence(strategy)})

	require.NoError(t, o.Run(context.Background(), localSettings()))
	assert.Zero(t, o.ErrorCount())
	assert.True(t, o.Valid())
	assert.Equal(t, startup.StatusReady, readiness(o))
}

func TestOrchestratorPromotionDestroysPrevious(t *testing.T) {
	first := newFakeStrategy(DefaultArchiveFileIDs...)
	second := newFakeStrategy(DefaultArchiveFileIDs...)
	o := NewOrchestrator(&OrchestratorConfig{NewStrategy: sequence(first, second)})
	ctx := context.Background()

	require.NoError(t, o.Run(ctx, localSettings()))
	previous := o.Current()
	require.NoError(t, o.Run(ctx, localSettings()))

	assert.NotSame(t, previous, o.Current())
	assert.True(t, previous.Destroyed())
	assert.Equal(t, int32(1), first.closes.Load())
	assert.Zero(t, second.closes.Load())
}

func TestOrchestratorSupersededRun(t *testing.T) {
	stale := newFakeStrategy()
	stale.gate = make(chan struct{})
	stale.started = make(chan int, len(DefaultArchiveFileIDs))
	fresh := newFakeStrategy(DefaultArchiveFileIDs...)
	o := NewOrchestrator(&OrchestratorConfig{NewStrategy: sequence(stale, fresh)})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- o.Run(ctx, localSettings())
	}()
	for range DefaultArchiveFileIDs {
		<-stale.started
	}

	require.NoError(t, o.Run(ctx, localSettings()))
	promoted := o.Current()

	// every stale fetch now fails; none of it may be counted
	close(stale.gate)
	assert.ErrorIs(t, <-done, core.ErrSuperseded)

	assert.Equal(t, len(DefaultArchiveFileIDs), stale.fetchCount())
	assert.Equal(t, int32(1), stale.closes.Load())
	assert.Same(t, promoted, o.Current())
	assert.False(t, promoted.Destroyed())
	assert.Zero(t, o.ErrorCount())
	assert.True(t, o.Valid())
}

func TestOrchestratorDestroyResetsErrors(t *testing.T) {
	strategy := newFakeStrategy(3, 4, 5, 6)
	o := NewOrchestrator(&OrchestratorConfig{NewStrategy: sequence(strategy)})
	require.NoError(t, o.Run(context.Background(), localSettings()))
	require.Equal(t, 2, o.ErrorCount())
	loader := o.Current()

	o.Destroy()
	o.Destroy()

	assert.Zero(t, o.ErrorCount())
	assert.Empty(t, o.RecentErrors())
	assert.Nil(t, o.Current())
	assert.True(t, loader.Destroyed())
	assert.Equal(t, int32(1), strategy.closes.Load())
	assert.Equal(t, startup.StatusLoadingGfx, readiness(o))
}

func TestOrchestratorStrategyFailureCounts(t *testing.T) {
	o := NewOrchestrator(&OrchestratorConfig{NewStrategy: sequence()})
	err := o.Run(context.Background(), localSettings())
	assert.Error(t, err)
	assert.Equal(t, 1, o.ErrorCount())
	assert.Nil(t, o.Current())
}

func TestOrchestratorRemoteStrategy(t *testing.T) {
	archive := archiveBytes()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gfx/gfx003.egf" {
			_, _ = w.Write(archive)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	o := NewOrchestrator(&OrchestratorConfig{
		ForceConnectedModeURL: srv.URL,
		ArchiveFileIDs:        []int{3, 4},
	})
	require.NoError(t, o.Run(context.Background(), &settings.Settings{}))

	assert.True(t, o.ConnectedMode(&settings.Settings{}))
	assert.Equal(t, 1, o.ErrorCount())
	assert.True(t, o.Current().Loaded(3))
	assert.False(t, o.Current().Loaded(4))
	o.Destroy()
}

func TestOrchestratorLocalStrategyNeedsDirectory(t *testing.T) {
	o := NewOrchestrator(nil)
	err := o.Run(context.Background(), &settings.Settings{})
	assert.Error(t, err)
	assert.Equal(t, 1, o.ErrorCount())
}

func TestRequiresReload(t *testing.T) {
	ctx := context.Background()
	gfxA := fsaccess.NewMemoryDirectory("a", fsaccess.PermissionGranted, nil)
	gfxA2 := fsaccess.NewMemoryDirectory("a", fsaccess.PermissionGranted, nil)
	gfxB := fsaccess.NewMemoryDirectory("b", fsaccess.PermissionGranted, nil)
	assets := fsaccess.NewMemoryDirectory("assets", fsaccess.PermissionGranted, nil)

	testCases := []struct {
		name     string
		force    string
		previous *settings.Settings
		next     *settings.Settings
		want     bool
	}{
		{"first settings", "", nil, &settings.Settings{}, true},
		{"forced url", "http://eo", nil, &settings.Settings{}, true},
		{"forced url ignores changes", "http://eo",
			&settings.Settings{ConnectedModeURL: "x"},
			&settings.Settings{ConnectedModeEnabled: true, ConnectedModeURL: "y"}, false},
		{"connected toggled", "",
			&settings.Settings{GfxDirectory: gfxA},
			&settings.Settings{GfxDirectory: gfxA, ConnectedModeEnabled: true}, true},
		{"connected url changed", "",
			&settings.Settings{ConnectedModeEnabled: true, ConnectedModeURL: "http://a"},
			&settings.Settings{ConnectedModeEnabled: true, ConnectedModeURL: "http://b"}, true},
		{"connected ignores directories", "",
			&settings.Settings{ConnectedModeEnabled: true, ConnectedModeURL: "http://a", GfxDirectory: gfxA},
			&settings.Settings{ConnectedModeEnabled: true, ConnectedModeURL: "http://a", GfxDirectory: gfxB}, false},
		{"same gfx entry", "",
			&settings.Settings{GfxDirectory: gfxA},
			&settings.Settings{GfxDirectory: gfxA2}, false},
		{"different gfx entry", "",
			&settings.Settings{GfxDirectory: gfxA},
			&settings.Settings{GfxDirectory: gfxB}, true},
		{"assets directory added", "",
			&settings.Settings{GfxDirectory: gfxA},
			&settings.Settings{GfxDirectory: gfxA, CustomAssetsDirectory: assets}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o := NewOrchestrator(&OrchestratorConfig{ForceConnectedModeURL: tc.force})
			got, err := o.RequiresReload(ctx, tc.previous, tc.next)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrchestratorNotifiesLoaderChanges(t *testing.T) {
	var changes []*GFXLoader
	o := NewOrchestrator(&OrchestratorConfig{
		NewStrategy: sequence(newFakeStrategy(DefaultArchiveFileIDs...), newFakeStrategy(DefaultArchiveFileIDs...)),
		OnLoaderChanged: func(current *GFXLoader) {
			changes = append(changes, current)
		},
	})
	ctx := context.Background()

	require.NoError(t, o.Run(ctx, localSettings()))
	first := o.Current()
	require.NoError(t, o.Run(ctx, localSettings()))
	second := o.Current()
	o.Destroy()
	o.Destroy()

	require.Len(t, changes, 3)
	assert.Same(t, first, changes[0])
	assert.Same(t, second, changes[1])
	assert.Nil(t, changes[2])
}

func TestOrchestratorCancelledRunDropsPendingLoader(t *testing.T) {
	strategy := newFakeStrategy(DefaultArchiveFileIDs...)
	o := NewOrchestrator(&OrchestratorConfig{NewStrategy: sequence(strategy)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := o.Run(ctx, localSettings())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, o.Current())
	assert.Nil(t, o.pending)
	assert.Equal(t, int32(1), strategy.closes.Load())
	assert.Zero(t, strategy.fetchCount())
}
