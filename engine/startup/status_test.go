package startup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ready() Inputs {
	return Inputs{
		FileSystemAccessSupported: true,
		SettingsLoaded:            true,
		GfxDirectoryConfigured:    true,
		LoaderReady:               true,
	}
}

func TestEvaluate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Inputs)
		want   Status
	}{
		{"ready", func(in *Inputs) {}, StatusReady},
		{"unsupported outranks everything", func(in *Inputs) {
			*in = Inputs{}
		}, StatusUnsupported},
		{"settings loading", func(in *Inputs) {
			in.SettingsLoaded = false
			in.GfxDirectoryConfigured = false
		}, StatusLoadingSettings},
		{"no gfx directory", func(in *Inputs) {
			in.GfxDirectoryConfigured = false
			in.GfxErrors = 3
		}, StatusNeedGfxDirectory},
		{"gfx permission", func(in *Inputs) {
			in.GfxDirectoryPermissionNeeded = true
			in.AssetsDirectoryConfigured = true
			in.AssetsDirectoryPermissionNeeded = true
		}, StatusNeedGfxDirectoryPermission},
		{"assets permission", func(in *Inputs) {
			in.AssetsDirectoryConfigured = true
			in.AssetsDirectoryPermissionNeeded = true
			in.GfxErrors = 1
		}, StatusNeedAssetsDirectoryPermission},
		{"unconfigured assets directory is ignored", func(in *Inputs) {
			in.AssetsDirectoryPermissionNeeded = true
		}, StatusReady},
		{"connected mode skips directories", func(in *Inputs) {
			in.ConnectedMode = true
			in.GfxDirectoryConfigured = false
			in.AssetsDirectoryConfigured = true
			in.AssetsDirectoryPermissionNeeded = true
		}, StatusReady},
		{"gfx errors", func(in *Inputs) {
			in.GfxErrors = 2
			in.DocumentError = true
		}, StatusErrorGfx},
		{"loading gfx", func(in *Inputs) {
			in.LoaderReady = false
			in.DocumentLoading = true
		}, StatusLoadingGfx},
		{"document error", func(in *Inputs) {
			in.DocumentError = true
			in.DocumentLoading = true
		}, StatusErrorEmf},
		{"document loading", func(in *Inputs) {
			in.DocumentLoading = true
		}, StatusLoadingEmf},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := ready()
			tc.modify(&in)
			got := Evaluate(in)
			assert.Equal(t, tc.want, got, "got %s", got)
		})
	}
}

func TestEvaluateUnsupportedWithMissingSettings(t *testing.T) {
	got := Evaluate(Inputs{
		FileSystemAccessSupported: false,
		SettingsLoaded:            false,
		GfxDirectoryConfigured:    false,
	})
	assert.Equal(t, StatusUnsupported, got)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "gfx error", StatusErrorGfx.String())
	assert.Equal(t, "unknown", Status(99).String())
	assert.True(t, StatusReady.Ready())
	assert.False(t, StatusLoadingGfx.Ready())
}
