// Package startup derives the readiness of the editor from its inputs.
package startup

// Status is the single readiness value the presentation layer switches on.
// Only StatusReady allows the live editing surface.
type Status int

const (
	StatusUnsupported Status = iota
	StatusLoadingSettings
	StatusNeedGfxDirectory
	StatusNeedGfxDirectoryPermission
	StatusNeedAssetsDirectoryPermission
	StatusErrorGfx
	StatusLoadingGfx
	StatusErrorEmf
	StatusLoadingEmf
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusUnsupported:
		return "unsupported"
	case StatusLoadingSettings:
		return "loading settings"
	case StatusNeedGfxDirectory:
		return "need gfx directory"
	case StatusNeedGfxDirectoryPermission:
		return "need gfx directory permission"
	case StatusNeedAssetsDirectoryPermission:
		return "need assets directory permission"
	case StatusErrorGfx:
		return "gfx error"
	case StatusLoadingGfx:
		return "loading gfx"
	case StatusErrorEmf:
		return "map error"
	case StatusLoadingEmf:
		return "loading map"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

func (s Status) Ready() bool {
	return s == StatusReady
}

// Inputs is a snapshot of everything readiness depends on. Permission fields
// are the result of querying the directory handles.
type Inputs struct {
	FileSystemAccessSupported bool
	SettingsLoaded            bool
	ConnectedMode             bool

	GfxDirectoryConfigured          bool
	GfxDirectoryPermissionNeeded    bool
	AssetsDirectoryConfigured       bool
	AssetsDirectoryPermissionNeeded bool

	GfxErrors   int
	LoaderReady bool

	DocumentError   bool
	DocumentLoading bool
}

// Evaluate returns the first status whose guard matches, in precedence order.
func Evaluate(in Inputs) Status {
	switch {
	case !in.FileSystemAccessSupported:
		return StatusUnsupported
	case !in.SettingsLoaded:
		return StatusLoadingSettings
	}

	// local directories only matter outside connected mode
	if !in.ConnectedMode {
		switch {
		case !in.GfxDirectoryConfigured:
			return StatusNeedGfxDirectory
		case in.GfxDirectoryPermissionNeeded:
			return StatusNeedGfxDirectoryPermission
		case in.AssetsDirectoryConfigured && in.AssetsDirectoryPermissionNeeded:
			return StatusNeedAssetsDirectoryPermission
		}
	}

	switch {
	case in.GfxErrors > 0:
		return StatusErrorGfx
	case !in.LoaderReady:
		return StatusLoadingGfx
	case in.DocumentError:
		return StatusErrorEmf
	case in.DocumentLoading:
		return StatusLoadingEmf
	default:
		return StatusReady
	}
}
