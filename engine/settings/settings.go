// Package settings holds the user's editor settings and persists them as TOML.
package settings

import (
	"github.com/spaghettifunk/eomap/engine/fsaccess"
)

// Settings selects where graphics come from. Directory handles are nil when
// not configured.
type Settings struct {
	GfxDirectory          fsaccess.DirectoryHandle
	CustomAssetsDirectory fsaccess.DirectoryHandle
	ConnectedModeEnabled  bool
	ConnectedModeURL      string
}

// Clone returns a shallow copy; handles are shared.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
