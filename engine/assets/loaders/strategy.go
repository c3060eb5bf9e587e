// Package loaders fetches the bytes behind graphics archives and raw assets,
// either from user granted local directories or from a remote asset server.
package loaders

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

// LoadingStrategy fetches archive and raw asset bytes. Implementations must be
// safe for concurrent use. Errors wrap core.ErrNotFound,
// core.ErrPermissionDenied or core.ErrNetwork.
type LoadingStrategy interface {
	FetchArchive(ctx context.Context, fileID int) (*metadata.Resource, error)
	FetchRaw(ctx context.Context, path string) (*metadata.Resource, error)
	// Close releases the strategy. It is called once, when the owning loader
	// is destroyed.
	Close() error
}

// ArchiveName is the file name of a graphics archive, e.g. gfx003.egf.
func ArchiveName(fileID int) string {
	return fmt.Sprintf("gfx%03d.egf", fileID)
}
