package platform

import (
	"time"

	"github.com/spaghettifunk/eomap/engine/core"
)

type Platform struct {
	name      string
	startTime time.Time
}

func New() (*Platform, error) {
	return &Platform{}, nil
}

// Startup fails with core.ErrUnsupported when the target cannot open user
// directories.
func (p *Platform) Startup(applicationName string) error {
	p.name = applicationName
	p.startTime = time.Now()
	if !FileSystemAccessSupported() {
		core.LogError("%s: file system access is not available on this platform", applicationName)
		return core.ErrUnsupported
	}
	return nil
}

func (p *Platform) Shutdown() error {
	core.LogDebug("%s: platform shut down after %s", p.name, p.Uptime().Round(time.Millisecond))
	return nil
}

func (p *Platform) Uptime() time.Duration {
	if p.startTime.IsZero() {
		return 0
	}
	return time.Since(p.startTime)
}
