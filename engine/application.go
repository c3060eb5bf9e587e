package engine

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type ApplicationConfig struct {
	// The application name used in logs.
	Name     string
	LogLevel string `env:"EOMAP_LOG_LEVEL"`
	// Path of the TOML settings file.
	SettingsPath string `env:"EOMAP_SETTINGS"`
	// Directory holding the built-in raw assets (specs/, entities/, black.png).
	AssetsDir string `env:"EOMAP_ASSETS_DIR"`
	// Forces connected mode against this URL regardless of the settings.
	ForceConnectedModeURL string `env:"EOMAP_FORCE_CONNECTED_MODE_URL"`
	// Archives loaded on every graphics reload.
	ArchiveFileIDs []int `env:"EOMAP_ARCHIVES" envSeparator:","`
	// Reload graphics when files in the local directories change.
	Watch         bool          `env:"EOMAP_WATCH"`
	WatchDebounce time.Duration `env:"EOMAP_WATCH_DEBOUNCE"`
	HTTPTimeout   time.Duration `env:"EOMAP_HTTP_TIMEOUT"`
	// Capacity of the texture atlas.
	MaxTextureCount int
}

// DefaultApplicationConfig returns the configuration used when no flags or
// environment variables override it.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:            "eomap",
		LogLevel:        "info",
		SettingsPath:    "eomap.toml",
		AssetsDir:       "assets",
		ArchiveFileIDs:  []int{3, 4, 5, 6, 7, 22},
		WatchDebounce:   500 * time.Millisecond,
		HTTPTimeout:     30 * time.Second,
		MaxTextureCount: defaultMaxTextureCount,
	}
}

// LoadApplicationConfig applies EOMAP_* environment variables on top of the
// defaults. Unset variables keep their default.
func LoadApplicationConfig() (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return config, nil
}
