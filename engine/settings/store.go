package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/fsaccess"
)

type connectedMode struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
}

type document struct {
	GfxDirectory          string        `toml:"gfx_directory,omitempty"`
	CustomAssetsDirectory string        `toml:"custom_assets_directory,omitempty"`
	ConnectedMode         connectedMode `toml:"connected_mode"`
}

// Store loads and saves settings at a fixed path. Directories are stored as
// paths and reopened as fsaccess.OSDirectory handles.
type Store struct {
	path string

	mu     sync.RWMutex
	loaded bool
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Loaded reports whether Load has completed successfully at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load reads the settings file. A missing file yields empty settings.
func (s *Store) Load() (*Settings, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogInfo("no settings at %s, using defaults", s.path)
		s.markLoaded()
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var doc document
	if err := toml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", s.path, err)
	}
	s.markLoaded()
	return doc.settings(), nil
}

// Save writes the settings file. Handles that are not OS directories cannot be
// persisted and are left out.
func (s *Store) Save(settings *Settings) error {
	doc := document{
		GfxDirectory:          directoryPath(settings.GfxDirectory),
		CustomAssetsDirectory: directoryPath(settings.CustomAssetsDirectory),
		ConnectedMode: connectedMode{
			Enabled: settings.ConnectedModeEnabled,
			URL:     settings.ConnectedModeURL,
		},
	}
	b, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *Store) markLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
}

func (d document) settings() *Settings {
	out := &Settings{
		ConnectedModeEnabled: d.ConnectedMode.Enabled,
		ConnectedModeURL:     d.ConnectedMode.URL,
	}
	if d.GfxDirectory != "" {
		out.GfxDirectory = fsaccess.OpenDirectory(d.GfxDirectory)
	}
	if d.CustomAssetsDirectory != "" {
		out.CustomAssetsDirectory = fsaccess.OpenDirectory(d.CustomAssetsDirectory)
	}
	return out
}

func directoryPath(h fsaccess.DirectoryHandle) string {
	if h == nil {
		return ""
	}
	d, ok := h.(*fsaccess.OSDirectory)
	if !ok {
		core.LogWarn("directory %s is not persistable", h.Name())
		return ""
	}
	return d.Path()
}
