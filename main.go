/*
eomap loads the graphics of an Endless Online installation, or of a connected
mode server, and reports when the map editor is ready to edit.
*/
package main

import (
	"context"
	"flag"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spaghettifunk/eomap/engine"
	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/document"
	"github.com/spaghettifunk/eomap/engine/fsaccess"
)

func main() {
	config, err := engine.LoadApplicationConfig()
	if err != nil {
		core.LogFatal("invalid configuration: %s", err)
	}
	mapPath := ""

	flag.StringVar(&config.SettingsPath, "settings", config.SettingsPath, "path of the settings file")
	flag.StringVar(&config.AssetsDir, "assets", config.AssetsDir, "directory of the built-in raw assets")
	flag.StringVar(&config.LogLevel, "log-level", config.LogLevel, "debug, info, warn or error")
	flag.StringVar(&config.ForceConnectedModeURL, "connected-mode-url", config.ForceConnectedModeURL, "always load graphics from this server")
	flag.BoolVar(&config.Watch, "watch", config.Watch, "reload graphics when local files change")
	flag.DurationVar(&config.HTTPTimeout, "http-timeout", config.HTTPTimeout, "timeout of connected mode requests")
	flag.StringVar(&mapPath, "map", "", "map file to open once graphics are loaded")
	flag.Parse()

	editor, err := engine.New(config, document.SignatureCodec{Signature: []byte("EMF")})
	if err != nil {
		core.LogFatal("failed to create editor: %s", err)
	}

	// signal channel to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := editor.Initialize(ctx); err != nil {
		core.LogFatal("failed to initialize editor: %s", err)
	}

	if mapPath != "" {
		dir := fsaccess.OpenDirectory(filepath.Dir(mapPath))
		if err := editor.OpenMap(ctx, dir, filepath.Base(mapPath)); err != nil {
			core.LogError("failed to open map: %s", err)
		}
	}

	if err := editor.Run(ctx); err != nil {
		core.LogError("editor stopped: %s", err)
	}
	if err := editor.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
}
