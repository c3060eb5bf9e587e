package gfx

import (
	"context"
	"fmt"
	"image"

	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

type AssetKind int

const (
	// AssetKindResource is a sprite stored in a graphics archive.
	AssetKindResource AssetKind = iota + 1
	// AssetKindRaw is a standalone image addressed by path.
	AssetKindRaw
)

func (k AssetKind) String() string {
	switch k {
	case AssetKindResource:
		return "resource"
	case AssetKindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ResourceResolver turns an asset into pixels. GFXLoader implements it.
type ResourceResolver interface {
	LoadResource(ctx context.Context, fileID, resourceID int) (image.Image, error)
	LoadRaw(ctx context.Context, path string) (image.Image, error)
}

// Asset is a drawable derived from an atlas frame. Kind selects which of the
// variant fields are meaningful: FileID/ResourceID for resources, Path for raw
// assets.
type Asset struct {
	Kind         AssetKind
	DisplayFrame metadata.SlicedFrame
	Width        int
	Height       int
	// Animation is nil for static assets. The atlas owns it.
	Animation *metadata.Animation

	FileID     int
	ResourceID int

	Path string
}

// Frames returns the animation frames, or nothing for a static asset.
func (a *Asset) Frames() []metadata.SlicedFrame {
	if a.Animation == nil {
		return []metadata.SlicedFrame{}
	}
	return a.Animation.Frames
}

// Frame returns the animation frame at index, falling back to the display
// frame for static assets and out of range indices.
func (a *Asset) Frame(index int) metadata.SlicedFrame {
	if a.Animation != nil && index >= 0 && index < len(a.Animation.Frames) {
		return a.Animation.Frames[index]
	}
	return a.DisplayFrame
}

func (a *Asset) Animated() bool {
	return a.Animation != nil
}

func (a *Asset) TextureKey() string {
	return a.DisplayFrame.Key
}

func (a *Asset) FrameKey() string {
	return a.DisplayFrame.Frame
}

// Resolve loads the pixels backing the asset through the given loader.
func (a *Asset) Resolve(ctx context.Context, loader ResourceResolver) (image.Image, error) {
	switch a.Kind {
	case AssetKindResource:
		return loader.LoadResource(ctx, a.FileID, a.ResourceID)
	case AssetKindRaw:
		return loader.LoadRaw(ctx, a.Path)
	default:
		return nil, fmt.Errorf("resolve asset %q: unknown kind %d", a.FrameKey(), a.Kind)
	}
}
