package gfx

import (
	"fmt"

	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/math"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

// BaseTileWidth is the width in pixels of a single ground tile.
const BaseTileWidth = 32

const (
	animationFrameCount = 4
	animationFrameRate  = 1.66

	tileCursorFileID     = 2
	tileCursorResourceID = 124
	tileCursorFrameCount = 5
	tileCursorFrameRate  = 60
)

// BlackTilePath is the raw asset drawn for the black tile.
const BlackTilePath = "black.png"

func SpecPath(tileSpec int) string {
	return fmt.Sprintf("specs/%d.png", tileSpec)
}

func EntityPath(entityType int) string {
	return fmt.Sprintf("entities/%d.png", entityType)
}

// Only these archives hold sprite sheets that animate when wide enough.
var animatedFileIDs = map[int]struct{}{
	3: {},
	6: {},
}

// AssetFactory derives assets from atlas frames. Animation keys are prefixed
// with the factory identifier so factories sharing one atlas never collide.
type AssetFactory struct {
	atlas      TextureAtlasProvider
	identifier string
}

// NewAssetFactory creates a factory; an empty identifier gets a random one.
func NewAssetFactory(atlas TextureAtlasProvider, identifier string) *AssetFactory {
	if identifier == "" {
		identifier = core.NewIdentifier()
	}
	return &AssetFactory{
		atlas:      atlas,
		identifier: identifier,
	}
}

func (f *AssetFactory) Identifier() string {
	return f.identifier
}

// AnimationKey namespaces an animation by factory, texture and frame.
func (f *AssetFactory) AnimationKey(textureKey, frameKey string) string {
	return f.identifier + "." + textureKey + "." + frameKey
}

// CreateResource derives the asset for resource resourceID of archive fileID,
// whose pixels are already registered in the atlas as (textureKey, frameKey).
func (f *AssetFactory) CreateResource(textureKey, frameKey string, fileID, resourceID int) (*Asset, error) {
	if fileID == tileCursorFileID && resourceID == tileCursorResourceID {
		return f.createTileCursor(textureKey, frameKey, fileID, resourceID)
	}

	geometry, err := f.atlas.Frame(textureKey, frameKey)
	if err != nil {
		return nil, fmt.Errorf("create resource %d/%d: %w", fileID, resourceID, err)
	}

	asset := &Asset{
		Kind:         AssetKindResource,
		DisplayFrame: metadata.SlicedFrame{Key: textureKey, Frame: frameKey},
		Width:        geometry.SheetWidth,
		Height:       geometry.SheetHeight,
		FileID:       fileID,
		ResourceID:   resourceID,
	}

	_, canBeAnimated := animatedFileIDs[fileID]
	isWideEnough := geometry.SheetWidth >= BaseTileWidth*animationFrameCount
	if !canBeAnimated || !isWideEnough {
		return asset, nil
	}

	anim, size, err := f.animate(geometry, geometry.SheetWidth/animationFrameCount, geometry.SheetHeight, metadata.AnimationConfig{
		FrameRate: animationFrameRate,
		Repeat:    metadata.RepeatForever,
	})
	if err != nil {
		return nil, fmt.Errorf("create resource %d/%d: %w", fileID, resourceID, err)
	}
	asset.Animation = anim
	asset.Width = size.Width
	asset.Height = size.Height
	return asset, nil
}

func (f *AssetFactory) createTileCursor(textureKey, frameKey string, fileID, resourceID int) (*Asset, error) {
	geometry, err := f.atlas.Frame(textureKey, frameKey)
	if err != nil {
		return nil, fmt.Errorf("create tile cursor: %w", err)
	}

	anim, size, err := f.animate(geometry, geometry.SheetWidth/tileCursorFrameCount, geometry.SheetHeight, metadata.AnimationConfig{
		FrameRate: tileCursorFrameRate,
		Yoyo:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("create tile cursor: %w", err)
	}

	return &Asset{
		Kind:         AssetKindResource,
		DisplayFrame: metadata.SlicedFrame{Key: textureKey, Frame: frameKey},
		Width:        size.Width,
		Height:       size.Height,
		Animation:    anim,
		FileID:       fileID,
		ResourceID:   resourceID,
	}, nil
}

// animate slices the frame and registers the animation, or reuses the one a
// previous call registered under the same key.
func (f *AssetFactory) animate(geometry metadata.FrameGeometry, frameWidth, frameHeight int, config metadata.AnimationConfig) (*metadata.Animation, math.Size, error) {
	key := f.AnimationKey(geometry.TextureKey, geometry.Name)

	anim, ok := f.atlas.Animation(key)
	if !ok {
		frames, err := SliceFrame(f.atlas, geometry, frameWidth, frameHeight)
		if err != nil {
			return nil, math.Size{}, err
		}
		anim, err = f.atlas.CreateAnimation(key, frames, config)
		if err != nil {
			return nil, math.Size{}, err
		}
	}
	if len(anim.Frames) == 0 {
		return nil, math.Size{}, &GeometryError{Frame: geometry.Name, Reason: "animation has no frames"}
	}

	size, err := f.atlas.SizeOf(anim.Frames[0])
	if err != nil {
		return nil, math.Size{}, err
	}
	return anim, size, nil
}

// CreateSpec builds the asset for a tile spec overlay.
func (f *AssetFactory) CreateSpec(textureKey, frameKey string, tileSpec int) (*Asset, error) {
	return f.createRaw(textureKey, frameKey, SpecPath(tileSpec))
}

// CreateEntity builds the asset for an entity marker.
func (f *AssetFactory) CreateEntity(textureKey, frameKey string, entityType int) (*Asset, error) {
	return f.createRaw(textureKey, frameKey, EntityPath(entityType))
}

// CreateBlackTile builds the asset drawn for the black tile.
func (f *AssetFactory) CreateBlackTile(textureKey, frameKey string) (*Asset, error) {
	return f.createRaw(textureKey, frameKey, BlackTilePath)
}

func (f *AssetFactory) createRaw(textureKey, frameKey, path string) (*Asset, error) {
	frame := metadata.SlicedFrame{Key: textureKey, Frame: frameKey}
	size, err := f.atlas.SizeOf(frame)
	if err != nil {
		return nil, fmt.Errorf("create raw asset %s: %w", path, err)
	}
	return &Asset{
		Kind:         AssetKindRaw,
		DisplayFrame: frame,
		Width:        size.Width,
		Height:       size.Height,
		Path:         path,
	}, nil
}
