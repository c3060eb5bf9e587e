package gfx

import (
	"github.com/spaghettifunk/eomap/engine/math"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

// TextureAtlasProvider is the renderer-owned atlas. It is the sole owner of
// pixel data and of frame and animation registrations; the gfx package only
// keeps the key based handles it returns.
type TextureAtlasProvider interface {
	// Frame snapshots the geometry of a registered frame.
	Frame(textureKey, frameKey string) (metadata.FrameGeometry, error)
	// RegisterFrame adds a sub-frame addressing rect of a source image.
	RegisterFrame(textureKey, frameKey string, sourceIndex int, rect math.Rect) (metadata.SlicedFrame, error)
	// SetTrim attaches trim metadata and shrinks the frame to the dest size.
	SetTrim(frame metadata.SlicedFrame, trim metadata.Trim) error
	// SizeOf returns the size a frame reports once registered (and trimmed).
	SizeOf(frame metadata.SlicedFrame) (math.Size, error)
	// CreateAnimation registers a new animation; existing keys are an error.
	CreateAnimation(key string, frames []metadata.SlicedFrame, config metadata.AnimationConfig) (*metadata.Animation, error)
	// Animation looks up a previously created animation.
	Animation(key string) (*metadata.Animation, bool)
}
