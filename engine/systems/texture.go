package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/math"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
	"golang.org/x/exp/slices"
)

var (
	ErrTextureNotFound   = fmt.Errorf("texture not found")
	ErrFrameNotFound     = fmt.Errorf("frame not found")
	ErrAnimationExists   = fmt.Errorf("animation already exists")
	ErrTextureLimit      = fmt.Errorf("texture limit reached")
	ErrInvalidSource     = fmt.Errorf("invalid source index")
	ErrInvalidFrameSize  = fmt.Errorf("frame size must be positive")
	ErrTextureRegistered = fmt.Errorf("texture already registered")
)

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be registered at once. */
	MaxTextureCount uint32
}

/**
 * @brief A frame registered inside a texture. The cut rect addresses pixels
 * in one of the texture's source images; nothing is copied.
 */
type TextureFrame struct {
	Name        string
	SourceIndex int
	Cut         math.Rect
	// Real is the untrimmed size of the frame.
	Real    math.Size
	OffsetX int
	OffsetY int
	Trimmed bool
	// Width and height reported to consumers. Equal to the cut size unless a
	// trim was applied, in which case they are the trim's dest size.
	Width  int
	Height int
}

/** @brief Represents a texture made of one or more source images. */
type Texture struct {
	Key     string
	Sources []math.Size
	frames  map[string]*TextureFrame
}

// TextureSystem is an in-memory texture atlas: it owns frame and animation
// registrations and hands out key based handles.
type TextureSystem struct {
	Config *TextureSystemConfig

	mutex      sync.RWMutex
	textures   map[string]*Texture
	animations map[string]*metadata.Animation
}

func NewTextureSystem(config *TextureSystemConfig) (*TextureSystem, error) {
	if config == nil || config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &TextureSystem{
		Config:     config,
		textures:   make(map[string]*Texture),
		animations: make(map[string]*metadata.Animation),
	}, nil
}

// Clear drops every texture, frame and animation registration.
func (ts *TextureSystem) Clear() {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	ts.textures = make(map[string]*Texture)
	ts.animations = make(map[string]*metadata.Animation)
}

func (ts *TextureSystem) Shutdown() error {
	ts.Clear()
	return nil
}

// AddTexture registers a texture with the sizes of its source images. A
// "__BASE" frame covering the first source is created, the same way sheet
// loaders expose the whole image.
func (ts *TextureSystem) AddTexture(key string, sources ...math.Size) error {
	if len(sources) == 0 {
		return fmt.Errorf("texture %q: %w", key, ErrInvalidSource)
	}
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if _, ok := ts.textures[key]; ok {
		return fmt.Errorf("texture %q: %w", key, ErrTextureRegistered)
	}
	if uint32(len(ts.textures)) >= ts.Config.MaxTextureCount {
		return ErrTextureLimit
	}
	t := &Texture{
		Key:     key,
		Sources: slices.Clone(sources),
		frames:  make(map[string]*TextureFrame),
	}
	base := sources[0]
	t.frames["__BASE"] = &TextureFrame{
		Name:   "__BASE",
		Cut:    math.NewRect(0, 0, base.Width, base.Height),
		Real:   base,
		Width:  base.Width,
		Height: base.Height,
	}
	ts.textures[key] = t
	core.LogDebug("texture '%s' registered with %d source(s)", key, len(sources))
	return nil
}

// AddTrimmedFrame registers a frame produced by an upstream packer that
// stripped transparent padding. offsetX/offsetY is the padding removed from the
// left and top; real is the size before trimming.
func (ts *TextureSystem) AddTrimmedFrame(textureKey, frameKey string, sourceIndex int, cut math.Rect, real math.Size, offsetX, offsetY int) error {
	if cut.Size().Empty() || real.Empty() {
		return ErrInvalidFrameSize
	}
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	t, err := ts.texture(textureKey)
	if err != nil {
		return err
	}
	if sourceIndex < 0 || sourceIndex >= len(t.Sources) {
		return fmt.Errorf("frame %q: %w", frameKey, ErrInvalidSource)
	}
	t.frames[frameKey] = &TextureFrame{
		Name:        frameKey,
		SourceIndex: sourceIndex,
		Cut:         cut,
		Real:        real,
		OffsetX:     offsetX,
		OffsetY:     offsetY,
		Trimmed:     cut.Size() != real,
		Width:       cut.Width,
		Height:      cut.Height,
	}
	return nil
}

// Frame returns a snapshot of the frame geometry.
func (ts *TextureSystem) Frame(textureKey, frameKey string) (metadata.FrameGeometry, error) {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()
	f, err := ts.frame(textureKey, frameKey)
	if err != nil {
		return metadata.FrameGeometry{}, err
	}
	return metadata.FrameGeometry{
		TextureKey:  textureKey,
		Name:        f.Name,
		SourceIndex: f.SourceIndex,
		CutX:        f.Cut.X,
		CutY:        f.Cut.Y,
		CutWidth:    f.Cut.Width,
		CutHeight:   f.Cut.Height,
		SheetWidth:  f.Real.Width,
		SheetHeight: f.Real.Height,
		OffsetX:     f.OffsetX,
		OffsetY:     f.OffsetY,
	}, nil
}

// RegisterFrame adds (or replaces) a sub-frame addressing rect of the given
// source image.
func (ts *TextureSystem) RegisterFrame(textureKey, frameKey string, sourceIndex int, rect math.Rect) (metadata.SlicedFrame, error) {
	if rect.Size().Empty() {
		return metadata.SlicedFrame{}, ErrInvalidFrameSize
	}
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	t, err := ts.texture(textureKey)
	if err != nil {
		return metadata.SlicedFrame{}, err
	}
	if sourceIndex < 0 || sourceIndex >= len(t.Sources) {
		return metadata.SlicedFrame{}, fmt.Errorf("frame %q: %w", frameKey, ErrInvalidSource)
	}
	t.frames[frameKey] = &TextureFrame{
		Name:        frameKey,
		SourceIndex: sourceIndex,
		Cut:         rect,
		Real:        rect.Size(),
		Width:       rect.Width,
		Height:      rect.Height,
	}
	return metadata.SlicedFrame{Key: textureKey, Frame: frameKey}, nil
}

// SetTrim marks a frame as trimmed. The cut rect shrinks to the dest size so
// only the visible pixels are addressed.
func (ts *TextureSystem) SetTrim(handle metadata.SlicedFrame, trim metadata.Trim) error {
	if trim.DestWidth <= 0 || trim.DestHeight <= 0 || trim.SourceWidth <= 0 || trim.SourceHeight <= 0 {
		return ErrInvalidFrameSize
	}
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	f, err := ts.frame(handle.Key, handle.Frame)
	if err != nil {
		return err
	}
	f.Cut.Width = trim.DestWidth
	f.Cut.Height = trim.DestHeight
	f.Real = math.Size{Width: trim.SourceWidth, Height: trim.SourceHeight}
	f.OffsetX = trim.DestX
	f.OffsetY = trim.DestY
	f.Trimmed = true
	f.Width = trim.DestWidth
	f.Height = trim.DestHeight
	return nil
}

// SizeOf returns the width and height the frame reports to consumers.
func (ts *TextureSystem) SizeOf(handle metadata.SlicedFrame) (math.Size, error) {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()
	f, err := ts.frame(handle.Key, handle.Frame)
	if err != nil {
		return math.Size{}, err
	}
	return math.Size{Width: f.Width, Height: f.Height}, nil
}

// CreateAnimation registers an animation under key. Every frame must exist.
func (ts *TextureSystem) CreateAnimation(key string, frames []metadata.SlicedFrame, config metadata.AnimationConfig) (*metadata.Animation, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if _, ok := ts.animations[key]; ok {
		return nil, fmt.Errorf("animation %q: %w", key, ErrAnimationExists)
	}
	for _, f := range frames {
		if _, err := ts.frame(f.Key, f.Frame); err != nil {
			return nil, fmt.Errorf("animation %q: %w", key, err)
		}
	}
	anim := &metadata.Animation{
		Key:             key,
		Frames:          slices.Clone(frames),
		AnimationConfig: config,
	}
	ts.animations[key] = anim
	return anim, nil
}

// Animation looks up a registered animation.
func (ts *TextureSystem) Animation(key string) (*metadata.Animation, bool) {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()
	anim, ok := ts.animations[key]
	return anim, ok
}

func (ts *TextureSystem) texture(key string) (*Texture, error) {
	t, ok := ts.textures[key]
	if !ok {
		return nil, fmt.Errorf("texture %q: %w", key, ErrTextureNotFound)
	}
	return t, nil
}

func (ts *TextureSystem) frame(textureKey, frameKey string) (*TextureFrame, error) {
	t, err := ts.texture(textureKey)
	if err != nil {
		return nil, err
	}
	f, ok := t.frames[frameKey]
	if !ok {
		return nil, fmt.Errorf("frame %q in texture %q: %w", frameKey, textureKey, ErrFrameNotFound)
	}
	return f, nil
}
