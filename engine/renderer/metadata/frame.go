package metadata

import "github.com/spaghettifunk/eomap/engine/math"

/**
 * @brief An immutable snapshot of a frame registered in a texture atlas.
 * Taken at the moment an asset is derived; later atlas mutations do not
 * affect it.
 */
type FrameGeometry struct {
	/** @brief The texture the frame belongs to. */
	TextureKey string
	/** @brief The frame key inside the texture. */
	Name string
	/** @brief The index of the source image backing the texture. */
	SourceIndex int
	/** @brief The visible pixel region inside the source image. */
	CutX, CutY, CutWidth, CutHeight int
	/** @brief The real (untrimmed) size of the sprite before upstream trimming. */
	SheetWidth, SheetHeight int
	/** @brief The padding removed from the left and top by upstream trimming. */
	OffsetX, OffsetY int
}

// Cut returns the visible region of the frame inside its source image.
func (g FrameGeometry) Cut() math.Rect {
	return math.NewRect(g.CutX, g.CutY, g.CutWidth, g.CutHeight)
}

// Sheet returns the real size of the frame.
func (g FrameGeometry) Sheet() math.Size {
	return math.Size{Width: g.SheetWidth, Height: g.SheetHeight}
}

// Trimmed reports whether upstream trimming removed any padding.
func (g FrameGeometry) Trimmed() bool {
	return g.CutWidth != g.SheetWidth || g.CutHeight != g.SheetHeight
}

/**
 * @brief A non-owning handle to a frame in the atlas. The atlas keeps the
 * pixel rect registration; holders only use the keys for lookups.
 */
type SlicedFrame struct {
	/** @brief The texture key. */
	Key string
	/** @brief The frame key inside the texture. */
	Frame string
}

/**
 * @brief Relates the visible rectangle of a frame to its nominal padded box.
 */
type Trim struct {
	/** @brief The nominal (untrimmed) frame size. */
	SourceWidth, SourceHeight int
	/** @brief Where the visible pixels start inside the nominal box. */
	DestX, DestY int
	/** @brief The visible size. */
	DestWidth, DestHeight int
}

func (t Trim) Dest() math.Rect {
	return math.NewRect(t.DestX, t.DestY, t.DestWidth, t.DestHeight)
}
