package gfx

import (
	"fmt"
	"strconv"

	"github.com/spaghettifunk/eomap/engine/math"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

// AnimationFrameKey names the i-th sub-frame sliced out of frameKey.
func AnimationFrameKey(frameKey string, index int) string {
	return frameKey + ".animationFrame." + strconv.Itoa(index)
}

// SliceFrame partitions source into a grid of frameWidth x frameHeight cells
// and registers one sub-frame per cell against the same source image.
//
// The source may have been trimmed upstream, so its cut rect can be smaller
// than its real size. Cells on the grid edges carry trim metadata relating
// their visible pixels to the nominal cell, and the cursor advances by the
// visible size so interior cells stay aligned to the untrimmed grid.
//
// Frames are returned in row-major order. The order fixes the animation frame
// order and the first frame's size becomes the reported asset size.
func SliceFrame(atlas TextureAtlasProvider, source metadata.FrameGeometry, frameWidth, frameHeight int) ([]metadata.SlicedFrame, error) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return nil, &GeometryError{Frame: source.Name, Reason: fmt.Sprintf("frame size %dx%d must be positive", frameWidth, frameHeight)}
	}
	if frameWidth > source.SheetWidth || frameHeight > source.SheetHeight {
		return nil, &GeometryError{Frame: source.Name, Reason: fmt.Sprintf("frame size %dx%d exceeds sheet %s", frameWidth, frameHeight, source.Sheet())}
	}

	columns := math.FloorDiv(source.SheetWidth, frameWidth)
	rows := math.FloorDiv(source.SheetHeight, frameHeight)

	leftPad := source.OffsetX
	rightPad := source.SheetWidth - source.CutWidth - leftPad
	topPad := source.OffsetY
	bottomPad := source.SheetHeight - source.CutHeight - topPad
	if leftPad < 0 || rightPad < 0 || topPad < 0 || bottomPad < 0 {
		return nil, &GeometryError{Frame: source.Name, Reason: fmt.Sprintf("cut %s does not fit sheet %s", source.Cut(), source.Sheet())}
	}

	leftWidth := frameWidth - leftPad
	rightWidth := frameWidth - rightPad
	topHeight := frameHeight - topPad
	bottomHeight := frameHeight - bottomPad

	frames := make([]metadata.SlicedFrame, 0, columns*rows)
	frameX, frameY := 0, 0

	for sheetY := 0; sheetY < rows; sheetY++ {
		topRow := sheetY == 0
		bottomRow := sheetY == rows-1

		for sheetX := 0; sheetX < columns; sheetX++ {
			leftColumn := sheetX == 0
			rightColumn := sheetX == columns-1
			key := AnimationFrameKey(source.Name, len(frames))

			// Both opposing trims apply to a lone row or column.
			trimWidth, trimHeight := 0, 0
			if leftColumn {
				trimWidth += leftPad
			}
			if rightColumn {
				trimWidth += rightPad
			}
			if topRow {
				trimHeight += topPad
			}
			if bottomRow {
				trimHeight += bottomPad
			}
			destWidth := frameWidth - trimWidth
			destHeight := frameHeight - trimHeight
			if destWidth <= 0 || destHeight <= 0 {
				return nil, &GeometryError{Frame: source.Name, Reason: fmt.Sprintf("cell %d trimmed to %dx%d", len(frames), destWidth, destHeight)}
			}

			rect := math.NewRect(source.CutX+frameX, source.CutY+frameY, frameWidth, frameHeight)
			handle, err := atlas.RegisterFrame(source.TextureKey, key, source.SourceIndex, rect)
			if err != nil {
				return nil, fmt.Errorf("register %s: %w", key, err)
			}

			if leftColumn || rightColumn || topRow || bottomRow {
				trim := metadata.Trim{
					SourceWidth:  frameWidth,
					SourceHeight: frameHeight,
					DestWidth:    destWidth,
					DestHeight:   destHeight,
				}
				if leftColumn {
					trim.DestX = leftPad
				}
				if topRow {
					trim.DestY = topPad
				}
				if err := atlas.SetTrim(handle, trim); err != nil {
					return nil, fmt.Errorf("trim %s: %w", key, err)
				}
			}
			frames = append(frames, handle)

			switch {
			case leftColumn:
				frameX += leftWidth
			case rightColumn:
				frameX += rightWidth
			default:
				frameX += frameWidth
			}
		}

		frameX = 0
		switch {
		case topRow:
			frameY += topHeight
		case bottomRow:
			frameY += bottomHeight
		default:
			frameY += frameHeight
		}
	}

	return frames, nil
}
