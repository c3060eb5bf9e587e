package metadata

import (
	"testing"

	"github.com/spaghettifunk/eomap/engine/math"
	"github.com/stretchr/testify/assert"
)

func TestFrameGeometry(t *testing.T) {
	g := FrameGeometry{CutX: 4, CutY: 8, CutWidth: 120, CutHeight: 30, SheetWidth: 128, SheetHeight: 32, OffsetX: 3, OffsetY: 1}
	assert.Equal(t, math.NewRect(4, 8, 120, 30), g.Cut())
	assert.Equal(t, math.Size{Width: 128, Height: 32}, g.Sheet())
	assert.True(t, g.Trimmed())

	g.CutWidth, g.CutHeight = 128, 32
	assert.False(t, g.Trimmed())
}

func TestAnimationFrameCount(t *testing.T) {
	var a *Animation
	assert.Equal(t, 0, a.FrameCount())
	a = &Animation{Key: "k", Frames: make([]SlicedFrame, 4), AnimationConfig: AnimationConfig{FrameRate: 1.66, Repeat: RepeatForever}}
	assert.Equal(t, 4, a.FrameCount())
}

func TestNewResource(t *testing.T) {
	r := NewResource(ResourceTypeArchive, "gfx003.egf", "/gfx/gfx003.egf", []byte{1, 2, 3})
	assert.Equal(t, uint64(3), r.DataSize)
	assert.Equal(t, "archive", r.ResourceType.String())
	assert.Equal(t, "none", ResourceTypeNone.String())
}
