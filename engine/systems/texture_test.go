package systems

import (
	"testing"

	"github.com/spaghettifunk/eomap/engine/math"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTextureSystem(t *testing.T) *TextureSystem {
	t.Helper()
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 4})
	require.NoError(t, err)
	require.NoError(t, ts.AddTexture("gfx", math.Size{Width: 512, Height: 512}))
	return ts
}

func TestNewTextureSystemRequiresCapacity(t *testing.T) {
	_, err := NewTextureSystem(&TextureSystemConfig{})
	assert.Error(t, err)
}

func TestAddTexture(t *testing.T) {
	ts := newTextureSystem(t)
	assert.ErrorIs(t, ts.AddTexture("gfx", math.Size{Width: 1, Height: 1}), ErrTextureRegistered)
	assert.ErrorIs(t, ts.AddTexture("empty"), ErrInvalidSource)

	base, err := ts.Frame("gfx", "__BASE")
	require.NoError(t, err)
	assert.Equal(t, 512, base.SheetWidth)
	assert.Equal(t, 512, base.CutHeight)
}

func TestTextureLimit(t *testing.T) {
	ts, err := NewTextureSystem(&TextureSystemConfig{MaxTextureCount: 1})
	require.NoError(t, err)
	require.NoError(t, ts.AddTexture("a", math.Size{Width: 1, Height: 1}))
	assert.ErrorIs(t, ts.AddTexture("b", math.Size{Width: 1, Height: 1}), ErrTextureLimit)
}

func TestTrimmedFrameGeometry(t *testing.T) {
	ts := newTextureSystem(t)
	require.NoError(t, ts.AddTrimmedFrame("gfx", "3.101", 0, math.NewRect(10, 20, 120, 30), math.Size{Width: 128, Height: 32}, 3, 1))

	g, err := ts.Frame("gfx", "3.101")
	require.NoError(t, err)
	assert.Equal(t, metadata.FrameGeometry{
		TextureKey: "gfx", Name: "3.101",
		CutX: 10, CutY: 20, CutWidth: 120, CutHeight: 30,
		SheetWidth: 128, SheetHeight: 32,
		OffsetX: 3, OffsetY: 1,
	}, g)

	size, err := ts.SizeOf(metadata.SlicedFrame{Key: "gfx", Frame: "3.101"})
	require.NoError(t, err)
	assert.Equal(t, math.Size{Width: 120, Height: 30}, size)

	assert.ErrorIs(t, ts.AddTrimmedFrame("gfx", "bad", 2, math.NewRect(0, 0, 1, 1), math.Size{Width: 1, Height: 1}, 0, 0), ErrInvalidSource)
	assert.ErrorIs(t, ts.AddTrimmedFrame("nope", "x", 0, math.NewRect(0, 0, 1, 1), math.Size{Width: 1, Height: 1}, 0, 0), ErrTextureNotFound)
}

func TestRegisterFrameAndTrim(t *testing.T) {
	ts := newTextureSystem(t)
	h, err := ts.RegisterFrame("gfx", "sub", 0, math.NewRect(4, 4, 32, 32))
	require.NoError(t, err)
	assert.Equal(t, metadata.SlicedFrame{Key: "gfx", Frame: "sub"}, h)

	size, err := ts.SizeOf(h)
	require.NoError(t, err)
	assert.Equal(t, math.Size{Width: 32, Height: 32}, size)

	require.NoError(t, ts.SetTrim(h, metadata.Trim{SourceWidth: 32, SourceHeight: 32, DestX: 2, DestY: 0, DestWidth: 30, DestHeight: 32}))
	size, err = ts.SizeOf(h)
	require.NoError(t, err)
	assert.Equal(t, math.Size{Width: 30, Height: 32}, size)

	g, err := ts.Frame("gfx", "sub")
	require.NoError(t, err)
	assert.Equal(t, 30, g.CutWidth)
	assert.Equal(t, 32, g.SheetWidth)
	assert.Equal(t, 2, g.OffsetX)

	assert.ErrorIs(t, ts.SetTrim(h, metadata.Trim{SourceWidth: 32, SourceHeight: 32}), ErrInvalidFrameSize)
	_, err = ts.RegisterFrame("gfx", "zero", 0, math.NewRect(0, 0, 0, 4))
	assert.ErrorIs(t, err, ErrInvalidFrameSize)
	_, err = ts.SizeOf(metadata.SlicedFrame{Key: "gfx", Frame: "missing"})
	assert.ErrorIs(t, err, ErrFrameNotFound)
}

func TestCreateAnimation(t *testing.T) {
	ts := newTextureSystem(t)
	a, err := ts.RegisterFrame("gfx", "a", 0, math.NewRect(0, 0, 8, 8))
	require.NoError(t, err)
	b, err := ts.RegisterFrame("gfx", "b", 0, math.NewRect(8, 0, 8, 8))
	require.NoError(t, err)

	cfg := metadata.AnimationConfig{FrameRate: 60, Yoyo: true}
	anim, err := ts.CreateAnimation("anim", []metadata.SlicedFrame{a, b}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, anim.FrameCount())
	assert.True(t, anim.Yoyo)

	got, ok := ts.Animation("anim")
	require.True(t, ok)
	assert.Same(t, anim, got)

	_, err = ts.CreateAnimation("anim", nil, cfg)
	assert.ErrorIs(t, err, ErrAnimationExists)

	_, err = ts.CreateAnimation("broken", []metadata.SlicedFrame{{Key: "gfx", Frame: "nope"}}, cfg)
	assert.ErrorIs(t, err, ErrFrameNotFound)

	ts.Clear()
	_, ok = ts.Animation("anim")
	assert.False(t, ok)
	_, err = ts.Frame("gfx", "a")
	assert.ErrorIs(t, err, ErrTextureNotFound)
	require.NoError(t, ts.AddTexture("gfx", math.Size{Width: 8, Height: 8}))
}
