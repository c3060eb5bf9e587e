package egf

import (
	"encoding/binary"
	"image/color"
	"testing"

	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/gfx/egf/egftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.RGBA{R: 255, A: 255}

func TestParseIndexesBitmaps(t *testing.T) {
	data := egftest.Build(map[int][]byte{
		124: egftest.DIB24(10, 4, red),
		101: egftest.DIB24(3, 3, red),
		102: egftest.DIB24(1, 1, red),
	})

	a, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102, 124}, a.ResourceIDs())
	assert.Equal(t, 3, a.Len())
	assert.True(t, a.Has(124))
	assert.False(t, a.Has(100))
}

func TestDecodeBitmap(t *testing.T) {
	data := egftest.Build(map[int][]byte{
		101: egftest.DIB24(5, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255}),
	})
	a, err := Parse(data)
	require.NoError(t, err)

	img, err := a.Decode(101)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	r, g, b, _ := img.At(4, 1).RGBA()
	assert.Equal(t, uint32(10), r>>8)
	assert.Equal(t, uint32(20), g>>8)
	assert.Equal(t, uint32(30), b>>8)

	_, err = a.Decode(999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDecodeCorruptBitmap(t *testing.T) {
	dib := egftest.DIB24(2, 2, red)
	dib[14] = 7 // bit count nobody supports
	a, err := Parse(egftest.Build(map[int][]byte{101: dib}))
	require.NoError(t, err)

	_, err = a.Decode(101)
	assert.ErrorIs(t, err, core.ErrMalformed)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	cases := map[string][]byte{
		"empty":             nil,
		"not a pe image":    []byte("this is definitely not an EGF file, it is just text padding it out..........................."),
		"truncated section": egftest.Raw([]byte{0, 0, 0}),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(data)
			assert.ErrorIs(t, err, core.ErrMalformed)
		})
	}
}

func TestParseRejectsOutOfBoundsDirectory(t *testing.T) {
	rsrc := make([]byte, 24)
	rsrc[14] = 1                    // one id entry
	rsrc[16] = 2                    // RT_BITMAP
	rsrc[20], rsrc[23] = 0xf0, 0x80 // subdirectory far past the end
	_, err := Parse(egftest.Raw(rsrc))
	assert.ErrorIs(t, err, core.ErrMalformed)
}

func TestParseSkipsOtherResourceTypes(t *testing.T) {
	rsrc := make([]byte, 24)
	rsrc[14] = 1
	rsrc[16] = 3 // RT_ICON
	a, err := Parse(egftest.Raw(rsrc))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Len())
}

func TestWrapDIB(t *testing.T) {
	dib := egftest.DIB24(1, 1, red)
	b, err := WrapDIB(dib)
	require.NoError(t, err)
	assert.Equal(t, "BM", string(b[:2]))
	assert.Equal(t, byte(54), b[10])
	assert.Len(t, b, 14+len(dib))

	paletted := make([]byte, 40+256*4+4)
	paletted[0] = 40
	paletted[4], paletted[8] = 1, 1
	paletted[14] = 8
	b, err = WrapDIB(paletted)
	require.NoError(t, err)
	assert.Equal(t, uint32(14+40+1024), uint32(b[10])|uint32(b[11])<<8)

	_, err = WrapDIB([]byte{1, 2, 3})
	assert.ErrorIs(t, err, core.ErrMalformed)
}

func TestDecodeRejectsImpossibleDimensions(t *testing.T) {
	resize := func(width, height int32) []byte {
		dib := egftest.DIB24(4, 4, red)
		binary.LittleEndian.PutUint32(dib[4:], uint32(width))
		binary.LittleEndian.PutUint32(dib[8:], uint32(height))
		return dib
	}
	cases := map[string][]byte{
		"huge":                resize(40000, 40000),
		"more rows than data": resize(4, 400),
		"wider than data":     resize(400, 4),
		"zero width":          resize(0, 4),
		"negative width":      resize(-4, 4),
	}
	for name, dib := range cases {
		t.Run(name, func(t *testing.T) {
			a, err := Parse(egftest.Build(map[int][]byte{1: dib}))
			require.NoError(t, err)

			_, err = a.Decode(1)
			assert.ErrorIs(t, err, core.ErrMalformed)
		})
	}
}

func TestDecodeTopDownBitmap(t *testing.T) {
	dib := egftest.DIB24(3, 2, red)
	binary.LittleEndian.PutUint32(dib[8:], uint32(0xfffffffe)) // -2
	a, err := Parse(egftest.Build(map[int][]byte{1: dib}))
	require.NoError(t, err)

	img, err := a.Decode(1)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestWrapDIBRejectsOversizedPalette(t *testing.T) {
	dib := egftest.DIB24(1, 1, red)
	dib[14] = 8
	binary.LittleEndian.PutUint32(dib[32:], 0xffffffff)
	_, err := WrapDIB(dib)
	assert.ErrorIs(t, err, core.ErrMalformed)
}
