// Package egftest builds minimal EGF archives for tests.
package egftest

import (
	"encoding/binary"
	"image/color"
	"sort"
)

const (
	peOffset       = 64
	headersSize    = 128
	virtualAddress = 0x1000
	languageID     = 1033
)

// DIB24 returns a bottom-up 24 bit device independent bitmap filled with c.
func DIB24(width, height int, c color.RGBA) []byte {
	rowSize := (3*width + 3) &^ 3
	dib := make([]byte, 40+rowSize*height)
	binary.LittleEndian.PutUint32(dib[0:], 40)
	binary.LittleEndian.PutUint32(dib[4:], uint32(width))
	binary.LittleEndian.PutUint32(dib[8:], uint32(height))
	binary.LittleEndian.PutUint16(dib[12:], 1)
	binary.LittleEndian.PutUint16(dib[14:], 24)
	binary.LittleEndian.PutUint32(dib[20:], uint32(rowSize*height))
	for y := 0; y < height; y++ {
		row := dib[40+y*rowSize:]
		for x := 0; x < width; x++ {
			row[3*x], row[3*x+1], row[3*x+2] = c.B, c.G, c.R
		}
	}
	return dib
}

// Build returns a PE image whose resource section holds the given bitmaps,
// keyed by resource id.
func Build(bitmaps map[int][]byte) []byte {
	ids := make([]int, 0, len(bitmaps))
	for id := range bitmaps {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	n := uint32(len(ids))

	typeDir := uint32(24)
	langDirs := typeDir + 16 + 8*n
	dataEntries := langDirs + 24*n
	blobs := dataEntries + 16*n

	size := blobs
	blobOffsets := make([]uint32, n)
	for i, id := range ids {
		blobOffsets[i] = size
		size += uint32(len(bitmaps[id]))
		size = (size + 3) &^ 3
	}

	rsrc := make([]byte, size)
	putDirectory(rsrc, 0, 1)
	putEntry(rsrc, 16, 2, 0x80000000|typeDir)

	putDirectory(rsrc, typeDir, uint16(n))
	for i, id := range ids {
		langDir := langDirs + 24*uint32(i)
		dataEntry := dataEntries + 16*uint32(i)
		putEntry(rsrc, typeDir+16+8*uint32(i), uint32(id), 0x80000000|langDir)

		putDirectory(rsrc, langDir, 1)
		putEntry(rsrc, langDir+16, languageID, dataEntry)

		binary.LittleEndian.PutUint32(rsrc[dataEntry:], virtualAddress+blobOffsets[i])
		binary.LittleEndian.PutUint32(rsrc[dataEntry+4:], uint32(len(bitmaps[id])))
		copy(rsrc[blobOffsets[i]:], bitmaps[id])
	}

	return wrapSection(rsrc)
}

// Raw wraps an arbitrary resource section, for malformed input tests.
func Raw(rsrc []byte) []byte {
	return wrapSection(rsrc)
}

func wrapSection(rsrc []byte) []byte {
	out := make([]byte, headersSize+len(rsrc))
	out[0], out[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(out[0x3c:], peOffset)
	copy(out[peOffset:], "PE\x00\x00")

	fh := out[peOffset+4:]
	binary.LittleEndian.PutUint16(fh[0:], 0x14c) // i386
	binary.LittleEndian.PutUint16(fh[2:], 1)     // one section

	sh := out[peOffset+4+20:]
	copy(sh[0:8], ".rsrc")
	binary.LittleEndian.PutUint32(sh[8:], uint32(len(rsrc)))
	binary.LittleEndian.PutUint32(sh[12:], virtualAddress)
	binary.LittleEndian.PutUint32(sh[16:], uint32(len(rsrc)))
	binary.LittleEndian.PutUint32(sh[20:], headersSize)

	copy(out[headersSize:], rsrc)
	return out
}

func putDirectory(b []byte, offset uint32, ids uint16) {
	binary.LittleEndian.PutUint16(b[offset+14:], ids)
}

func putEntry(b []byte, offset, name, target uint32) {
	binary.LittleEndian.PutUint32(b[offset:], name)
	binary.LittleEndian.PutUint32(b[offset+4:], target)
}
