// Package egf reads EGF graphics archives: Windows PE images whose resource
// section holds one bitmap per sprite.
package egf

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"fmt"
	"image"
	"sort"

	"github.com/spaghettifunk/eomap/engine/core"
	"golang.org/x/image/bmp"
)

const (
	// rtBitmap is the PE resource type of device independent bitmaps.
	rtBitmap = 2

	directoryHeaderSize = 16
	directoryEntrySize  = 8
	dataEntrySize       = 16
	fileHeaderSize      = 14

	subdirectoryFlag = 0x80000000
	nameFlag         = 0x80000000

	biRGB       = 0
	biBitfields = 3

	// maxDimension caps bitmap width and height. Sprites are far smaller; the
	// cap keeps a corrupt header from sizing a huge allocation.
	maxDimension = 1 << 14
)

type entry struct {
	offset uint32
	size   uint32
}

// Archive is a parsed EGF file. It keeps the raw bytes and an index of bitmap
// resources; bitmaps are decoded on demand.
type Archive struct {
	data      []byte
	resources map[int]entry
}

// Parse indexes the bitmap resources of an EGF file. Anything that is not a
// PE image with a readable bitmap directory fails with core.ErrMalformed.
func Parse(data []byte) (*Archive, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformed, err)
	}
	defer f.Close()

	section := f.Section(".rsrc")
	if section == nil {
		return nil, fmt.Errorf("%w: no resource section", core.ErrMalformed)
	}
	rsrc, err := section.Data()
	if err != nil {
		return nil, fmt.Errorf("%w: resource section: %v", core.ErrMalformed, err)
	}

	a := &Archive{
		data:      data,
		resources: make(map[int]entry),
	}
	if err := a.index(rsrc, section.VirtualAddress, section.Offset); err != nil {
		return nil, err
	}
	return a, nil
}

// index walks type -> id -> language and records the first language entry of
// every bitmap.
func (a *Archive) index(rsrc []byte, virtualAddress, fileOffset uint32) error {
	types, err := readDirectory(rsrc, 0)
	if err != nil {
		return err
	}
	for _, t := range types {
		if t.name&nameFlag != 0 || t.name != rtBitmap {
			continue
		}
		if t.offset&subdirectoryFlag == 0 {
			return fmt.Errorf("%w: bitmap type entry is not a directory", core.ErrMalformed)
		}
		ids, err := readDirectory(rsrc, t.offset&^subdirectoryFlag)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if id.name&nameFlag != 0 || id.offset&subdirectoryFlag == 0 {
				continue
			}
			langs, err := readDirectory(rsrc, id.offset&^subdirectoryFlag)
			if err != nil {
				return err
			}
			if len(langs) == 0 || langs[0].offset&subdirectoryFlag != 0 {
				continue
			}
			e, err := readDataEntry(rsrc, langs[0].offset, virtualAddress, fileOffset)
			if err != nil {
				return err
			}
			if uint64(e.offset)+uint64(e.size) > uint64(len(a.data)) {
				return fmt.Errorf("%w: bitmap %d out of bounds", core.ErrMalformed, id.name)
			}
			a.resources[int(id.name)] = e
		}
	}
	return nil
}

type directoryEntry struct {
	name   uint32
	offset uint32
}

func readDirectory(rsrc []byte, offset uint32) ([]directoryEntry, error) {
	if uint64(offset)+directoryHeaderSize > uint64(len(rsrc)) {
		return nil, fmt.Errorf("%w: resource directory at %#x out of bounds", core.ErrMalformed, offset)
	}
	named := binary.LittleEndian.Uint16(rsrc[offset+12:])
	ids := binary.LittleEndian.Uint16(rsrc[offset+14:])
	count := uint32(named) + uint32(ids)

	start := offset + directoryHeaderSize
	if uint64(start)+uint64(count)*directoryEntrySize > uint64(len(rsrc)) {
		return nil, fmt.Errorf("%w: resource directory at %#x truncated", core.ErrMalformed, offset)
	}
	entries := make([]directoryEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		p := start + i*directoryEntrySize
		entries = append(entries, directoryEntry{
			name:   binary.LittleEndian.Uint32(rsrc[p:]),
			offset: binary.LittleEndian.Uint32(rsrc[p+4:]),
		})
	}
	return entries, nil
}

// readDataEntry converts the RVA of a resource into an offset in the file.
func readDataEntry(rsrc []byte, offset, virtualAddress, fileOffset uint32) (entry, error) {
	if uint64(offset)+dataEntrySize > uint64(len(rsrc)) {
		return entry{}, fmt.Errorf("%w: data entry at %#x out of bounds", core.ErrMalformed, offset)
	}
	rva := binary.LittleEndian.Uint32(rsrc[offset:])
	size := binary.LittleEndian.Uint32(rsrc[offset+4:])
	if rva < virtualAddress {
		return entry{}, fmt.Errorf("%w: data entry rva %#x before section", core.ErrMalformed, rva)
	}
	return entry{offset: rva - virtualAddress + fileOffset, size: size}, nil
}

// ResourceIDs lists the bitmap ids in ascending order.
func (a *Archive) ResourceIDs() []int {
	ids := make([]int, 0, len(a.resources))
	for id := range a.resources {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (a *Archive) Has(resourceID int) bool {
	_, ok := a.resources[resourceID]
	return ok
}

func (a *Archive) Len() int {
	return len(a.resources)
}

// Bitmap returns the resource as a standalone .bmp file.
func (a *Archive) Bitmap(resourceID int) ([]byte, error) {
	e, ok := a.resources[resourceID]
	if !ok {
		return nil, fmt.Errorf("bitmap %d: %w", resourceID, core.ErrNotFound)
	}
	return WrapDIB(a.data[e.offset : e.offset+e.size])
}

// Decode returns the pixels of a bitmap resource.
func (a *Archive) Decode(resourceID int) (image.Image, error) {
	b, err := a.Bitmap(resourceID)
	if err != nil {
		return nil, err
	}
	img, err := bmp.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("bitmap %d: %w: %v", resourceID, core.ErrMalformed, err)
	}
	return img, nil
}

// WrapDIB prefixes a device independent bitmap, as stored in PE resources,
// with the BITMAPFILEHEADER a .bmp file needs.
func WrapDIB(dib []byte) ([]byte, error) {
	if len(dib) < 16 {
		return nil, fmt.Errorf("%w: bitmap header truncated", core.ErrMalformed)
	}
	headerSize := binary.LittleEndian.Uint32(dib[0:])
	if headerSize < 12 || uint64(headerSize) > uint64(len(dib)) {
		return nil, fmt.Errorf("%w: bitmap header size %d", core.ErrMalformed, headerSize)
	}

	var width, height int64
	var bitCount, compression, colorsUsed uint32
	if headerSize == 12 {
		// BITMAPCOREHEADER
		width = int64(binary.LittleEndian.Uint16(dib[4:]))
		height = int64(binary.LittleEndian.Uint16(dib[6:]))
		bitCount = uint32(binary.LittleEndian.Uint16(dib[10:]))
	} else {
		if headerSize < 36 {
			return nil, fmt.Errorf("%w: bitmap header size %d", core.ErrMalformed, headerSize)
		}
		width = int64(int32(binary.LittleEndian.Uint32(dib[4:])))
		// negative heights are top-down bitmaps
		height = int64(int32(binary.LittleEndian.Uint32(dib[8:])))
		if height < 0 {
			height = -height
		}
		bitCount = uint32(binary.LittleEndian.Uint16(dib[14:]))
		compression = binary.LittleEndian.Uint32(dib[16:])
		colorsUsed = binary.LittleEndian.Uint32(dib[32:])
	}

	paletteSize := uint64(0)
	if bitCount <= 8 {
		if colorsUsed == 0 {
			colorsUsed = 1 << bitCount
		}
		entrySize := uint64(4)
		if headerSize == 12 {
			entrySize = 3
		}
		paletteSize = uint64(colorsUsed) * entrySize
	}
	if compression == biBitfields && headerSize == 40 {
		paletteSize += 12
	}

	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("%w: bitmap size %dx%d", core.ErrMalformed, width, height)
	}

	if uint64(headerSize)+paletteSize > uint64(len(dib)) {
		return nil, fmt.Errorf("%w: bitmap palette of %d bytes truncated", core.ErrMalformed, paletteSize)
	}
	pixelOffset := fileHeaderSize + headerSize + uint32(paletteSize)
	if compression == biRGB || compression == biBitfields {
		rowSize := (width*int64(bitCount) + 31) / 32 * 4
		available := int64(len(dib)) - int64(headerSize) - int64(paletteSize)
		if available < rowSize*height {
			return nil, fmt.Errorf("%w: bitmap %dx%d needs %d pixel bytes, has %d", core.ErrMalformed, width, height, rowSize*height, available)
		}
	}
	out := make([]byte, fileHeaderSize+len(dib))
	out[0], out[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(out[2:], uint32(len(out)))
	binary.LittleEndian.PutUint32(out[10:], pixelOffset)
	copy(out[fileHeaderSize:], dib)
	return out, nil
}
