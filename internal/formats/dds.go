// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import "github.com/saferwall/xbox360-dumpcarve/internal/binutil"

const (
	ddsHeaderSize    = 128
	ddsMagicSize     = 4
	ddsHeaderSizeOff = 4 // within the 124-byte header that follows the magic
)

func ddsSignature() Signature {
	return Signature{
		ID:             "dds",
		Magic:          []byte("DDS "),
		Description:    "DirectDraw Surface texture",
		MinSize:        ddsHeaderSize,
		MaxSize:        128 * 1024 * 1024,
		OutputFolder:   "textures",
		Extension:      ".dds",
		EnabledForScan: true,
	}
}

// blockBytesPerFourCC is the compressed-block size rule from §4.3: DXT1,
// ATI1, and BC4 pack 8 bytes per 4x4 block; every other recognized BCn
// FourCC packs 16.
func blockBytesPerFourCC(fourCC string) int {
	switch fourCC {
	case "DXT1", "ATI1", "BC4U", "BC4S":
		return 8
	default:
		return 16
	}
}

// parseDDS recognizes both little- and big-endian DDS headers by sanity-
// checking height, width, and the mandatory header_size==124 field, then
// sums each mip level's block payload up to min(mipCount, 16) levels.
func parseDDS(data []byte, offset int) (*ParseResult, error) {
	if offset+ddsHeaderSize > len(data) {
		return nil, nil
	}
	header := data[offset : offset+ddsHeaderSize]

	bigEndian := false
	size32, err := binutil.Uint32LE(header, ddsMagicSize)
	if err != nil || size32 != 124 {
		size32be, errBE := binutil.Uint32BE(header, ddsMagicSize)
		if errBE != nil || size32be != 124 {
			return nil, nil
		}
		bigEndian = true
	}

	read32 := binutil.Uint32LE
	if bigEndian {
		read32 = binutil.Uint32BE
	}

	height, _ := read32(header, 12)
	width, _ := read32(header, 16)
	mipCount, _ := read32(header, 28)
	if height == 0 || width == 0 || height > 1<<16 || width > 1<<16 {
		return nil, nil
	}

	fourCCBytes := header[84:88]
	fourCC := string(fourCCBytes)

	if mipCount == 0 {
		mipCount = 1
	}
	levels := int(mipCount)
	if levels > 16 {
		levels = 16
	}

	payload := mipPayloadSize(int(width), int(height), levels, fourCC)

	return &ParseResult{
		FormatLabel:   "dds",
		EstimatedSize: int64(ddsHeaderSize) + payload,
		Width:         int(width),
		Height:        int(height),
		MipCount:      levels,
		FourCC:        fourCC,
		IsBigEndian:   bigEndian,
	}, nil
}

// mipPayloadSize sums the compressed-block byte cost of the first levels
// mip levels, starting at the base width/height and halving each step
// (each dimension counts at least one 4x4 block), per the BCn block-size
// rule. Shared
// by the DDS parser (§4.3) and the DDX uncompressed-size estimate (§4.5),
// since both describe the same tiled-block pixel payload.
func mipPayloadSize(width, height, levels int, fourCC string) int64 {
	blockBytes := blockBytesPerFourCC(fourCC)
	total := int64(0)
	w, h := int64(width), int64(height)
	for i := 0; i < levels; i++ {
		blocksW := (w + 3) / 4
		if blocksW < 1 {
			blocksW = 1
		}
		blocksH := (h + 3) / 4
		if blocksH < 1 {
			blocksH = 1
		}
		total += blocksW * blocksH * int64(blockBytes)
		w /= 2
		h /= 2
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}
	return total
}
