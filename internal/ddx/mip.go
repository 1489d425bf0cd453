// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package ddx

// blockBytesPerFourCC mirrors the DDS block-size rule used by the formats
// package's size estimator: DXT1/ATI1/BC4 pack 8 bytes per 4x4 block,
// every other recognized BCn FourCC packs 16.
func blockBytesPerFourCC(fourCC string) int {
	switch fourCC {
	case "DXT1", "ATI1", "BC4U", "BC4S":
		return 8
	default:
		return 16
	}
}

func mipDimensions(width, height, levels int) [][2]int {
	dims := make([][2]int, 0, levels)
	w, h := width, height
	for i := 0; i < levels; i++ {
		dims = append(dims, [2]int{w, h})
		w /= 2
		h /= 2
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}
	return dims
}

func mipPayloadSize(width, height, levels int, fourCC string) int64 {
	blockBytes := blockBytesPerFourCC(fourCC)
	total := int64(0)
	for _, d := range mipDimensions(width, height, levels) {
		blocksW := int64((d[0] + 3) / 4)
		if blocksW < 1 {
			blocksW = 1
		}
		blocksH := int64((d[1] + 3) / 4)
		if blocksH < 1 {
			blocksH = 1
		}
		total += blocksW * blocksH * int64(blockBytes)
	}
	return total
}

// splitMips slices a decoded payload into one []byte per mip level,
// matching the per-level byte counts used by mipPayloadSize. If decoded is
// shorter than the full expected size (a partial LZX recovery), later
// mips are returned as empty slices rather than panicking.
func splitMips(decoded []byte, width, height, levels int, fourCC string) [][]byte {
	blockBytes := blockBytesPerFourCC(fourCC)
	mips := make([][]byte, 0, levels)
	pos := 0
	for _, d := range mipDimensions(width, height, levels) {
		blocksW := (d[0] + 3) / 4
		if blocksW < 1 {
			blocksW = 1
		}
		blocksH := (d[1] + 3) / 4
		if blocksH < 1 {
			blocksH = 1
		}
		size := blocksW * blocksH * blockBytes
		if pos >= len(decoded) {
			mips = append(mips, nil)
			continue
		}
		end := pos + size
		if end > len(decoded) {
			end = len(decoded)
		}
		mips = append(mips, decoded[pos:end])
		pos = end
	}
	return mips
}
