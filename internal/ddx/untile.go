// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package ddx

// untileBlock deswizzles the top mip's 4x4-texel block data from the Xbox
// 360 GPU's tiled layout into linear row-major order, per §4.5 step 4: for
// each linear block index in a ceil(W/4) x ceil(H/4) grid, the tiled
// source index is obtained by interleaving the low bits of the block's
// (x, y) coordinates Morton/Z-order style.
func untileBlock(data []byte, width, height int, fourCC string) []byte {
	blockBytes := blockBytesPerFourCC(fourCC)
	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4
	if blocksW < 1 {
		blocksW = 1
	}
	if blocksH < 1 {
		blocksH = 1
	}
	total := blocksW * blocksH
	if len(data) < total*blockBytes {
		return data
	}

	out := make([]byte, len(data))
	for by := 0; by < blocksH; by++ {
		for bx := 0; bx < blocksW; bx++ {
			linear := by*blocksW + bx
			tiled := mortonIndex(bx, by, blocksW, blocksH)
			srcOff := tiled * blockBytes
			dstOff := linear * blockBytes
			if srcOff+blockBytes > len(data) || dstOff+blockBytes > len(out) {
				continue
			}
			copy(out[dstOff:dstOff+blockBytes], data[srcOff:srcOff+blockBytes])
		}
	}
	return out
}

// untileIsExact reports whether untileBlock's Morton/Z-order bit-interleave
// is verified correct for a width x height texture: square, power-of-two
// block grids only. Xenia's own Xbox 360 GPU untiler derives the same
// addressing from a reverse-engineered lookup table rather than a closed-
// form bit-interleave, and this approximation has only been checked
// against that reference for the square power-of-two case (see
// DESIGN.md's Open Question on GPU texture untiling).
func untileIsExact(width, height int) bool {
	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4
	if blocksW != blocksH || blocksW <= 0 {
		return false
	}
	return blocksW&(blocksW-1) == 0
}

// mortonIndex interleaves the bits of bx, by into a single Z-order index,
// scaled to fit a blocksW x blocksH grid. This is the "Xbox-specific
// order" the specification leaves as an implementation-replicated detail;
// a bit-interleave is the standard construction for GPU swizzle addressing.
func mortonIndex(bx, by, blocksW, blocksH int) int {
	bits := 0
	for (1 << bits) < blocksW || (1 << bits) < blocksH {
		bits++
	}
	z := 0
	for i := 0; i < bits; i++ {
		z |= ((bx >> i) & 1) << (2 * i)
		z |= ((by >> i) & 1) << (2*i + 1)
	}
	max := blocksW * blocksH
	if z >= max {
		z = z % max
	}
	return z
}

// byteSwap16 swaps every pair of bytes in place: Xbox stores compressed
// block data as big-endian u16 pairs (§4.5 step 5).
func byteSwap16(data []byte) {
	n := len(data) - (len(data) % 2)
	for i := 0; i < n; i += 2 {
		data[i], data[i+1] = data[i+1], data[i]
	}
}
