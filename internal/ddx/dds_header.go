// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package ddx

const (
	ddsMagicAndHeaderSize = 128 // "DDS " (4) + the 124-byte DDS_HEADER structure

	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPixelFormat = 0x1000
	ddsdMipmapCount = 0x20000
	ddsdLinearSize  = 0x80000

	ddscapsTexture = 0x1000
	ddscapsMipmap  = 0x400000
	ddscapsComplex = 0x8

	ddpfFourCC = 0x4
)

// synthesizeDDSHeader builds a standard 128-byte DDS header (§4.5 step 6):
// magic + DDS_HEADER + DDS_PIXELFORMAT, flagged for a FourCC-compressed,
// optionally mipped texture.
func synthesizeDDSHeader(width, height, mipCount int, fourCC string) []byte {
	h := make([]byte, ddsMagicAndHeaderSize)
	copy(h[0:4], []byte("DDS "))

	flags := uint32(ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat | ddsdLinearSize)
	if mipCount > 1 {
		flags |= ddsdMipmapCount
	}

	putLE32(h, 4, 124) // dwSize
	putLE32(h, 8, flags)
	putLE32(h, 12, uint32(height))
	putLE32(h, 16, uint32(width))
	putLE32(h, 20, uint32(mipPayloadSize(width, height, 1, fourCC))) // dwPitchOrLinearSize: top mip only
	putLE32(h, 28, uint32(mipCount))

	// DDS_PIXELFORMAT begins at offset 76, is 32 bytes.
	putLE32(h, 76, 32)          // dwSize
	putLE32(h, 80, ddpfFourCC)  // dwFlags
	copy(h[84:88], []byte(fourCC))

	caps := uint32(ddscapsTexture)
	if mipCount > 1 {
		caps |= ddscapsMipmap | ddscapsComplex
	}
	putLE32(h, 108, caps)

	return h
}

func putLE32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}
