// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import "github.com/saferwall/xbox360-dumpcarve/internal/binutil"

const ddxHeaderSize = 0x44

func ddxSignature(magic string) Signature {
	return Signature{
		ID:             "ddx_" + magic,
		Magic:          []byte(magic),
		Description:    "Xbox 360 compressed GPU texture",
		MinSize:        ddxHeaderSize,
		MaxSize:        64 * 1024 * 1024,
		OutputFolder:   "textures",
		Extension:      ".ddx",
		EnabledForScan: true,
	}
}

// xboxGPUFourCC maps the low byte of a DDX format dword to the DDS FourCC
// it decompresses to, per §4.5 step 2. Unknown codes have no entry.
var xboxGPUFourCC = map[byte]string{
	0x12: "DXT1", 0x52: "DXT1", 0x82: "DXT1", 0x86: "DXT1",
	0x13: "DXT3", 0x53: "DXT3",
	0x14: "DXT5", 0x54: "DXT5", 0x88: "DXT5",
	0x71: "ATI2",
	0x7B: "ATI1",
}

type ddxHeader struct {
	flags    uint32
	tiled    bool
	format   byte
	fourCC   string
	mipCount int
	width    int
	height   int
}

// ddxHeaderValid applies the §3 data-model validity rules shared by both
// the primary signature match and the boundary-scan's look-alike rejection:
// the indicator byte must not be 0xFF, version must be >= 3, and the flags
// dword's low byte must be >= 0x80.
func ddxHeaderValid(data []byte, at int) bool {
	if at+ddxHeaderSize > len(data) {
		return false
	}
	if data[at+0x04] == 0xFF {
		return false
	}
	version, err := binutil.Uint16LE(data, at+0x07)
	if err != nil || version < 3 {
		return false
	}
	flags, err := binutil.Uint32BE(data, at+0x24)
	if err != nil {
		return false
	}
	return byte(flags) >= 0x80
}

func parseDDXHeader(data []byte, offset int) (ddxHeader, bool) {
	if !ddxHeaderValid(data, offset) {
		return ddxHeader{}, false
	}
	flags, _ := binutil.Uint32BE(data, offset+0x24)
	format, err := binutil.Uint32BE(data, offset+0x28)
	if err != nil {
		return ddxHeader{}, false
	}
	size, err := binutil.Uint32BE(data, offset+0x2C)
	if err != nil {
		return ddxHeader{}, false
	}

	mipExp := int((format >> 16) & 0xF)
	mipCount := mipExp + 1
	if mipCount > 13 {
		mipCount = 1
	}

	return ddxHeader{
		flags:    flags,
		tiled:    binutil.IsBitSet(uint64(flags), 22),
		format:   byte(format),
		fourCC:   xboxGPUFourCC[byte(format)],
		mipCount: mipCount,
		width:    int(size&0x1FFF) + 1,
		height:   int((size>>13)&0x1FFF) + 1,
	}, true
}

// parseDDX applies the heuristic size estimate from §4.3/§4.5: the
// uncompressed payload size is derived from the header's own width,
// height, mip count, and mapped FourCC (the same per-block math as DDS),
// a coarse compressed bound is taken as 3/4 of that, and a tighter bound
// is obtained by scanning forward for the next plausible DDX header.
func parseDDX(data []byte, offset int) (*ParseResult, error) {
	hdr, ok := parseDDXHeader(data, offset)
	if !ok {
		return nil, nil
	}

	uncompressedSize := mipPayloadSize(hdr.width, hdr.height, hdr.mipCount, hdr.fourCC)
	if uncompressedSize == 0 {
		return nil, nil
	}

	coarseBound := int64(ddxHeaderSize) + (uncompressedSize*3)/4

	minScan := int64(ddxHeaderSize)
	guess := uncompressedSize / 5
	if guess < 100 {
		guess = 100
	}
	minScan += guess
	if minScan > coarseBound {
		minScan = coarseBound
	}

	maxScan := int64(ddxHeaderSize) + uncompressedSize
	if remaining := int64(len(data) - offset); maxScan > remaining {
		maxScan = remaining
	}

	patterns := [][]byte{[]byte("3XDO"), []byte("3XDR")}
	end, found := boundaryScan(data[offset:], int(minScan), int(maxScan), patterns, ddxHeaderValid)

	size := coarseBound
	if found {
		size = int64(end)
	} else if int64(end) < size {
		size = int64(end)
	}

	return &ParseResult{
		FormatLabel:   "ddx",
		EstimatedSize: size,
		Width:         hdr.width,
		Height:        hdr.height,
		MipCount:      hdr.mipCount,
		FourCC:        hdr.fourCC,
		Metadata: map[string]any{
			"gpu_format_code":   hdr.format,
			"tiled":             hdr.tiled,
			"uncompressed_size": uncompressedSize,
		},
	}, nil
}
