// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import "github.com/saferwall/xbox360-dumpcarve/internal/binutil"

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func pngSignature() Signature {
	return Signature{
		ID:             "png",
		Magic:          pngMagic,
		Description:    "PNG image",
		MinSize:        int64(len(pngMagic)) + 8,
		MaxSize:        64 * 1024 * 1024,
		OutputFolder:   "images",
		Extension:      ".png",
		EnabledForScan: true,
	}
}

// parsePNG walks the chunk list from the 8-byte magic to IEND, per §4.3.
// Each chunk is { length:u32be, type:4, data:length, crc:u32be }.
func parsePNG(data []byte, offset int) (*ParseResult, error) {
	if offset+len(pngMagic) > len(data) {
		return nil, nil
	}
	for i, b := range pngMagic {
		if data[offset+i] != b {
			return nil, nil
		}
	}

	pos := offset + len(pngMagic)
	for {
		if pos+8 > len(data) {
			return nil, nil
		}
		chunkLen, err := binutil.Uint32BE(data, pos)
		if err != nil {
			return nil, nil
		}
		chunkType := string(data[pos+4 : pos+8])
		chunkEnd := pos + 8 + int(chunkLen) + 4
		if chunkEnd > len(data) || chunkEnd < pos {
			return nil, nil
		}
		if chunkType == "IEND" {
			return &ParseResult{
				FormatLabel:   "png",
				EstimatedSize: int64(chunkEnd - offset),
			}, nil
		}
		pos = chunkEnd
	}
}
