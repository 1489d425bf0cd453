// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import "github.com/saferwall/xbox360-dumpcarve/internal/binutil"

const bikMaxDimension = 4096
const bikMaxFrameCount = 1000000

func bikSignature() Signature {
	return Signature{
		ID:             "bik",
		Magic:          []byte("BIK"),
		Description:    "Bink video",
		MinSize:        24,
		MaxSize:        512 * 1024 * 1024,
		OutputFolder:   "video",
		Extension:      ".bik",
		EnabledForScan: true,
	}
}

// parseBIK validates the BIKx magic and the sanity bounds from §4.3:
// dimensions, frame count, and the largest-frame/header-size relationship.
func parseBIK(data []byte, offset int) (*ParseResult, error) {
	if offset+4 > len(data) {
		return nil, nil
	}
	if data[offset] != 'B' || data[offset+1] != 'I' || data[offset+2] != 'K' {
		return nil, nil
	}
	revision := data[offset+3]
	if revision < 'a' || revision > 'z' {
		return nil, nil
	}

	if offset+24 > len(data) {
		return nil, nil
	}
	headerSize, err := binutil.Uint32LE(data, offset+4)
	if err != nil {
		return nil, nil
	}
	frameCount, err := binutil.Uint32LE(data, offset+8)
	if err != nil {
		return nil, nil
	}
	largestFrameSize, err := binutil.Uint32LE(data, offset+12)
	if err != nil {
		return nil, nil
	}
	width, err := binutil.Uint32LE(data, offset+16)
	if err != nil {
		return nil, nil
	}
	height, err := binutil.Uint32LE(data, offset+20)
	if err != nil {
		return nil, nil
	}

	if width > bikMaxDimension || height > bikMaxDimension {
		return nil, nil
	}
	if frameCount > bikMaxFrameCount {
		return nil, nil
	}
	if largestFrameSize > headerSize {
		return nil, nil
	}

	return &ParseResult{
		FormatLabel:   "bik",
		EstimatedSize: int64(headerSize) + 8,
		Width:         int(width),
		Height:        int(height),
	}, nil
}
