// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import (
	"bytes"

	"github.com/saferwall/xbox360-dumpcarve/internal/binutil"
)

const xmaProbeWindow = 200

func xmaSignature() Signature {
	return Signature{
		ID:             "xma",
		Magic:          []byte("RIFF"),
		Description:    "Xbox XMA compressed audio (RIFF/WAVE container)",
		MinSize:        12,
		MaxSize:        256 * 1024 * 1024,
		OutputFolder:   "audio",
		Extension:      ".xma",
		EnabledForScan: true,
	}
}

// parseXMA recognizes a RIFF/WAVE container carrying an XMA format tag
// either in the fmt chunk's wFormatTag field or via a bare XMA2 chunk
// appearing within the probe window, per §4.3.
func parseXMA(data []byte, offset int) (*ParseResult, error) {
	if offset+12 > len(data) {
		return nil, nil
	}
	if string(data[offset+8:offset+12]) != "WAVE" {
		return nil, nil
	}

	riffSize, err := binutil.Uint32LE(data, offset+4)
	if err != nil {
		return nil, nil
	}

	probeEnd := offset + xmaProbeWindow
	if probeEnd > len(data) {
		probeEnd = len(data)
	}
	window := data[offset:probeEnd]

	isXMA := bytes.Contains(window, []byte("XMA2"))
	if !isXMA {
		if idx := bytes.Index(window, []byte("fmt ")); idx >= 0 && idx+10 <= len(window) {
			tag, err := binutil.Uint16LE(window, idx+8)
			if err == nil && (tag == 0x0165 || tag == 0x0166) {
				isXMA = true
			}
		}
	}
	if !isXMA {
		return nil, nil
	}

	return &ParseResult{
		FormatLabel:   "xma",
		EstimatedSize: int64(riffSize) + 8,
	}, nil
}
