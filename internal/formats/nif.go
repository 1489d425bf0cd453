// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import (
	"bytes"

	"github.com/saferwall/xbox360-dumpcarve/internal/binutil"
)

const (
	nifMagicString  = "Gamebryo File Format"
	nifProbeWindow  = 60
	nifDefaultSize  = 50 * 1024
	nifMaxEstimated = 20 * 1024 * 1024
)

func nifSignature() Signature {
	return Signature{
		ID:             "nif",
		Magic:          []byte(nifMagicString),
		Description:    "NetImmerse/Gamebryo model (NIF)",
		MinSize:        int64(len(nifMagicString)) + 1,
		MaxSize:        nifMaxEstimated,
		OutputFolder:   "models",
		Extension:      ".nif",
		EnabledForScan: true,
	}
}

// parseNIF reads the newline-terminated version string following the magic,
// then for 20.x versions probes forward on 4-byte boundaries for a block
// count it can sanity-check, per §4.3.
func parseNIF(data []byte, offset int) (*ParseResult, error) {
	magicEnd := offset + len(nifMagicString)
	if magicEnd > len(data) {
		return nil, nil
	}

	termIdx := bytes.IndexByte(data[magicEnd:], '\n')
	if termIdx < 0 {
		return nil, nil
	}
	version := string(data[magicEnd : magicEnd+termIdx])
	versionEnd := magicEnd + termIdx + 1

	if !bytes.HasPrefix([]byte(version), []byte("Version 20.")) && !bytes.HasPrefix([]byte(version), []byte("20.")) {
		return &ParseResult{
			FormatLabel:   "nif",
			EstimatedSize: nifDefaultSize,
			Metadata:      map[string]any{"version": version},
		}, nil
	}

	probeEnd := versionEnd + nifProbeWindow
	if probeEnd > len(data) {
		probeEnd = len(data)
	}

	for p := versionEnd; p+4 <= probeEnd; p += 4 {
		count, err := binutil.Uint32LE(data, p)
		if err != nil {
			break
		}
		if count >= 1 && count <= 10000 {
			size := int64(count)*500 + 1000
			if size > nifMaxEstimated {
				size = nifMaxEstimated
			}
			return &ParseResult{
				FormatLabel:   "nif",
				EstimatedSize: size,
				Metadata:      map[string]any{"version": version, "block_count": count},
			}, nil
		}
	}

	return &ParseResult{
		FormatLabel:   "nif",
		EstimatedSize: nifDefaultSize,
		Metadata:      map[string]any{"version": version},
	}, nil
}
