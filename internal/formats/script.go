// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import (
	"bytes"

	"github.com/saferwall/xbox360-dumpcarve/internal/binutil"
)

const (
	scriptNonPrintableRun = 3
	scriptMaxSize         = 256 * 1024
	scriptMarkerShort     = "scn "
	scriptMarkerLong      = "scriptname "
)

func scriptSignature() Signature {
	return Signature{
		ID:             "script",
		Magic:          []byte("scn "),
		Description:    "ObScript source (scn/scriptname)",
		MinSize:        int64(len(scriptMarkerShort)) + 1,
		MaxSize:        scriptMaxSize,
		OutputFolder:   "scripts",
		Extension:      ".obs",
		EnabledForScan: true,
	}
}

// parseScript validates the script-name charset per §4.3 and bounds the
// body by the next script-start marker or the first run of more than 3
// consecutive non-printable bytes, whichever comes first.
func parseScript(data []byte, offset int) (*ParseResult, error) {
	markerLen, ok := matchScriptMarker(data, offset)
	if !ok {
		return nil, nil
	}

	nameStart := offset + markerLen
	nameEnd := nameStart
	for nameEnd < len(data) && isScriptNameByte(data[nameEnd]) {
		nameEnd++
	}
	if nameEnd == nameStart {
		return nil, nil
	}
	name := string(data[nameStart:nameEnd])

	searchFrom := nameEnd
	maxScan := offset + scriptMaxSize
	if maxScan > len(data) {
		maxScan = len(data)
	}

	nextMarker, found := boundaryScan(data, searchFrom, maxScan,
		[][]byte{[]byte(scriptMarkerShort), []byte(scriptMarkerLong)}, nil)

	nonPrintableAt := nextNonPrintableRunBoundary(data, searchFrom, maxScan, scriptNonPrintableRun)

	end := maxScan
	if found && nextMarker < end {
		end = nextMarker
	}
	if nonPrintableAt >= 0 && nonPrintableAt < end {
		end = nonPrintableAt
	}

	return &ParseResult{
		FormatLabel:   "script",
		EstimatedSize: int64(end - offset),
		FileName:      name,
		Metadata:      map[string]any{"script_name": name},
	}, nil
}

func matchScriptMarker(data []byte, offset int) (int, bool) {
	if hasCaseInsensitivePrefix(data, offset, scriptMarkerLong) {
		return len(scriptMarkerLong), true
	}
	if hasCaseInsensitivePrefix(data, offset, scriptMarkerShort) {
		return len(scriptMarkerShort), true
	}
	return 0, false
}

func hasCaseInsensitivePrefix(data []byte, offset int, marker string) bool {
	if offset+len(marker) > len(data) {
		return false
	}
	return bytes.EqualFold(data[offset:offset+len(marker)], []byte(marker))
}

func isScriptNameByte(b byte) bool {
	return binutil.IsASCIIIdentifier(string(rune(b)))
}
