// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package carve

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// CarveEntry is one element of the manifest JSON array (§6): one recovered
// file, keyed by its absolute offset in the source dump.
type CarveEntry struct {
	FileType     string `json:"fileType"`
	Offset       int64  `json:"offset"`
	SizeInDump   int64  `json:"sizeInDump"`
	SizeOutput   int64  `json:"sizeOutput"`
	Filename     string `json:"filename"`
	IsCompressed bool   `json:"isCompressed"`
	ContentType  string `json:"contentType"`
	IsPartial    bool   `json:"isPartial"`
	Notes        string `json:"notes,omitempty"`
}

// writeManifest marshals entries as a JSON array to <dir>/manifest.json.
// The order of entries is not defined — extraction runs in parallel — so
// callers must not depend on manifest ordering beyond "one entry per
// recovered offset".
func writeManifest(dir string, entries []CarveEntry) error {
	if entries == nil {
		entries = []CarveEntry{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), b, 0644)
}
