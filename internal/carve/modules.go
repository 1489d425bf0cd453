// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package carve

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/saferwall/xbox360-dumpcarve/internal/binutil"
	"github.com/saferwall/xbox360-dumpcarve/internal/minidump"
)

// extractHeaderAndModules implements §4.7 step 2: the minidump header
// region (offset 0 to HeaderSize) and every recovered module file-range
// are written to executables/ and added to the manifest ahead of the
// signature scan.
func (j *job) extractHeaderAndModules(info *minidump.Info, mm []byte) []CarveEntry {
	var entries []CarveEntry

	if info.HeaderSize > 0 && info.HeaderSize <= int64(len(mm)) {
		header := mm[:info.HeaderSize]
		name := j.names.allocate("executables", "minidump_header", ".bin")
		path := filepath.Join(j.dumpDir, "executables", name)
		if err := writeExclusive(path, header); err != nil {
			j.log.WithField("err", err).Warn("failed to write minidump header")
		} else {
			entries = append(entries, CarveEntry{
				FileType:    "minidump_header",
				Offset:      0,
				SizeInDump:  info.HeaderSize,
				SizeOutput:  info.HeaderSize,
				Filename:    filepath.Join("executables", name),
				ContentType: "minidump_header",
			})
		}
	}

	for _, m := range info.Modules {
		rng, ok := info.ModuleFileRange(m)
		if !ok || rng.CapturedSize == 0 {
			continue
		}
		end := rng.FileOffset + int64(rng.CapturedSize)
		if end > int64(len(mm)) {
			end = int64(len(mm))
		}
		if end <= rng.FileOffset {
			continue
		}
		data := mm[rng.FileOffset:end]

		base := binutil.SanitizeFilename(m.Name)
		if base == "" {
			base = fmt.Sprintf("module_%08x", rng.FileOffset)
		}
		name := j.names.allocate("executables", base, ".bin")
		path := filepath.Join(j.dumpDir, "executables", name)
		if err := writeExclusive(path, data); err != nil {
			j.log.WithFields(logrus.Fields{"module": m.Name, "err": err}).Warn("failed to write module")
			continue
		}

		entries = append(entries, CarveEntry{
			FileType:    "module",
			Offset:      rng.FileOffset,
			SizeInDump:  int64(rng.CapturedSize),
			SizeOutput:  int64(len(data)),
			Filename:    filepath.Join("executables", name),
			ContentType: "module",
			IsPartial:   int64(rng.CapturedSize) < int64(m.Size),
		})
	}

	return entries
}
