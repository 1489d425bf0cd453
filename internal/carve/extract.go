// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package carve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/saferwall/xbox360-dumpcarve/internal/ahocorasick"
	"github.com/saferwall/xbox360-dumpcarve/internal/binutil"
	"github.com/saferwall/xbox360-dumpcarve/internal/ddx"
	"github.com/saferwall/xbox360-dumpcarve/internal/formats"
)

// job holds the state shared across one dump's extraction tasks: exactly
// the shared state §5 allows (claim set, per-type quotas, DDX
// converted/failed counters, the output name allocator). Nothing else is
// mutable across goroutines.
type job struct {
	registry *formats.Registry
	opts     Options
	dumpDir  string

	claims *claimSet
	quota  *quotaTracker
	names  *nameAllocator
	log    *logrus.Entry

	ddxConverted int64
	ddxFailed    int64
}

// extractAll runs the bounded parallel extraction stage (§4.7 step 5):
// matches are fanned out to a fixed worker pool, honoring cancellation
// between scheduled tasks (§5's second cancellation point).
func (j *job) extractAll(ctx context.Context, mm []byte, matches []ahocorasick.Match) []CarveEntry {
	parallelism := j.opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	workCh := make(chan ahocorasick.Match)
	resultsCh := make(chan CarveEntry)
	var wg sync.WaitGroup

	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range workCh {
				if entry, ok := j.extractOne(mm, m); ok {
					resultsCh <- entry
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, m := range matches {
			select {
			case <-ctx.Done():
				return
			case workCh <- m:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var entries []CarveEntry
	for e := range resultsCh {
		entries = append(entries, e)
	}
	return entries
}

// extractOne runs one candidate through Matched -> Parsing -> { Rejected |
// Sized -> Writing -> { Written | WriteFailed } } (§4.7's state machine).
func (j *job) extractOne(mm []byte, m ahocorasick.Match) (CarveEntry, bool) {
	if !j.claims.tryClaim(m.Offset) {
		return CarveEntry{}, false
	}

	sig, parser, ok := j.registry.Lookup(m.ID)
	if !ok {
		return CarveEntry{}, false
	}

	if !j.quota.reserve(sig.ID) {
		return CarveEntry{}, false // QuotaExceeded: silent skip, §7.
	}

	res, err := parser(mm, int(m.Offset))
	if err != nil || res == nil {
		j.quota.release(sig.ID) // ParserReject, §7: normal case.
		return CarveEntry{}, false
	}
	if !formats.Validate(sig, res) {
		j.quota.release(sig.ID)
		return CarveEntry{}, false
	}

	writeLen := res.EstimatedSize
	if remaining := int64(len(mm)) - m.Offset; writeLen > remaining {
		writeLen = remaining // TruncatedCapture, §7: downgrade rather than reject.
	}
	if writeLen <= 0 {
		j.quota.release(sig.ID)
		return CarveEntry{}, false
	}
	candidate := mm[m.Offset : m.Offset+writeLen]

	folder := sig.OutputFolder
	ext := sig.Extension
	contentType := sig.ID
	isCompressed := false
	isPartial := false
	notes := ""
	outBytes := candidate

	if strings.HasPrefix(sig.ID, "ddx_") {
		isCompressed = true
		converted := false
		if j.opts.ConvertDDX {
			if result, convErr := ddx.Convert(candidate, ddx.Options{}); convErr == nil {
				outBytes = result.DDS
				folder = "textures"
				ext = ".dds"
				contentType = "dds_converted"
				isPartial = result.IsPartial
				if isPartial {
					contentType = "dds_partial"
				}
				notes = result.Notes
				atomic.AddInt64(&j.ddxConverted, 1)
				converted = true
			} else {
				atomic.AddInt64(&j.ddxFailed, 1)
				notes = convErr.Error()
			}
		}
		if !converted {
			folder = "ddx"
			ext = ".ddx"
			contentType = "ddx_raw"
		}
	}

	label := res.FormatLabel
	if label == "" {
		label = sig.ID
	}
	base := binutil.SanitizeFilename(fmt.Sprintf("%s_%08x", label, m.Offset))
	filename := j.names.allocate(folder, base, ext)

	fullPath := filepath.Join(j.dumpDir, folder, filename)
	if err := writeExclusive(fullPath, outBytes); err != nil {
		j.log.WithFields(logrus.Fields{"path": fullPath, "err": err}).Warn("write failed, skipping candidate")
		j.quota.release(sig.ID) // WriteFailure, §7: counter decremented.
		return CarveEntry{}, false
	}

	return CarveEntry{
		FileType:     sig.ID,
		Offset:       m.Offset,
		SizeInDump:   writeLen,
		SizeOutput:   int64(len(outBytes)),
		Filename:     filepath.Join(folder, filename),
		IsCompressed: isCompressed,
		ContentType:  contentType,
		IsPartial:    isPartial,
		Notes:        notes,
	}, true
}

// writeExclusive writes data to path, failing if the file already exists
// (output files are opened in exclusive mode and closed before the
// manifest entry is committed, per §5).
func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
