// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import "github.com/saferwall/xbox360-dumpcarve/internal/binutil"

// boundaryScan is the heuristic (C9) that upper-bounds the size of a
// packed or compressed candidate with no length field of its own: it
// scans forward from a conservative minimum offset for the next
// occurrence of one of the format's own signature patterns, treating
// that as the end of the current file. If no later occurrence is found,
// the scan is capped at maxOffset (typically the slice end or a
// format-specific ceiling).
//
// patterns is tried in order at every candidate offset; isValid lets the
// caller reject look-alike matches (e.g. a DDX magic whose header fields
// don't themselves look like a real header) so a boundary scan doesn't
// stop short at random header-shaped noise.
func boundaryScan(data []byte, minOffset, maxOffset int, patterns [][]byte, isValid func(data []byte, at int) bool) (end int, found bool) {
	if minOffset < 0 {
		minOffset = 0
	}
	if maxOffset > len(data) {
		maxOffset = len(data)
	}

	pos := minOffset
	for pos < maxOffset {
		best := -1
		for _, pat := range patterns {
			idx := binutil.IndexFrom(data[:maxOffset], pat, pos)
			if idx < 0 {
				continue
			}
			if best < 0 || idx < best {
				best = idx
			}
		}
		if best < 0 {
			return maxOffset, false
		}
		if isValid == nil || isValid(data, best) {
			return best, true
		}
		pos = best + 1
	}
	return maxOffset, false
}

// nextNonPrintableRunBoundary returns the offset of the first run of more
// than runThreshold consecutive non-printable bytes at or after start, or
// -1 if none is found before end. Used by the script parser (§4.3) to
// bound a script body when no start-marker for the next script is found
// first.
func nextNonPrintableRunBoundary(data []byte, start, end, runThreshold int) int {
	if end > len(data) {
		end = len(data)
	}
	i := start
	for i < end {
		run := binutil.CountNonPrintableRun(data, i)
		if run > runThreshold {
			return i
		}
		if run == 0 {
			i++
		} else {
			i += run
		}
	}
	return -1
}
