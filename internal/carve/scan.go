// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package carve

import (
	"context"
	"sort"

	"github.com/saferwall/xbox360-dumpcarve/internal/ahocorasick"
)

// scanCandidates runs matcher over mm in fixed-size chunks, honoring
// cancellation between chunks (§5's first cancellation point). It
// reimplements ahocorasick.Matcher.ScanChunked's windowing rather than
// calling it directly, since ScanChunked has no way to observe ctx.
func scanCandidates(ctx context.Context, mm []byte, matcher *ahocorasick.Matcher, chunkSize int64) ([]ahocorasick.Match, error) {
	size := int64(len(mm))
	if chunkSize <= 0 {
		chunkSize = size
	}
	overlap := int64(matcher.MaxPatternLength())
	if overlap > 0 {
		overlap--
	}

	var all []ahocorasick.Match
	for offset := int64(0); offset < size; offset += chunkSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		length := chunkSize + overlap
		if offset+length > size {
			length = size - offset
		}
		window := mm[offset : offset+length]
		commitEnd := offset + chunkSize

		for _, match := range matcher.Search(window, offset) {
			if match.Offset >= offset && match.Offset < commitEnd {
				all = append(all, match)
			}
		}
	}
	return all, nil
}

// dedupeSortMatches keeps the first-seen match for each offset (several
// signatures may share a prefix and match at the same byte) and returns
// the survivors sorted ascending by offset, per §4.7 step 4.
func dedupeSortMatches(matches []ahocorasick.Match) []ahocorasick.Match {
	seen := make(map[int64]bool, len(matches))
	out := make([]ahocorasick.Match, 0, len(matches))
	for _, m := range matches {
		if seen[m.Offset] {
			continue
		}
		seen[m.Offset] = true
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
