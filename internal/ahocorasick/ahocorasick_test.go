// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package ahocorasick

import (
	"reflect"
	"sort"
	"testing"
)

func sortMatches(ms []Match) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Offset != ms[j].Offset {
			return ms[i].Offset < ms[j].Offset
		}
		return ms[i].ID < ms[j].ID
	})
}

// TestOverlappingPatterns is scenario S2 from the spec: patterns {"ABAB",
// "BABA"} over "ABABABA" at base offset 100.
func TestOverlappingPatterns(t *testing.T) {
	m := New([]Pattern{
		{ID: "ABAB", Bytes: []byte("ABAB")},
		{ID: "BABA", Bytes: []byte("BABA")},
	})

	got := m.Search([]byte("ABABABA"), 100)
	sortMatches(got)

	want := []Match{
		{ID: "ABAB", Offset: 100},
		{ID: "BABA", Offset: 101},
		{ID: "ABAB", Offset: 102},
		{ID: "BABA", Offset: 103},
	}
	sortMatches(want)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Search() = %#v, want %#v", got, want)
	}
}

// naiveSearch is the bytes.Index-based "obviously correct" reference used
// to validate the automaton against random-ish inputs (property P1).
func naiveSearch(data []byte, patterns []Pattern) []Match {
	var out []Match
	for i := range data {
		for _, p := range patterns {
			if len(p.Bytes) == 0 {
				continue
			}
			if i+len(p.Bytes) > len(data) {
				continue
			}
			match := true
			for k, b := range p.Bytes {
				if data[i+k] != b {
					match = false
					break
				}
			}
			if match {
				out = append(out, Match{ID: p.ID, Offset: int64(i)})
			}
		}
	}
	return out
}

func TestMatchesNaiveReference(t *testing.T) {
	patterns := []Pattern{
		{ID: "dds", Bytes: []byte("DDS ")},
		{ID: "ddx", Bytes: []byte("3XDO")},
		{ID: "riff", Bytes: []byte("RIFF")},
		{ID: "png", Bytes: []byte{0x89, 'P', 'N', 'G'}},
		{ID: "short", Bytes: []byte("DD")},
	}
	m := New(patterns)

	data := []byte("xxxDDS yyy3XDO3XDOzzzRIFFwavDD\x89PNGend")

	got := m.Search(data, 0)
	want := naiveSearch(data, patterns)

	sortMatches(got)
	sortMatches(want)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Search() = %#v, want %#v", got, want)
	}
}

func TestScanChunkedMatchesMonolithic(t *testing.T) {
	patterns := []Pattern{
		{ID: "dds", Bytes: []byte("DDS ")},
		{ID: "ddx", Bytes: []byte("3XDO")},
	}
	m := New(patterns)

	data := make([]byte, 0, 4096)
	for i := 0; i < 512; i++ {
		data = append(data, 'x')
		if i%37 == 0 {
			data = append(data, []byte("DDS ")...)
		}
		if i%53 == 0 {
			data = append(data, []byte("3XDO")...)
		}
	}

	want := m.Search(data, 0)
	sortMatches(want)

	got := m.ScanChunked(int64(len(data)), 64, func(offset, length int64) []byte {
		end := offset + length
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		return data[offset:end]
	})
	sortMatches(got)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ScanChunked() found %d matches, monolithic Search() found %d; mismatch", len(got), len(want))
	}
}

func TestMaxPatternLength(t *testing.T) {
	m := New([]Pattern{
		{ID: "a", Bytes: []byte("AB")},
		{ID: "b", Bytes: []byte("ABCDE")},
		{ID: "empty", Bytes: nil},
	})
	if got := m.MaxPatternLength(); got != 5 {
		t.Errorf("MaxPatternLength() = %d, want 5", got)
	}
}

func TestMissingChildResolvesToRoot(t *testing.T) {
	m := New([]Pattern{{ID: "a", Bytes: []byte("AAB")}})
	// "AAC" never matches "AAB" but must not panic walking failure links.
	got := m.Search([]byte("AAC"), 0)
	if len(got) != 0 {
		t.Errorf("Search() = %#v, want no matches", got)
	}
}
