// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import "testing"

func buildBIKHeader(revision byte, headerSize, frameCount, largestFrame, width, height uint32) []byte {
	h := make([]byte, 24)
	h[0], h[1], h[2], h[3] = 'B', 'I', 'K', revision
	putLE32(h, 4, headerSize)
	putLE32(h, 8, frameCount)
	putLE32(h, 12, largestFrame)
	putLE32(h, 16, width)
	putLE32(h, 20, height)
	return h
}

func TestParseBIKValid(t *testing.T) {
	data := buildBIKHeader('i', 1000, 900, 500, 1920, 1080)
	res, err := parseBIK(data, 0)
	if err != nil || res == nil {
		t.Fatalf("parseBIK() = %v, %v", res, err)
	}
	if res.EstimatedSize != 1008 {
		t.Errorf("EstimatedSize = %d, want 1008", res.EstimatedSize)
	}
}

func TestParseBIKRejectsOversizedDimensions(t *testing.T) {
	data := buildBIKHeader('i', 1000, 900, 500, 8192, 1080)
	if res, _ := parseBIK(data, 0); res != nil {
		t.Errorf("parseBIK() = %v, want nil for width > 4096", res)
	}
}

func TestParseBIKRejectsLargestFrameExceedingHeaderSize(t *testing.T) {
	data := buildBIKHeader('i', 1000, 900, 5000, 1920, 1080)
	if res, _ := parseBIK(data, 0); res != nil {
		t.Errorf("parseBIK() = %v, want nil when largest_frame_size > header_size", res)
	}
}

func TestParseBIKRejectsBadRevisionByte(t *testing.T) {
	data := buildBIKHeader('9', 1000, 900, 500, 1920, 1080)
	if res, _ := parseBIK(data, 0); res != nil {
		t.Errorf("parseBIK() = %v, want nil for non-letter revision byte", res)
	}
}
