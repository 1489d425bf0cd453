// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import "testing"

func appendChunk(data []byte, chunkType string, payloadLen int) []byte {
	data = append(data, byte(payloadLen>>24), byte(payloadLen>>16), byte(payloadLen>>8), byte(payloadLen))
	data = append(data, []byte(chunkType)...)
	data = append(data, make([]byte, payloadLen)...)
	data = append(data, 0, 0, 0, 0) // CRC
	return data
}

func TestParsePNGFindsIEND(t *testing.T) {
	data := append([]byte{}, pngMagic...)
	data = appendChunk(data, "IHDR", 13)
	data = appendChunk(data, "IDAT", 100)
	data = appendChunk(data, "IEND", 0)
	data = append(data, 0xAA, 0xBB) // trailing garbage, should not be included

	res, err := parsePNG(data, 0)
	if err != nil || res == nil {
		t.Fatalf("parsePNG() = %v, %v", res, err)
	}
	want := int64(len(data) - 2)
	if res.EstimatedSize != want {
		t.Errorf("EstimatedSize = %d, want %d", res.EstimatedSize, want)
	}
}

func TestParsePNGRejectsBadMagic(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x00}
	if res, _ := parsePNG(data, 0); res != nil {
		t.Errorf("parsePNG() = %v, want nil", res)
	}
}

func TestParsePNGRejectsTruncatedChunk(t *testing.T) {
	data := append([]byte{}, pngMagic...)
	data = append(data, 0x00, 0x00, 0x00, 0xFF) // chunk claims 255 bytes
	data = append(data, []byte("IDAT")...)
	// no payload/CRC present
	if res, _ := parsePNG(data, 0); res != nil {
		t.Errorf("parsePNG() = %v, want nil for truncated chunk", res)
	}
}
