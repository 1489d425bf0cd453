// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package lzx

import "errors"

// ErrHuffmanDecode is returned when a bit sequence does not correspond to
// any canonical code in the active tree — a corrupt or truncated stream.
var ErrHuffmanDecode = errors.New("lzx: invalid huffman code")

// huffTable is a canonical Huffman decode table built from a code-length
// array. Symbols with length 0 are unused and can never be decoded.
type huffTable struct {
	maxLen int
	// codes[length] maps a code value (of that length) to its symbol.
	codes []map[uint32]int
}

// buildHuffTable constructs the canonical codes implied by lens, the same
// assignment a canonical Huffman encoder would use: codes are assigned in
// increasing length, and within a length in increasing symbol order.
func buildHuffTable(lens []byte) *huffTable {
	maxLen := 0
	for _, l := range lens {
		if int(l) > maxLen {
			maxLen = int(l)
		}
	}

	t := &huffTable{maxLen: maxLen, codes: make([]map[uint32]int, maxLen+1)}
	for i := range t.codes {
		t.codes[i] = map[uint32]int{}
	}
	if maxLen == 0 {
		return t
	}

	count := make([]int, maxLen+1)
	for _, l := range lens {
		if l > 0 {
			count[l]++
		}
	}

	nextCode := make([]uint32, maxLen+1)
	code := uint32(0)
	for l := 1; l <= maxLen; l++ {
		code = (code + uint32(count[l-1])) << 1
		nextCode[l] = code
	}

	for sym, l := range lens {
		if l == 0 {
			continue
		}
		t.codes[l][nextCode[l]] = sym
		nextCode[l]++
	}
	return t
}

// decode reads bits one at a time from br until a valid code is formed.
func (t *huffTable) decode(br *bitReader) (int, error) {
	if t.maxLen == 0 {
		return 0, ErrHuffmanDecode
	}
	code := uint32(0)
	for length := 1; length <= t.maxLen; length++ {
		code = code<<1 | br.readBit()
		if sym, ok := t.codes[length][code]; ok {
			return sym, nil
		}
	}
	return 0, ErrHuffmanDecode
}
