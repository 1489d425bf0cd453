// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

// parseMagicOnly builds a Parser for formats identified by magic alone
// (§4.3: XEX, XDBF, XUIS/XUIB, LIP, TES4/ESP), sized at the signature's
// max_size or the remaining bytes in the buffer, whichever is smaller.
func parseMagicOnly(label string, maxSize int64) Parser {
	return func(data []byte, offset int) (*ParseResult, error) {
		remaining := int64(len(data) - offset)
		size := remaining
		if size > maxSize {
			size = maxSize
		}
		return &ParseResult{
			FormatLabel:   label,
			EstimatedSize: size,
		}, nil
	}
}
