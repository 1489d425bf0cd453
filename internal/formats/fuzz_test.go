// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import "testing"

// FuzzParsers exercises every registered parser against arbitrary bytes at
// an arbitrary offset, the native-fuzzing replacement for the teacher's
// out-of-tree go-fuzz harness: a parser must never panic, only reject or
// return a validated result.
func FuzzParsers(f *testing.F) {
	f.Add([]byte("DDS \x7c\x00\x00\x00"), 0)
	f.Add(make([]byte, 256), 16)
	f.Add([]byte{0x58, 0x45, 0x58, 0x32}, 0) // "XEX2"

	r := NewRegistry()
	f.Fuzz(func(t *testing.T, data []byte, offset int) {
		if offset < 0 {
			offset = -offset
		}
		if len(data) == 0 {
			return
		}
		offset %= len(data)

		for _, sig := range r.Signatures() {
			_, parse, ok := r.Lookup(sig.ID)
			if !ok {
				continue
			}
			res, err := parse(data, offset)
			if err != nil {
				continue
			}
			if res != nil {
				_ = Validate(sig, res)
			}
		}
	})
}
