// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package binutil groups the small byte-level primitives shared by every
// other package in this module: fixed-width endian reads, byte-pattern
// search, a printable-text test, and filename sanitization.
//
// Nothing here allocates on the hot path; callers pass already-mapped
// slices and an offset.
package binutil

import (
	"bytes"
	"errors"
	"unicode"

	xunicode "golang.org/x/text/encoding/unicode"
)

// ErrOutsideBoundary is returned when a read would run past the end of the
// backing slice.
var ErrOutsideBoundary = errors.New("binutil: read outside boundary")

// Uint16LE reads a little-endian 16-bit value at offset.
func Uint16LE(b []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(b) {
		return 0, ErrOutsideBoundary
	}
	return uint16(b[offset]) | uint16(b[offset+1])<<8, nil
}

// Uint16BE reads a big-endian 16-bit value at offset.
func Uint16BE(b []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(b) {
		return 0, ErrOutsideBoundary
	}
	return uint16(b[offset])<<8 | uint16(b[offset+1]), nil
}

// Uint32LE reads a little-endian 32-bit value at offset.
func Uint32LE(b []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(b) {
		return 0, ErrOutsideBoundary
	}
	return uint32(b[offset]) | uint32(b[offset+1])<<8 |
		uint32(b[offset+2])<<16 | uint32(b[offset+3])<<24, nil
}

// Uint32BE reads a big-endian 32-bit value at offset.
func Uint32BE(b []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(b) {
		return 0, ErrOutsideBoundary
	}
	return uint32(b[offset])<<24 | uint32(b[offset+1])<<16 |
		uint32(b[offset+2])<<8 | uint32(b[offset+3]), nil
}

// Uint64LE reads a little-endian 64-bit value at offset.
func Uint64LE(b []byte, offset int) (uint64, error) {
	if offset < 0 || offset+8 > len(b) {
		return 0, ErrOutsideBoundary
	}
	lo, _ := Uint32LE(b, offset)
	hi, _ := Uint32LE(b, offset+4)
	return uint64(lo) | uint64(hi)<<32, nil
}

// Uint64BE reads a big-endian 64-bit value at offset.
func Uint64BE(b []byte, offset int) (uint64, error) {
	if offset < 0 || offset+8 > len(b) {
		return 0, ErrOutsideBoundary
	}
	hi, _ := Uint32BE(b, offset)
	lo, _ := Uint32BE(b, offset+4)
	return uint64(hi)<<32 | uint64(lo), nil
}

// IndexFrom returns the offset of the first occurrence of pattern in b at
// or after start, or -1 if not found. Used by the boundary scanner (C9) to
// find the next signature occurrence bounding a candidate's length.
func IndexFrom(b, pattern []byte, start int) int {
	if start < 0 {
		start = 0
	}
	if start >= len(b) {
		return -1
	}
	rel := bytes.Index(b[start:], pattern)
	if rel < 0 {
		return -1
	}
	return start + rel
}

// IsPrintable reports whether every byte in b is a printable ASCII
// character, whitespace included. Ported from the teacher's IsPrintable
// charset-membership test, generalized from a string predicate to a byte
// slice predicate since carved candidates are raw bytes, not Go strings.
func IsPrintable(b []byte) bool {
	for _, c := range b {
		if c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f' {
			continue
		}
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// CountNonPrintableRun returns the length of the run of consecutive
// non-printable bytes in b that starts at offset, stopping at the first
// printable byte or end of slice; it returns 0 if b[offset] is printable.
func CountNonPrintableRun(b []byte, offset int) int {
	n := 0
	for i := offset; i < len(b); i++ {
		c := b[i]
		printable := (c >= 0x20 && c <= 0x7e) || c == '\t' || c == '\n' || c == '\r'
		if printable {
			break
		}
		n++
	}
	return n
}

// validFilenameRune reports whether r is safe to keep verbatim in an
// extracted-file name.
func validFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '.':
		return true
	}
	return false
}

// SanitizeFilename replaces every rune not in the safe charset with '_',
// generalizing the teacher's IsValidDosFilename charset check from a
// validity predicate into an actual rewrite, since extracted filenames are
// derived from untrusted in-dump strings (script names, module names).
func SanitizeFilename(name string) string {
	if name == "" {
		return "unnamed"
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if validFilenameRune(r) {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

// DecodeUTF16LE decodes a NUL-terminated (or length-bounded) little-endian
// UTF-16 byte slice into a string. The terminator is a 0x0000 code unit on
// a 2-byte boundary; a trailing odd byte is ignored. Adapted from the
// teacher's DecodeUTF16String helper, which already uses
// x/text/encoding/unicode for this exact purpose.
func DecodeUTF16LE(b []byte) (string, error) {
	n := len(b) &^ 1
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			n = i
			break
		}
	}
	if n == 0 {
		return "", nil
	}
	decoder := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewDecoder()
	s, err := decoder.Bytes(b[:n])
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// IsASCIIIdentifier reports whether s consists solely of ASCII letters,
// digits, or underscore — the charset required of ObScript script names.
func IsASCIIIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// IsBitSet reports whether bit pos of n is set, ported from the teacher's
// IsBitSet helper (used for DDX's tiled-flag bit and similar flag checks).
func IsBitSet(n uint64, pos uint) bool {
	return n&(1<<pos) != 0
}
