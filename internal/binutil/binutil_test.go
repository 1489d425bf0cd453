// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package binutil

import "testing"

func TestUint32Endian(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04}

	le, err := Uint32LE(b, 0)
	if err != nil || le != 0x04030201 {
		t.Errorf("Uint32LE() = %#x, %v, want 0x04030201, nil", le, err)
	}

	be, err := Uint32BE(b, 0)
	if err != nil || be != 0x01020304 {
		t.Errorf("Uint32BE() = %#x, %v, want 0x01020304, nil", be, err)
	}
}

func TestUint16Endian(t *testing.T) {
	b := []byte{0x00, 0x03}

	le, _ := Uint16LE(b, 0)
	if le != 0x0300 {
		t.Errorf("Uint16LE() = %#x, want 0x0300", le)
	}

	be, _ := Uint16BE(b, 0)
	if be != 0x0003 {
		t.Errorf("Uint16BE() = %#x, want 0x0003", be)
	}
}

func TestUint64Endian(t *testing.T) {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(i + 1)
	}

	le, _ := Uint64LE(b, 0)
	want := uint64(0x0807060504030201)
	if le != want {
		t.Errorf("Uint64LE() = %#x, want %#x", le, want)
	}

	be, _ := Uint64BE(b, 0)
	want = uint64(0x0102030405060708)
	if be != want {
		t.Errorf("Uint64BE() = %#x, want %#x", be, want)
	}
}

func TestOutsideBoundary(t *testing.T) {
	b := []byte{0x01, 0x02}
	if _, err := Uint32LE(b, 0); err != ErrOutsideBoundary {
		t.Errorf("Uint32LE() err = %v, want ErrOutsideBoundary", err)
	}
	if _, err := Uint16LE(b, 2); err != ErrOutsideBoundary {
		t.Errorf("Uint16LE() err = %v, want ErrOutsideBoundary", err)
	}
}

func TestIndexFrom(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		pattern []byte
		start   int
		want    int
	}{
		{"found", []byte("hello3XDOworld"), []byte("3XDO"), 0, 5},
		{"not found", []byte("hello world"), []byte("3XDO"), 0, -1},
		{"start after match", []byte("3XDO3XDO"), []byte("3XDO"), 1, 4},
		{"start past end", []byte("abc"), []byte("a"), 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IndexFrom(tt.data, tt.pattern, tt.start)
			if got != tt.want {
				t.Errorf("IndexFrom() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsPrintable(t *testing.T) {
	tests := []struct {
		in   []byte
		want bool
	}{
		{[]byte("hello world"), true},
		{[]byte("scn MyScript\n"), true},
		{[]byte{0x00, 0x01, 0x02}, false},
		{[]byte{}, true},
	}
	for _, tt := range tests {
		if got := IsPrintable(tt.in); got != tt.want {
			t.Errorf("IsPrintable(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCountNonPrintableRun(t *testing.T) {
	data := []byte("abc\x00\x01\x02\x03def")
	got := CountNonPrintableRun(data, 3)
	if got != 4 {
		t.Errorf("CountNonPrintableRun() = %d, want 4", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"weapon/rifle.dds", "weapon_rifle.dds"},
		{"Script Name", "Script_Name"},
		{"", "unnamed"},
		{"already_ok-1.0", "already_ok-1.0"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeUTF16LE(t *testing.T) {
	// "ab" in UTF-16LE, NUL terminated.
	b := []byte{'a', 0, 'b', 0, 0, 0}
	got, err := DecodeUTF16LE(b)
	if err != nil {
		t.Fatalf("DecodeUTF16LE() error = %v", err)
	}
	if got != "ab" {
		t.Errorf("DecodeUTF16LE() = %q, want %q", got, "ab")
	}
}

func TestIsASCIIIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"MyScript01", true},
		{"my_script", true},
		{"my script", false},
		{"", false},
		{"weird\x00name", false},
	}
	for _, tt := range tests {
		if got := IsASCIIIdentifier(tt.in); got != tt.want {
			t.Errorf("IsASCIIIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsBitSet(t *testing.T) {
	if !IsBitSet(0x00400000, 22) {
		t.Errorf("IsBitSet(0x400000, 22) = false, want true")
	}
	if IsBitSet(0x00400000, 21) {
		t.Errorf("IsBitSet(0x400000, 21) = true, want false")
	}
}
