// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package minidump

import (
	"encoding/binary"
	"testing"
)

// buildMinimalDump constructs scenario S1: header MDMP + version bytes +
// num_streams=1, stream_dir_rva=32, one SystemInfoStream with
// processor_arch=0x0003.
func buildMinimalDump() []byte {
	data := make([]byte, 64)
	copy(data[0:4], magic)
	binary.LittleEndian.PutUint32(data[4:8], 0xA793) // version, unused
	binary.LittleEndian.PutUint32(data[8:12], 1)      // num_streams
	binary.LittleEndian.PutUint32(data[12:16], 32)    // stream_dir_rva

	// Stream directory entry at 32: {type=7, size=4, rva=48}.
	binary.LittleEndian.PutUint32(data[32:36], streamTypeSystemInfo)
	binary.LittleEndian.PutUint32(data[36:40], 4)
	binary.LittleEndian.PutUint32(data[40:44], 48)

	// SystemInfoStream payload at 48: processor_arch u16 LE = 0x0003.
	binary.LittleEndian.PutUint16(data[48:50], 0x0003)

	return data
}

func TestParseMinimalValidDump(t *testing.T) {
	data := buildMinimalDump()

	info, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !info.IsValid {
		t.Errorf("IsValid = false, want true")
	}
	if !info.IsXbox360() {
		t.Errorf("IsXbox360() = false, want true")
	}
	if len(info.Modules) != 0 {
		t.Errorf("Modules = %v, want empty", info.Modules)
	}
	if len(info.Regions) != 0 {
		t.Errorf("Regions = %v, want empty", info.Regions)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildMinimalDump()
	copy(data[0:4], "XXXX")
	if _, err := Parse(data); err == nil {
		t.Errorf("Parse() error = nil, want ErrInvalidContainer")
	}
}

func TestParseRejectsZeroStreams(t *testing.T) {
	data := buildMinimalDump()
	binary.LittleEndian.PutUint32(data[8:12], 0)
	if _, err := Parse(data); err == nil {
		t.Errorf("Parse() error = nil, want ErrInvalidContainer")
	}
}

func TestParseRejectsTooManyStreams(t *testing.T) {
	data := buildMinimalDump()
	binary.LittleEndian.PutUint32(data[8:12], 101)
	if _, err := Parse(data); err == nil {
		t.Errorf("Parse() error = nil, want ErrInvalidContainer")
	}
}

func TestParseRejectsZeroStreamDirRVA(t *testing.T) {
	data := buildMinimalDump()
	binary.LittleEndian.PutUint32(data[12:16], 0)
	if _, err := Parse(data); err == nil {
		t.Errorf("Parse() error = nil, want ErrInvalidContainer")
	}
}

func TestUnknownStreamTypeIgnored(t *testing.T) {
	data := buildMinimalDump()
	binary.LittleEndian.PutUint32(data[32:36], 999) // unknown type
	info, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if info.ProcessorArch != 0 {
		t.Errorf("ProcessorArch = %#x, want 0 (stream ignored)", info.ProcessorArch)
	}
}

// TestVAToFileOffsetRoundTrip is property P2: for any region r and any
// 0 <= k < r.size, VAToFileOffset(r.va+k) == r.file_offset+k and the
// inverse holds.
func TestVAToFileOffsetRoundTrip(t *testing.T) {
	info := &Info{
		Regions: []MemoryRegion{
			{VirtualAddress: 0x82000000, Size: 0x1000, FileOffset: 0x2000},
			{VirtualAddress: 0x82001000, Size: 0x2000, FileOffset: 0x3000},
		},
	}

	for _, r := range info.Regions {
		for _, k := range []uint64{0, 1, r.Size - 1} {
			va := r.VirtualAddress + k
			offset, ok := info.VAToFileOffset(va)
			if !ok {
				t.Fatalf("VAToFileOffset(%#x) not found", va)
			}
			want := r.FileOffset + int64(k)
			if offset != want {
				t.Errorf("VAToFileOffset(%#x) = %#x, want %#x", va, offset, want)
			}

			backVA, ok := info.FileOffsetToVA(offset)
			if !ok || backVA != va {
				t.Errorf("FileOffsetToVA(%#x) = %#x, %v, want %#x, true", offset, backVA, ok, va)
			}
		}
	}
}

func TestVAToFileOffsetNotFound(t *testing.T) {
	info := &Info{Regions: []MemoryRegion{{VirtualAddress: 0x1000, Size: 0x10, FileOffset: 0}}}
	if _, ok := info.VAToFileOffset(0x5000); ok {
		t.Errorf("VAToFileOffset(0x5000) ok = true, want false")
	}
}

func TestModuleFileRangeContiguous(t *testing.T) {
	info := &Info{
		Regions: []MemoryRegion{
			{VirtualAddress: 0x1000, Size: 0x1000, FileOffset: 0x10000},
			{VirtualAddress: 0x2000, Size: 0x1000, FileOffset: 0x11000},
			{VirtualAddress: 0x4000, Size: 0x1000, FileOffset: 0x20000}, // gap: not contiguous with 0x3000.
		},
	}
	mod := Module{BaseVA: 0x1800, Size: 0x1000} // spans into the second region fully.

	rng, ok := info.ModuleFileRange(mod)
	if !ok {
		t.Fatalf("ModuleFileRange() not found")
	}
	wantOffset := int64(0x10000 + 0x800)
	if rng.FileOffset != wantOffset {
		t.Errorf("FileOffset = %#x, want %#x", rng.FileOffset, wantOffset)
	}
	if rng.CapturedSize != 0x1000 {
		t.Errorf("CapturedSize = %#x, want 0x1000 (fully captured)", rng.CapturedSize)
	}
}

func TestModuleFileRangeStopsAtGap(t *testing.T) {
	info := &Info{
		Regions: []MemoryRegion{
			{VirtualAddress: 0x1000, Size: 0x1000, FileOffset: 0x10000},
			{VirtualAddress: 0x4000, Size: 0x1000, FileOffset: 0x20000}, // not contiguous
		},
	}
	// Module claims to span past the first region's end into the gap.
	mod := Module{BaseVA: 0x1000, Size: 0x4000}

	rng, ok := info.ModuleFileRange(mod)
	if !ok {
		t.Fatalf("ModuleFileRange() not found")
	}
	if rng.CapturedSize != 0x1000 {
		t.Errorf("CapturedSize = %#x, want 0x1000 (capture stops at the gap)", rng.CapturedSize)
	}
}

func TestDetectBuildType(t *testing.T) {
	tests := []struct {
		name    string
		modules []string
		want    BuildType
	}{
		{"debug", []string{"game.xex", "DebugHeap.dll"}, BuildDebug},
		{"memdebug wins over debug", []string{"MemDebugAlloc.dll"}, BuildMemDebug},
		{"release beta underscore", []string{"Release_Beta.xex"}, BuildReleaseBeta},
		{"release beta no underscore", []string{"ReleaseBeta.xex"}, BuildReleaseBeta},
		{"none", []string{"retail.xex"}, BuildUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &Info{}
			for _, n := range tt.modules {
				info.Modules = append(info.Modules, Module{Name: n})
			}
			if got := info.DetectBuildType(); got != tt.want {
				t.Errorf("DetectBuildType() = %q, want %q", got, tt.want)
			}
		})
	}
}
