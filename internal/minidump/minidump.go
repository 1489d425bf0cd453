// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package minidump interprets the MDMP container: header, stream
// directory, module list, and the Memory64 memory-region list, and
// resolves virtual-address to file-offset mappings for an Xbox 360
// PowerPC process capture.
package minidump

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saferwall/xbox360-dumpcarve/internal/binutil"
)

// Errors raised while parsing the minidump container. Only
// ErrInvalidContainer (and errors it wraps) are fatal for the whole job;
// everything else in this package is a parse-time rejection the carving
// engine is expected to tolerate.
var (
	// ErrInvalidContainer means the MDMP header or stream directory
	// violates a hard invariant: wrong magic, zero or implausible stream
	// count, or a zero stream directory RVA.
	ErrInvalidContainer = errors.New("minidump: invalid container")

	// ErrTruncatedCapture means a requested read extends past the file
	// end; the caller decides whether a partial result is still usable.
	ErrTruncatedCapture = errors.New("minidump: truncated capture")
)

const (
	magic = "MDMP"

	maxStreams     = 100
	maxModules     = 1000
	maxMemRanges   = 10000
	streamDirEntry = 12 // {type:u32, size:u32, rva:u32}
	moduleEntry    = 108

	streamTypeSystemInfo  = 7
	streamTypeModuleList  = 4
	streamTypeMemory64List = 9

	// processorArchPowerPC is reported by Xbox 360 SystemInfoStream
	// captures; everything else is out of scope for this tool.
	processorArchPowerPC = 0x03
)

// Module describes one loaded module recovered from the ModuleListStream.
// Only the first 24 bytes of the on-disk 108-byte entry are interpreted,
// per the data model; the rest is padding this tool has no use for.
type Module struct {
	Name      string
	BaseVA    uint64
	Size      uint32
	Checksum  uint32
	Timestamp uint32
}

// MemoryRegion is one entry from Memory64ListStream, with its file offset
// already resolved by the running-sum rule in §4.2.
type MemoryRegion struct {
	VirtualAddress uint64
	Size           uint64
	FileOffset     int64
}

// contains reports whether va falls within this region.
func (r MemoryRegion) contains(va uint64) bool {
	return va >= r.VirtualAddress && va < r.VirtualAddress+r.Size
}

// end returns the first virtual address past this region.
func (r MemoryRegion) end() uint64 {
	return r.VirtualAddress + r.Size
}

// Info is everything this tool extracts from a minidump's metadata: enough
// to map module virtual addresses onto captured file bytes, without
// modeling the rest of the MDMP stream catalog (thread list, exception
// record, and so on are not consumed — they carry nothing carving needs).
type Info struct {
	IsValid        bool
	ProcessorArch  uint16
	StreamsCount   uint32
	Modules        []Module
	Regions        []MemoryRegion
	HeaderSize     int64
}

// IsXbox360 reports whether the captured process is the PowerPC
// architecture Xbox 360 uses.
func (i Info) IsXbox360() bool {
	return i.ProcessorArch == processorArchPowerPC
}

type streamEntry struct {
	typ  uint32
	size uint32
	rva  uint32
}

// Parse interprets data as an MDMP container. A non-nil error is always
// ErrInvalidContainer (or a wrap of it): every other malformed-stream
// condition downgrades to "stream ignored" rather than failing the whole
// dump, matching §7's propagation rule that only InvalidContainer is
// fatal.
func Parse(data []byte) (*Info, error) {
	if len(data) < 4 || string(data[0:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidContainer)
	}
	// Bytes 4:8 are a version field this tool does not interpret.
	if len(data) < 16 {
		return nil, fmt.Errorf("%w: header truncated", ErrInvalidContainer)
	}

	numStreams, err := binutil.Uint32LE(data, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: missing stream count", ErrInvalidContainer)
	}
	streamDirRVA, err := binutil.Uint32LE(data, 12)
	if err != nil {
		return nil, fmt.Errorf("%w: missing stream directory RVA", ErrInvalidContainer)
	}

	if numStreams == 0 || numStreams > maxStreams || streamDirRVA == 0 {
		return nil, fmt.Errorf("%w: implausible stream directory", ErrInvalidContainer)
	}

	info := &Info{IsValid: true, StreamsCount: numStreams}

	dirOffset := int(streamDirRVA)
	for i := uint32(0); i < numStreams; i++ {
		entryOffset := dirOffset + int(i)*streamDirEntry
		if entryOffset+streamDirEntry > len(data) {
			break
		}
		typ, _ := binutil.Uint32LE(data, entryOffset)
		size, _ := binutil.Uint32LE(data, entryOffset+4)
		rva, _ := binutil.Uint32LE(data, entryOffset+8)
		entry := streamEntry{typ: typ, size: size, rva: rva}

		switch entry.typ {
		case streamTypeSystemInfo:
			parseSystemInfo(data, entry, info)
		case streamTypeModuleList:
			parseModuleList(data, entry, info)
		case streamTypeMemory64List:
			parseMemory64List(data, entry, info)
		}
		// Unknown stream types are ignored, per §4.2.
	}

	info.HeaderSize = computeHeaderSize(info.Regions)
	return info, nil
}

// computeHeaderSize returns the minimum file offset across regions: memory
// pages begin there, everything before is metadata.
func computeHeaderSize(regions []MemoryRegion) int64 {
	if len(regions) == 0 {
		return 0
	}
	min := regions[0].FileOffset
	for _, r := range regions[1:] {
		if r.FileOffset < min {
			min = r.FileOffset
		}
	}
	return min
}

func parseSystemInfo(data []byte, entry streamEntry, info *Info) {
	if int(entry.rva)+2 > len(data) {
		return
	}
	arch, err := binutil.Uint16LE(data, int(entry.rva))
	if err != nil {
		return
	}
	info.ProcessorArch = arch
}

func parseModuleList(data []byte, entry streamEntry, info *Info) {
	off := int(entry.rva)
	numModules, err := binutil.Uint32LE(data, off)
	if err != nil {
		return
	}
	if numModules == 0 || numModules > maxModules {
		return
	}
	off += 4

	for i := uint32(0); i < numModules; i++ {
		entryOff := off + int(i)*moduleEntry
		if entryOff+24 > len(data) {
			break
		}

		baseVA, _ := binutil.Uint64LE(data, entryOff)
		size, _ := binutil.Uint32LE(data, entryOff+8)
		checksum, _ := binutil.Uint32LE(data, entryOff+12)
		timestamp, _ := binutil.Uint32LE(data, entryOff+16)
		nameRVA, _ := binutil.Uint32LE(data, entryOff+20)

		name := readModuleName(data, nameRVA)

		info.Modules = append(info.Modules, Module{
			Name:      name,
			BaseVA:    baseVA,
			Size:      size,
			Checksum:  checksum,
			Timestamp: timestamp,
		})
	}
}

// readModuleName reads a minidump-style Unicode string: a u32 byte length
// prefix followed by that many bytes of UTF-16LE.
func readModuleName(data []byte, rva uint32) string {
	off := int(rva)
	length, err := binutil.Uint32LE(data, off)
	if err != nil {
		return ""
	}
	start := off + 4
	end := start + int(length)
	if end > len(data) || start > end {
		return ""
	}
	name, err := binutil.DecodeUTF16LE(data[start:end])
	if err != nil {
		return ""
	}
	return name
}

func parseMemory64List(data []byte, entry streamEntry, info *Info) {
	off := int(entry.rva)
	numRanges, err := binutil.Uint64LE(data, off)
	if err != nil {
		return
	}
	baseRVA, err := binutil.Uint64LE(data, off+8)
	if err != nil {
		return
	}
	if numRanges == 0 || numRanges > maxMemRanges {
		return
	}
	off += 16

	fileOffset := int64(baseRVA)
	for i := uint64(0); i < numRanges; i++ {
		entryOff := off + int(i)*16
		if entryOff+16 > len(data) {
			break
		}
		va, _ := binutil.Uint64LE(data, entryOff)
		size, _ := binutil.Uint64LE(data, entryOff+8)

		info.Regions = append(info.Regions, MemoryRegion{
			VirtualAddress: va,
			Size:           size,
			FileOffset:     fileOffset,
		})
		fileOffset += int64(size)
	}
}

// VAToFileOffset maps a virtual address to its file offset by linear
// search across regions (there are few enough that this beats building an
// index). Returns ok=false if va is not captured by any region.
func (i *Info) VAToFileOffset(va uint64) (offset int64, ok bool) {
	for _, r := range i.Regions {
		if r.contains(va) {
			return r.FileOffset + int64(va-r.VirtualAddress), true
		}
	}
	return 0, false
}

// FileOffsetToVA is the inverse of VAToFileOffset.
func (i *Info) FileOffsetToVA(fileOffset int64) (va uint64, ok bool) {
	for _, r := range i.Regions {
		if fileOffset >= r.FileOffset && fileOffset < r.FileOffset+int64(r.Size) {
			return r.VirtualAddress + uint64(fileOffset-r.FileOffset), true
		}
	}
	return 0, false
}

// ModuleRange is the file-offset span actually captured for a module: it
// may be shorter than the module's declared Size if the capture was
// partial.
type ModuleRange struct {
	FileOffset    int64
	CapturedSize  uint64
}

// ModuleFileRange finds the region containing the module's base address,
// then walks forward across regions that are contiguous in virtual
// space — the next region's VA equal to the previous region's end —
// accumulating captured size until the module's declared end is reached
// or a gap is hit. The result reflects only what the dump actually
// captured.
func (i *Info) ModuleFileRange(m Module) (ModuleRange, bool) {
	var cur *MemoryRegion
	idx := -1
	for n := range i.Regions {
		if i.Regions[n].contains(m.BaseVA) {
			cur = &i.Regions[n]
			idx = n
			break
		}
	}
	if cur == nil {
		return ModuleRange{}, false
	}

	moduleEnd := m.BaseVA + uint64(m.Size)
	fileOffset := cur.FileOffset + int64(m.BaseVA-cur.VirtualAddress)
	captured := min64(cur.end(), moduleEnd) - m.BaseVA

	nextExpectedVA := cur.end()
	for captured+m.BaseVA < moduleEnd {
		nextIdx := -1
		for n := idx + 1; n < len(i.Regions); n++ {
			if i.Regions[n].VirtualAddress == nextExpectedVA {
				nextIdx = n
				break
			}
		}
		if nextIdx < 0 {
			break // gap: capture stops here.
		}
		region := i.Regions[nextIdx]
		take := min64(region.end(), moduleEnd) - region.VirtualAddress
		captured += take
		nextExpectedVA = region.end()
		idx = nextIdx
	}

	return ModuleRange{FileOffset: fileOffset, CapturedSize: captured}, true
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// BuildType is the label module-name scanning can recover about how the
// captured process was built.
type BuildType string

const (
	BuildUnknown      BuildType = ""
	BuildDebug        BuildType = "Debug"
	BuildMemDebug     BuildType = "MemDebug"
	BuildReleaseBeta  BuildType = "ReleaseBeta"
)

// DetectBuildType walks module names looking for the substrings "Debug",
// "MemDebug", "Release_Beta"/"ReleaseBeta", in that precedence order, with
// "Debug" excluded whenever "MemDebug" also matches (MemDebug is a more
// specific build flavor that happens to contain "Debug" as a substring).
func (i *Info) DetectBuildType() BuildType {
	hasDebug, hasMemDebug, hasReleaseBeta := false, false, false
	for _, m := range i.Modules {
		if strings.Contains(m.Name, "MemDebug") {
			hasMemDebug = true
		}
		if strings.Contains(m.Name, "Debug") {
			hasDebug = true
		}
		if strings.Contains(m.Name, "Release_Beta") || strings.Contains(m.Name, "ReleaseBeta") {
			hasReleaseBeta = true
		}
	}
	switch {
	case hasMemDebug:
		return BuildMemDebug
	case hasDebug:
		return BuildDebug
	case hasReleaseBeta:
		return BuildReleaseBeta
	default:
		return BuildUnknown
	}
}

