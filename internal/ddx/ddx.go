// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package ddx implements the Xbox 360 DDX -> DDS texture conversion
// pipeline (§4.5): header parsing, LZX decompression, GPU tile/Morton
// deswizzle, optional block byte-swap, and DDS header synthesis.
package ddx

import (
	"errors"
	"strconv"

	"github.com/saferwall/xbox360-dumpcarve/internal/binutil"
	"github.com/saferwall/xbox360-dumpcarve/internal/lzx"
)

const (
	HeaderSize = 0x44

	// defaultWindowBits is the Xbox LZX window size used by every known
	// DDX stream (scenario S5 of the specification uses the same value).
	defaultWindowBits = 17
)

var (
	ErrBadHeader       = errors.New("ddx: invalid header")
	ErrExperimentalFmt = errors.New("ddx: 3XDR is experimental, pass-through only")
	ErrUnknownGPUFormat = errors.New("ddx: unrecognized Xbox GPU format code")
)

// FourCCForGPUFormat maps the low byte of a DDX format dword to the DDS
// FourCC it decompresses to, per §4.5 step 2.
var FourCCForGPUFormat = map[byte]string{
	0x12: "DXT1", 0x52: "DXT1", 0x82: "DXT1", 0x86: "DXT1",
	0x13: "DXT3", 0x53: "DXT3",
	0x14: "DXT5", 0x54: "DXT5", 0x88: "DXT5",
	0x71: "ATI2",
	0x7B: "ATI1",
}

// Header is the parsed §3 DDX header.
type Header struct {
	Magic    string
	Flags    uint32
	Tiled    bool
	GPUFmt   byte
	FourCC   string
	MipCount int
	Width    int
	Height   int
}

// ParseHeader reads the 0x44-byte DDX header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrBadHeader
	}
	magic := string(data[0:4])
	if magic != "3XDO" && magic != "3XDR" {
		return Header{}, ErrBadHeader
	}
	if data[0x04] == 0xFF {
		return Header{}, ErrBadHeader
	}
	version, err := binutil.Uint16LE(data, 0x07)
	if err != nil || version < 3 {
		return Header{}, ErrBadHeader
	}
	flags, err := binutil.Uint32BE(data, 0x24)
	if err != nil || byte(flags) < 0x80 {
		return Header{}, ErrBadHeader
	}
	format, err := binutil.Uint32BE(data, 0x28)
	if err != nil {
		return Header{}, ErrBadHeader
	}
	size, err := binutil.Uint32BE(data, 0x2C)
	if err != nil {
		return Header{}, ErrBadHeader
	}

	mipExp := int((format >> 16) & 0xF)
	mipCount := mipExp + 1
	if mipCount > 13 {
		mipCount = 1
	}

	return Header{
		Magic:    magic,
		Flags:    flags,
		Tiled:    binutil.IsBitSet(uint64(flags), 22),
		GPUFmt:   byte(format),
		FourCC:   FourCCForGPUFormat[byte(format)],
		MipCount: mipCount,
		Width:    int(size&0x1FFF) + 1,
		Height:   int((size>>13)&0x1FFF) + 1,
	}, nil
}

// Options controls the conversion pipeline's optional steps.
type Options struct {
	// WindowBits overrides the LZX window size; zero uses the Xbox default.
	WindowBits int
	// DisableUntile skips the Morton/Z-order deswizzle of the top mip.
	DisableUntile bool
	// DisableByteSwap skips the per-block 16-bit word byte-swap.
	DisableByteSwap bool
}

// Result is the outcome of Convert.
type Result struct {
	DDS       []byte
	IsPartial bool
	Notes     string
}

// Convert runs the full §4.5 pipeline over a DDX candidate's raw bytes,
// producing a ready-to-write DDS file. 3XDR headers are rejected
// (experimental, per the specification's open question) so the caller
// can fall back to emitting the raw DDX bytes unconverted.
func Convert(data []byte, opts Options) (*Result, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if hdr.Magic == "3XDR" {
		return nil, ErrExperimentalFmt
	}
	if hdr.FourCC == "" {
		return nil, ErrUnknownGPUFormat
	}

	windowBits := opts.WindowBits
	if windowBits == 0 {
		windowBits = defaultWindowBits
	}

	uncompressedSize := mipPayloadSize(hdr.Width, hdr.Height, hdr.MipCount, hdr.FourCC)
	payload := data[HeaderSize:]

	decoded, decErr := lzx.Decompress(payload, windowBits, int(uncompressedSize))
	isPartial := false
	notes := ""
	if decErr != nil {
		if len(decoded) == 0 {
			return nil, decErr
		}
		isPartial = true
		notes = "LZX decompression stopped early: " + decErr.Error()
	}

	mips := splitMips(decoded, hdr.Width, hdr.Height, hdr.MipCount, hdr.FourCC)
	if len(mips) == 0 {
		return nil, ErrBadHeader
	}

	if hdr.Tiled && !opts.DisableUntile {
		mips[0] = untileBlock(mips[0], hdr.Width, hdr.Height, hdr.FourCC)
		if !untileIsExact(hdr.Width, hdr.Height) {
			isPartial = true
			if notes != "" {
				notes += "; "
			}
			notes += "Morton/Z-order untiling is unverified for non-square or non-power-of-two mip sizes"
		}
	}

	if isBlockCompressedFourCC(hdr.FourCC) && !opts.DisableByteSwap {
		for i := range mips {
			byteSwap16(mips[i])
		}
	}

	body := make([]byte, 0, len(decoded))
	recoveredMips := 0
	for _, m := range mips {
		if isPartial && len(m) == 0 {
			break
		}
		body = append(body, m...)
		recoveredMips++
	}
	if isPartial {
		notes += "; " + strconv.Itoa(recoveredMips) + " of " + strconv.Itoa(hdr.MipCount) + " mips recovered"
	}

	header := synthesizeDDSHeader(hdr.Width, hdr.Height, hdr.MipCount, hdr.FourCC)
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)

	return &Result{DDS: out, IsPartial: isPartial, Notes: notes}, nil
}

func isBlockCompressedFourCC(fourCC string) bool {
	switch fourCC {
	case "DXT1", "DXT3", "DXT5", "ATI1", "ATI2":
		return true
	default:
		return false
	}
}
