// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package esm implements the hybrid-endian ESM/ESP record converter
// (§4.6): it walks the GRUP/record/subrecord tree of an Xbox 360 plugin
// capture, byte-swaps schema-typed subrecord fields, merges split INFO
// records, and re-emits the plugin in the target endianness.
package esm

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/sirupsen/logrus"
)

const (
	recordHeaderSize = 20
	groupHeaderSize  = 24
	subrecordHeaderSize = 6
)

var (
	ErrTruncated    = errors.New("esm: record extends past end of data")
	ErrBadGroupType = errors.New("esm: top-level GRUP with nonzero group_type")
	ErrCancelled    = errors.New("esm: conversion cancelled")
)

// RecordHeader is the 20-byte header shared by every main (non-GRUP)
// record, per §3's data model.
type RecordHeader struct {
	Signature       [4]byte
	DataSize        uint32
	Flags           uint32
	FormID          uint32
	VersionControl  uint32
}

// GroupHeader is the 24-byte GRUP container header.
type GroupHeader struct {
	GroupSize      uint32
	Label          uint32
	GroupType      int32
	Stamp          uint32
	VersionControl uint32
}

// Endianness selects how multi-byte fields are read or written.
type Endianness int

const (
	BigEndian Endianness = iota
	LittleEndian
)

func (e Endianness) byteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Options controls a conversion pass.
type Options struct {
	SourceEndian Endianness
	TargetEndian Endianness
	Log          *logrus.Entry

	// Ctx, if set, is checked inside the record-walk loop so a caller can
	// cancel conversion of a large plugin mid-walk (§5's third
	// cancellation point). A nil Ctx means the walk always runs to
	// completion.
	Ctx context.Context
}

// Stats reports the transformations applied during a conversion, for
// property P5's count-reconciliation check.
type Stats struct {
	RecordCountBySignature map[string]int
	InfoRecordsMerged      int
	PNAMSubrecordsStripped int
}

// Convert walks data from its first byte (normally the TES4 header record;
// Convert does not search for or require one) and re-emits every
// GRUP/record/subrecord in opts.TargetEndian, applying the schema-driven
// subrecord byte-swaps and the split-INFO merge rule of §4.6.
func Convert(data []byte, opts Options) ([]byte, Stats, error) {
	w := &walker{
		src:   opts.SourceEndian.byteOrder(),
		dst:   opts.TargetEndian.byteOrder(),
		stats: Stats{RecordCountBySignature: map[string]int{}},
		log:   opts.Log,
		ctx:   opts.Ctx,
	}
	out, err := w.walkTop(data)
	return out, w.stats, err
}

type walker struct {
	src, dst binary.ByteOrder
	stats    Stats
	log      *logrus.Entry
	ctx      context.Context
}

// cancelled reports whether the walk's context (if any) has been
// cancelled; checked once per record iteration in walkTop/walkGroupBody.
func (w *walker) cancelled() bool {
	return w.ctx != nil && w.ctx.Err() != nil
}

func (w *walker) warn(msg string, kv ...interface{}) {
	if w.log == nil {
		return
	}
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	w.log.WithFields(fields).Warn(msg)
}

// walkTop processes the top-level record/GRUP sequence (depth 0): in a
// well-formed file, a standalone TES4 header record followed by zero or
// more GRUPs, though any sequence of records and GRUPs is walked as found.
func (w *walker) walkTop(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	pos := 0
	var pendingInfo []rawRecord

	flushInfo := func() {
		if len(pendingInfo) == 0 {
			return
		}
		merged := w.mergeInfoFragments(pendingInfo)
		out = append(out, w.emitRecord(merged)...)
		pendingInfo = nil
	}

	for pos < len(data) {
		if w.cancelled() {
			return nil, ErrCancelled
		}
		if pos+4 > len(data) {
			break
		}
		sig := string(data[pos : pos+4])
		if sig == "GRUP" {
			flushInfo()
			group, consumed, err := w.readGroup(data[pos:], 0)
			if err != nil {
				return nil, err
			}
			out = append(out, group...)
			pos += consumed
			continue
		}

		rec, consumed, err := w.readRecord(data[pos:])
		if err != nil {
			return nil, err
		}
		w.stats.RecordCountBySignature[rec.signature]++

		if rec.signature == "INFO" {
			if len(pendingInfo) > 0 && pendingInfo[len(pendingInfo)-1].formID != rec.formID {
				flushInfo()
			}
			pendingInfo = append(pendingInfo, rec)
			pos += consumed
			continue
		}

		flushInfo()
		out = append(out, w.emitRecord(rec)...)
		pos += consumed
	}
	flushInfo()
	return out, nil
}

// readGroup reads one GRUP and its nested payload. depth 0 GRUPs must
// carry group_type == 0 (§4.6's GRUP-type policy); nested GRUPs (depth > 0)
// may use types 1-10.
func (w *walker) readGroup(data []byte, depth int) ([]byte, int, error) {
	if len(data) < groupHeaderSize {
		return nil, 0, ErrTruncated
	}
	size := w.src.Uint32(data[4:8])
	label := w.src.Uint32(data[8:12])
	groupType := int32(w.src.Uint32(data[12:16]))
	stamp := w.src.Uint32(data[16:20])
	vc := w.src.Uint32(data[20:24])

	if depth == 0 && groupType != 0 {
		return nil, 0, ErrBadGroupType
	}
	if int(size) < groupHeaderSize || int(size) > len(data) {
		return nil, 0, ErrTruncated
	}

	body := data[groupHeaderSize:size]
	convertedBody, err := w.walkGroupBody(body, depth+1)
	if err != nil {
		return nil, 0, err
	}

	outSize := uint32(groupHeaderSize + len(convertedBody))
	header := make([]byte, groupHeaderSize)
	copy(header[0:4], []byte("GRUP"))
	w.dst.PutUint32(header[4:8], outSize)
	w.dst.PutUint32(header[8:12], label)
	w.dst.PutUint32(header[12:16], uint32(groupType))
	w.dst.PutUint32(header[16:20], stamp)
	w.dst.PutUint32(header[20:24], vc)

	out := append(header, convertedBody...)
	return out, int(size), nil
}

func (w *walker) walkGroupBody(data []byte, depth int) ([]byte, error) {
	out := make([]byte, 0, len(data))
	pos := 0
	var pendingInfo []rawRecord

	flushInfo := func() {
		if len(pendingInfo) == 0 {
			return
		}
		merged := w.mergeInfoFragments(pendingInfo)
		out = append(out, w.emitRecord(merged)...)
		pendingInfo = nil
	}

	for pos < len(data) {
		if w.cancelled() {
			return nil, ErrCancelled
		}
		if pos+4 > len(data) {
			break
		}
		sig := string(data[pos : pos+4])
		if sig == "GRUP" {
			flushInfo()
			group, consumed, err := w.readGroup(data[pos:], depth)
			if err != nil {
				return nil, err
			}
			out = append(out, group...)
			pos += consumed
			continue
		}

		rec, consumed, err := w.readRecord(data[pos:])
		if err != nil {
			return nil, err
		}
		w.stats.RecordCountBySignature[rec.signature]++

		if rec.signature == "INFO" {
			if len(pendingInfo) > 0 && pendingInfo[len(pendingInfo)-1].formID != rec.formID {
				flushInfo()
			}
			pendingInfo = append(pendingInfo, rec)
			pos += consumed
			continue
		}

		flushInfo()
		out = append(out, w.emitRecord(rec)...)
		pos += consumed
	}
	flushInfo()
	return out, nil
}

type rawRecord struct {
	signature      string
	flags          uint32
	formID         uint32
	versionControl uint32
	subrecords     []rawSubrecord
}

type rawSubrecord struct {
	signature [4]byte
	data      []byte
}

func (w *walker) readRecord(data []byte) (rawRecord, int, error) {
	if len(data) < recordHeaderSize {
		return rawRecord{}, 0, ErrTruncated
	}
	sig := string(data[0:4])
	dataSize := w.src.Uint32(data[4:8])
	flags := w.src.Uint32(data[8:12])
	formID := w.src.Uint32(data[12:16])
	vc := w.src.Uint32(data[16:20])

	end := recordHeaderSize + int(dataSize)
	if end > len(data) {
		return rawRecord{}, 0, ErrTruncated
	}
	body := data[recordHeaderSize:end]

	subs, err := w.readSubrecords(sig, body)
	if err != nil {
		return rawRecord{}, 0, err
	}

	return rawRecord{
		signature:      sig,
		flags:          flags,
		formID:         formID,
		versionControl: vc,
		subrecords:     subs,
	}, end, nil
}

func (w *walker) readSubrecords(recordType string, body []byte) ([]rawSubrecord, error) {
	var out []rawSubrecord
	pos := 0
	for pos < len(body) {
		if pos+subrecordHeaderSize > len(body) {
			return nil, ErrTruncated
		}
		var sig [4]byte
		copy(sig[:], body[pos:pos+4])
		size := w.src.Uint16(body[pos+4 : pos+6])
		dataStart := pos + subrecordHeaderSize
		dataEnd := dataStart + int(size)
		if dataEnd > len(body) {
			return nil, ErrTruncated
		}
		out = append(out, rawSubrecord{signature: sig, data: append([]byte{}, body[dataStart:dataEnd]...)})
		pos = dataEnd
	}
	return out, nil
}

// emitRecord byte-swaps every subrecord per its schema and re-emits the
// record header in the target endianness.
func (w *walker) emitRecord(rec rawRecord) []byte {
	var body []byte
	for _, sub := range rec.subrecords {
		converted := w.convertSubrecordData(rec.signature, sub)
		header := make([]byte, subrecordHeaderSize)
		copy(header[0:4], sub.signature[:])
		w.dst.PutUint16(header[4:6], uint16(len(converted)))
		body = append(body, header...)
		body = append(body, converted...)
	}

	header := make([]byte, recordHeaderSize)
	copy(header[0:4], []byte(rec.signature))
	w.dst.PutUint32(header[4:8], uint32(len(body)))
	w.dst.PutUint32(header[8:12], rec.flags)
	w.dst.PutUint32(header[12:16], rec.formID)
	w.dst.PutUint32(header[16:20], rec.versionControl)

	return append(header, body...)
}

func isIMADSpecial(sig [4]byte) bool {
	return sig[1] == 'I' && sig[2] == 'A' && sig[3] == 'D' && sig[0] <= 0x7F
}

// isValidSubrecordSignature applies §4.6's validity predicate: four
// characters in [A-Z0-9_], with the IMAD *IAD special case where the
// first byte may be any value <= 0x7F.
func isValidSubrecordSignature(sig [4]byte) bool {
	if isIMADSpecial(sig) {
		return true
	}
	for _, c := range sig {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}
