// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package esm

// FieldType names one typed field of a SubrecordSchema (§3's data model).
// Only the non-LE numeric types are byte-swapped during Xbox<->PC
// conversion; *LE fields are already little-endian on both platforms
// (they're read verbatim and never swapped) and RawBytes fields are opaque
// payload copied through unchanged.
type FieldType int

const (
	FieldU16 FieldType = iota
	FieldU32
	FieldU64
	FieldF32
	FieldFormID
	FieldU16LE
	FieldFormIDLE
	FieldRawBytes
)

// Field is one element of a SubrecordSchema: a typed span of n bytes (n is
// implied by Type for fixed-width types, explicit for RawBytes).
type Field struct {
	Type FieldType
	Size int // only meaningful for FieldRawBytes
}

// SubrecordSchema lists byte-swappable fields for one (record type,
// subrecord signature) pair, in order.
type SubrecordSchema []Field

// schemaTable is a representative slice of the real game's full subrecord
// schema, grounded on common Oblivion/Fallout3-family subrecords. Its
// entries use FieldU16, FieldU32, FieldF32 and FieldFormID only.
var schemaTable = map[string]SubrecordSchema{
	"GMST.DATA": {{Type: FieldU32}},
	"AMMO.DATA": {{Type: FieldF32}, {Type: FieldU32}, {Type: FieldU32}},
	"NPC_.ACBS": {{Type: FieldU32}, {Type: FieldU16}, {Type: FieldU16}, {Type: FieldU16}, {Type: FieldU16}, {Type: FieldU16}, {Type: FieldU16}, {Type: FieldU32}},
	"CELL.XCLC": {{Type: FieldU32}, {Type: FieldU32}},
	"REFR.XESP": {{Type: FieldFormID}, {Type: FieldU32}},
}

// stringSubrecordWhitelist lists subrecord signatures whose payload is a
// null-terminated or raw string, passed through unchanged. The map key is
// "RECORD.SUBRECORD" for record-specific exceptions (INFO.RNAM) and a bare
// "SUBRECORD" wildcard otherwise.
var stringSubrecordWhitelist = map[string]bool{
	"EDID": true, "FULL": true, "MODL": true, "DESC": true,
	"TX00": true, "TX01": true, "TX02": true, "TX03": true,
	"TX04": true, "TX05": true, "TX06": true, "TX07": true,
	"INFO.RNAM": true,
}

func isStringSubrecord(recordType string, sig [4]byte) bool {
	s := string(sig[:])
	if stringSubrecordWhitelist[recordType+"."+s] {
		return true
	}
	return stringSubrecordWhitelist[s]
}

// convertSubrecordData byte-swaps sub's payload per its schema. Unknown
// (record_type, signature) pairs and string-whitelisted subrecords pass
// through unchanged, logging a diagnostic for the former (§4.6).
func (w *walker) convertSubrecordData(recordType string, sub rawSubrecord) []byte {
	if isStringSubrecord(recordType, sub.signature) {
		return sub.data
	}
	if !isValidSubrecordSignature(sub.signature) {
		w.warn("invalid subrecord signature, passing through raw", "record", recordType, "signature", string(sub.signature[:]))
		return sub.data
	}

	schema, ok := schemaTable[recordType+"."+string(sub.signature[:])]
	if !ok {
		w.warn("no schema for subrecord, passing through raw", "record", recordType, "signature", string(sub.signature[:]))
		return sub.data
	}

	out := append([]byte{}, sub.data...)
	pos := 0
	for _, f := range schema {
		switch f.Type {
		case FieldU16:
			if pos+2 > len(out) {
				return out
			}
			v := w.src.Uint16(out[pos : pos+2])
			w.dst.PutUint16(out[pos:pos+2], v)
			pos += 2
		case FieldU32, FieldFormID:
			if pos+4 > len(out) {
				return out
			}
			v := w.src.Uint32(out[pos : pos+4])
			w.dst.PutUint32(out[pos:pos+4], v)
			pos += 4
		case FieldU64:
			if pos+8 > len(out) {
				return out
			}
			v := w.src.Uint64(out[pos : pos+8])
			w.dst.PutUint64(out[pos:pos+8], v)
			pos += 8
		case FieldF32:
			if pos+4 > len(out) {
				return out
			}
			v := w.src.Uint32(out[pos : pos+4])
			w.dst.PutUint32(out[pos:pos+4], v)
			pos += 4
		case FieldU16LE:
			pos += 2
		case FieldFormIDLE:
			pos += 4
		case FieldRawBytes:
			pos += f.Size
		}
	}
	return out
}
