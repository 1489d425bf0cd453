// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package esm

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildRecordBE(sig string, formID uint32, subrecords ...[2]string) []byte {
	var body []byte
	for _, sr := range subrecords {
		sigBytes := []byte(sr[0])
		data := []byte(sr[1])
		header := make([]byte, 6)
		copy(header[0:4], sigBytes)
		binary.BigEndian.PutUint16(header[4:6], uint16(len(data)))
		body = append(body, header...)
		body = append(body, data...)
	}
	header := make([]byte, recordHeaderSize)
	copy(header[0:4], []byte(sig))
	binary.BigEndian.PutUint32(header[4:8], uint32(len(body)))
	binary.BigEndian.PutUint32(header[8:12], 0)
	binary.BigEndian.PutUint32(header[12:16], formID)
	binary.BigEndian.PutUint32(header[16:20], 0)
	return append(header, body...)
}

func TestConvertScenarioS6InfoMerge(t *testing.T) {
	const formID = 0x00123456
	rec1 := buildRecordBE("INFO", formID, [2]string{"NAM1", "fragment one"}, [2]string{"PNAM", "\x00\x00\x00\x01"})
	rec2 := buildRecordBE("INFO", formID, [2]string{"NAM2", "fragment two"})
	data := append(rec1, rec2...)

	out, stats, err := Convert(data, Options{SourceEndian: BigEndian, TargetEndian: LittleEndian})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if stats.InfoRecordsMerged != 1 {
		t.Errorf("InfoRecordsMerged = %d, want 1", stats.InfoRecordsMerged)
	}
	if stats.PNAMSubrecordsStripped != 1 {
		t.Errorf("PNAMSubrecordsStripped = %d, want 1", stats.PNAMSubrecordsStripped)
	}
	if stats.RecordCountBySignature["INFO"] != 2 {
		t.Errorf("source INFO record count = %d, want 2", stats.RecordCountBySignature["INFO"])
	}

	// Exactly one INFO record signature should appear in the output.
	if n := bytes.Count(out, []byte("INFO")); n != 1 {
		t.Errorf("output contains %d INFO signatures, want 1", n)
	}
	if bytes.Contains(out, []byte("PNAM")) {
		t.Error("output still contains a PNAM subrecord")
	}
}

func TestIsValidSubrecordSignature(t *testing.T) {
	tests := []struct {
		sig  [4]byte
		want bool
	}{
		{[4]byte{'E', 'D', 'I', 'D'}, true},
		{[4]byte{'T', 'X', '0', '1'}, true},
		{[4]byte{'e', 'd', 'i', 'd'}, false},
		{[4]byte{0x01, 'I', 'A', 'D'}, true}, // IMAD special case
		{[4]byte{0xFF, 'I', 'A', 'D'}, false},
	}
	for _, tt := range tests {
		if got := isValidSubrecordSignature(tt.sig); got != tt.want {
			t.Errorf("isValidSubrecordSignature(%q) = %v, want %v", tt.sig, got, tt.want)
		}
	}
}

func TestConvertRejectsNonZeroTopLevelGroupType(t *testing.T) {
	group := make([]byte, groupHeaderSize)
	copy(group[0:4], []byte("GRUP"))
	binary.BigEndian.PutUint32(group[4:8], groupHeaderSize)
	binary.BigEndian.PutUint32(group[12:16], 1) // nonzero group_type at depth 0

	_, _, err := Convert(group, Options{SourceEndian: BigEndian, TargetEndian: LittleEndian})
	if err != ErrBadGroupType {
		t.Errorf("Convert() error = %v, want ErrBadGroupType", err)
	}
}
