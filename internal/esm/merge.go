// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package esm

// mergeInfoFragments gathers consecutive INFO records sharing a FormID
// (Xbox captures split a single INFO record into several fragments) into
// one PC-shape record, concatenating subrecord streams in encounter order
// and dropping Xbox-only PNAM subrecords (§4.6).
func (w *walker) mergeInfoFragments(fragments []rawRecord) rawRecord {
	if len(fragments) == 1 {
		return stripPNAM(fragments[0], &w.stats)
	}

	merged := rawRecord{
		signature:      "INFO",
		flags:          fragments[0].flags,
		formID:         fragments[0].formID,
		versionControl: fragments[0].versionControl,
	}
	for _, frag := range fragments {
		merged.subrecords = append(merged.subrecords, frag.subrecords...)
	}
	w.stats.InfoRecordsMerged++
	return stripPNAM(merged, &w.stats)
}

func stripPNAM(rec rawRecord, stats *Stats) rawRecord {
	out := rec.subrecords[:0:0]
	for _, s := range rec.subrecords {
		if string(s.signature[:]) == "PNAM" {
			stats.PNAMSubrecordsStripped++
			continue
		}
		out = append(out, s)
	}
	rec.subrecords = out
	return rec
}
