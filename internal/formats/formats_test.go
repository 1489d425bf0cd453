// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package formats

import "testing"

func TestNewRegistryCoversEveryFormat(t *testing.T) {
	r := NewRegistry()
	wantIDs := []string{
		"dds", "ddx_3XDO", "ddx_3XDR", "xma", "nif", "script", "bik", "png",
		"xex", "xdbf", "xuis", "xuib", "lip", "esm",
	}
	for _, id := range wantIDs {
		if _, _, ok := r.Lookup(id); !ok {
			t.Errorf("registry missing signature %q", id)
		}
	}
	if got := len(r.Signatures()); got != len(wantIDs) {
		t.Errorf("Signatures() returned %d entries, want %d", got, len(wantIDs))
	}
}

func TestValidateEnforcesSizeBounds(t *testing.T) {
	sig := Signature{MinSize: 10, MaxSize: 100}
	if Validate(sig, &ParseResult{EstimatedSize: 5}) {
		t.Error("Validate() = true for size below MinSize")
	}
	if Validate(sig, &ParseResult{EstimatedSize: 200}) {
		t.Error("Validate() = true for size above MaxSize")
	}
	if !Validate(sig, &ParseResult{EstimatedSize: 50}) {
		t.Error("Validate() = false for size within bounds")
	}
	if Validate(sig, nil) {
		t.Error("Validate() = true for nil result")
	}
}

func TestMagicOnlyParserCapsAtMaxSize(t *testing.T) {
	p := parseMagicOnly("xex", 16)
	data := make([]byte, 1000)
	res, err := p(data, 10)
	if err != nil || res == nil {
		t.Fatalf("parseMagicOnly()(...) = %v, %v", res, err)
	}
	if res.EstimatedSize != 16 {
		t.Errorf("EstimatedSize = %d, want 16 (capped)", res.EstimatedSize)
	}
}

func TestMagicOnlyParserUsesRemainingWhenSmaller(t *testing.T) {
	p := parseMagicOnly("lip", 1000)
	data := make([]byte, 50)
	res, err := p(data, 40)
	if err != nil || res == nil {
		t.Fatalf("parseMagicOnly()(...) = %v, %v", res, err)
	}
	if res.EstimatedSize != 10 {
		t.Errorf("EstimatedSize = %d, want 10 (remaining bytes)", res.EstimatedSize)
	}
}
