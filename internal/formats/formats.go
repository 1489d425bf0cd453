// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package formats holds the closed set of per-format header parsers
// (§4.3), the signature table they're keyed by, and the boundary-scan
// heuristic (C9) used by parsers that lack a length field of their own.
//
// Parsers are modeled the way the specification's design notes describe:
// a closed, tagged set, one variant per format, each implementing the
// same small capability (a Parser func). A registry maps a signature id to
// its parser for constant-time lookup; no runtime plugin loading is
// needed or wanted.
package formats

// Signature identifies one carvable pattern: its magic bytes and the
// bounds a successful parse must respect. A single format may register
// more than one Signature (the 3XDO and 3XDR DDX magics, for instance, or
// the XUIS/XUIB pair). DDS registers a single Signature; its parser handles
// both byte orders.
type Signature struct {
	ID             string
	Magic          []byte
	Description    string
	MinSize        int64
	MaxSize        int64
	OutputFolder   string
	Extension      string
	EnabledForScan bool
}

// ParseResult is what a format parser returns for a successful match.
// EstimatedSize must satisfy MinSize <= EstimatedSize <= MaxSize of the
// associated Signature, or the candidate is discarded by the caller.
type ParseResult struct {
	FormatLabel   string
	EstimatedSize int64
	Width         int
	Height        int
	MipCount      int
	FourCC        string
	IsBigEndian   bool
	FileName      string
	Metadata      map[string]any
}

// Parser validates and sizes one candidate. data is the scan buffer
// (starting at or before offset); offset is the absolute position of the
// signature's first magic byte within data. A nil result with a nil error
// means "not actually this format" (ParserReject, §7) — the normal case
// for a false signature match, not a program error.
type Parser func(data []byte, offset int) (*ParseResult, error)

// registryEntry pairs a Signature with the Parser that validates it.
type registryEntry struct {
	Signature Signature
	Parse     Parser
}

// Registry is the closed signature-id -> parser map the carving engine
// looks candidates up in.
type Registry struct {
	entries map[string]registryEntry
	order   []string
}

// NewRegistry builds the default registry covering every format in §4.3.
func NewRegistry() *Registry {
	r := &Registry{entries: map[string]registryEntry{}}
	r.register(ddsSignature(), parseDDS)
	r.register(ddxSignature("3XDO"), parseDDX)
	r.register(ddxSignature("3XDR"), parseDDX)
	r.register(xmaSignature(), parseXMA)
	r.register(nifSignature(), parseNIF)
	r.register(scriptSignature(), parseScript)
	r.register(bikSignature(), parseBIK)
	r.register(pngSignature(), parsePNG)
	xex := xexSignature()
	r.register(xex, parseMagicOnly(xex.ID, xex.MaxSize))
	xdbf := xdbfSignature()
	r.register(xdbf, parseMagicOnly(xdbf.ID, xdbf.MaxSize))
	xuis := xuisSignature()
	r.register(xuis, parseMagicOnly(xuis.ID, xuis.MaxSize))
	xuib := xuibSignature()
	r.register(xuib, parseMagicOnly(xuib.ID, xuib.MaxSize))
	lip := lipSignature()
	r.register(lip, parseMagicOnly(lip.ID, lip.MaxSize))
	esm := esmSignature()
	r.register(esm, parseMagicOnly(esm.ID, esm.MaxSize))
	return r
}

func (r *Registry) register(sig Signature, p Parser) {
	r.entries[sig.ID] = registryEntry{Signature: sig, Parse: p}
	r.order = append(r.order, sig.ID)
}

// Signatures returns every registered signature, in registration order,
// for building the Aho-Corasick matcher.
func (r *Registry) Signatures() []Signature {
	out := make([]Signature, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].Signature)
	}
	return out
}

// Lookup returns the signature and parser registered under id.
func (r *Registry) Lookup(id string) (Signature, Parser, bool) {
	e, ok := r.entries[id]
	return e.Signature, e.Parse, ok
}

// Validate enforces the ParseResult/Signature size invariant, returning
// false if the candidate must be discarded.
func Validate(sig Signature, res *ParseResult) bool {
	if res == nil {
		return false
	}
	return res.EstimatedSize >= sig.MinSize && res.EstimatedSize <= sig.MaxSize
}
