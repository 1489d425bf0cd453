// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package carve implements the concurrent carving engine (§4.7): given a
// minidump capture, it parses the container metadata, memory-maps the
// file, scans it for every registered signature, and extracts each
// validated candidate into a per-dump output tree alongside a JSON
// manifest.
package carve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/sirupsen/logrus"

	"github.com/saferwall/xbox360-dumpcarve/internal/ahocorasick"
	"github.com/saferwall/xbox360-dumpcarve/internal/binutil"
	"github.com/saferwall/xbox360-dumpcarve/internal/formats"
	"github.com/saferwall/xbox360-dumpcarve/internal/minidump"
	"github.com/saferwall/xbox360-dumpcarve/internal/xlog"
)

// The specification models parsing against a bounded "header window" read
// from each candidate offset, re-reading a larger span only once a
// parser's estimated_size is known. Since the engine mmaps the whole dump
// up front (step 3), that window is free to pass in full: a parser sees
// the entire remaining file and bounds its own reads, so no separate
// windowed-read/re-read path is needed here.
const (
	defaultChunkSize    = 64 * 1024 * 1024
	defaultPerTypeQuota = 10000
)

// Options controls a single carving run.
type Options struct {
	// OutputDir is the root directory a per-dump subdirectory is created
	// under. Defaults to the current directory if empty.
	OutputDir string

	// Types restricts scanning to these signature ids (--types). A nil or
	// empty slice scans every registered, scan-enabled signature.
	Types []string

	// ConvertDDX runs the DDX->DDS pipeline on 3XDO/3XDR candidates,
	// falling back to the raw .ddx on failure. The zero value leaves it
	// off; DefaultOptions turns it on.
	ConvertDDX bool

	// MaxFiles caps the total number of files written across every type.
	// Zero means unlimited.
	MaxFiles int

	// PerTypeQuota caps files written per signature id. Zero uses the
	// default of 10000.
	PerTypeQuota int

	// Parallelism bounds the extraction worker pool. Zero uses
	// runtime.NumCPU().
	Parallelism int

	// ChunkSize is the Aho-Corasick scan chunk size in bytes. Zero uses
	// 64 MiB.
	ChunkSize int64

	Log *logrus.Entry
}

// Result is what a carving run produced.
type Result struct {
	OutputDir    string
	Manifest     []CarveEntry
	DDXConverted int64
	DDXFailed    int64
}

// errInvalidContainer is the one format rejection Run treats as a fatal,
// job-level failure (§7's propagation rule); every candidate-level
// rejection is isolated to its own candidate and simply absent from the
// manifest. Run also returns I/O errors (opening or mapping the dump,
// creating output directories, writing the manifest) and cancellation.
var errInvalidContainer = errors.New("carve: invalid minidump container")

// Run carves inputPath: phases 1-7 of §4.7, in order.
func Run(ctx context.Context, inputPath string, opts Options) (*Result, error) {
	if opts.Log == nil {
		opts.Log = xlog.Discard()
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer mm.Unmap()

	info, err := minidump.Parse(mm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidContainer, err)
	}

	stem := binutil.SanitizeFilename(strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)))
	dumpDir := filepath.Join(opts.OutputDir, stem)

	registry := formats.NewRegistry()
	if err := makeOutputDirs(dumpDir, registry); err != nil {
		return nil, err
	}

	j := &job{
		registry: registry,
		opts:     opts,
		dumpDir:  dumpDir,
		claims:   newClaimSet(),
		quota:    newQuotaTracker(opts.PerTypeQuota, opts.MaxFiles),
		names:    newNameAllocator(),
		log:      opts.Log,
	}

	var manifest []CarveEntry
	manifest = append(manifest, j.extractHeaderAndModules(info, mm)...)

	matcher := buildMatcher(registry, opts.Types)
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	matches, err := scanCandidates(ctx, mm, matcher, chunkSize)
	if err != nil {
		// Cancellation during the scan pass: return what the header/module
		// extraction already produced rather than discarding it.
		_ = writeManifest(dumpDir, manifest)
		return &Result{OutputDir: dumpDir, Manifest: manifest}, err
	}
	matches = dedupeSortMatches(matches)

	manifest = append(manifest, j.extractAll(ctx, mm, matches)...)

	if err := writeManifest(dumpDir, manifest); err != nil {
		return nil, err
	}

	return &Result{
		OutputDir:    dumpDir,
		Manifest:     manifest,
		DDXConverted: j.ddxConverted,
		DDXFailed:    j.ddxFailed,
	}, nil
}

// DefaultOptions returns the Options the CLI starts from: DDX conversion
// on, no type filter, the default per-type quota and scan chunk size.
// Go's zero value for ConvertDDX is false, so callers constructing
// Options directly (rather than through the CLI) must opt in explicitly
// or start from DefaultOptions.
func DefaultOptions() Options {
	return Options{
		ConvertDDX:   true,
		PerTypeQuota: defaultPerTypeQuota,
		ChunkSize:    defaultChunkSize,
	}
}

// makeOutputDirs creates the per-dump directory tree: one folder per
// registered signature's OutputFolder, plus "ddx" for the raw DDX
// fallback and "executables" for the minidump header/module extraction,
// per §6's output directory layout.
func makeOutputDirs(dumpDir string, registry *formats.Registry) error {
	folders := map[string]bool{"ddx": true, "executables": true}
	for _, sig := range registry.Signatures() {
		folders[sig.OutputFolder] = true
	}
	for folder := range folders {
		if err := os.MkdirAll(filepath.Join(dumpDir, folder), 0755); err != nil {
			return err
		}
	}
	return nil
}

// buildMatcher builds the Aho-Corasick automaton over every scan-enabled
// signature whose id is allowed by types (empty types allows everything).
func buildMatcher(registry *formats.Registry, types []string) *ahocorasick.Matcher {
	allowed := map[string]bool{}
	for _, t := range types {
		allowed[t] = true
	}

	var patterns []ahocorasick.Pattern
	for _, sig := range registry.Signatures() {
		if !sig.EnabledForScan {
			continue
		}
		if len(allowed) > 0 && !allowed[sig.ID] {
			continue
		}
		patterns = append(patterns, ahocorasick.Pattern{ID: sig.ID, Bytes: sig.Magic})
	}
	return ahocorasick.New(patterns)
}
