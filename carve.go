// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package dumpcarve is the library entry point: it carves Xbox 360
// minidump captures into per-format output trees and a JSON manifest,
// wrapping the internal carving engine the same way the teacher's root
// package wraps its own parser behind a small New/Parse surface.
package dumpcarve

import (
	"context"

	"github.com/saferwall/xbox360-dumpcarve/internal/carve"
)

// Options controls a carving run: output location, type filter, DDX
// conversion, quotas, and parallelism. See carve.Options for field docs.
type Options = carve.Options

// Result is what a carving run produced: the per-dump output directory,
// its manifest, and the DDX converted/failed counters.
type Result = carve.Result

// CarveEntry is one manifest element: a single recovered file.
type CarveEntry = carve.CarveEntry

// DefaultOptions returns the options the CLI starts from.
func DefaultOptions() Options {
	return carve.DefaultOptions()
}

// File carves the minidump at path, writing its output tree under
// opts.OutputDir and returning the manifest that was written alongside
// it. An invalid minidump container, an I/O error on the dump or the
// output tree, or cancellation of ctx fails the whole call; every
// per-candidate problem is isolated and simply absent from the result's
// Manifest.
func File(ctx context.Context, path string, opts Options) (*Result, error) {
	return carve.Run(ctx, path, opts)
}
