// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

// Package xlog wraps github.com/sirupsen/logrus the way a small CLI tool
// wraps a structured logger: a package-level constructor that defaults to
// a level-filtered stdout logger, handed around as a *logrus.Entry so
// call sites can attach fields with WithField/WithFields.
package xlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a *logrus.Entry writing to os.Stdout. Passing verbose=true
// lowers the level to Debug; otherwise it sits at Warn so routine carving
// noise (parser rejects, quota skips) stays silent by default.
func New(verbose bool) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.WarnLevel)
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(l)
}

// Discard returns a *logrus.Entry that drops everything, for callers
// (tests, library consumers) that did not provide one.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
