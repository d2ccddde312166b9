// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rvm

import (
	"log/slog"

	"github.com/gogpu/rvm/internal/rlog"
)

// SetLogger configures the logger for rvm and all its sub-packages.
// By default, rvm produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by rvm:
//   - [slog.LevelDebug]: per-frame statistics, pipeline cache misses, render target passes
//   - [slog.LevelInfo]: lifecycle events (adapter selected, context created)
//   - [slog.LevelWarn]: non-fatal issues (leaked transient slots, release errors)
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	rvm.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	rlog.SetLogger(l)
}

// Logger returns the current logger used by rvm.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return rlog.Logger()
}
