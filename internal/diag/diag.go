// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diag provides the process-wide diagnostic log for the overlay.
//
// Everything the overlay does inside a host game is invisible from the
// outside, so companion.log (written next to the DLL) is the only window
// into bootstrap progress, hook installation, and request activity. The
// sink is append-only, never rotates, and every failure is swallowed:
// diagnostics must never take the host down with them.
package diag

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// LogFileName is the diagnostic log file created next to the library image.
const LogFileName = "companion.log"

var (
	mu     sync.Mutex
	logger = log.New(io.Discard, "", log.LstdFlags)
)

// Init points the diagnostic sink at companion.log inside dir.
// Called once by the bootstrap before any other phase; calling it again
// replaces the sink (used by tests). Failure to open the file leaves the
// previous sink in place.
func Init(dir string) {
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	mu.Lock()
	logger = log.New(f, "", log.LstdFlags)
	mu.Unlock()
}

// SetOutput redirects the sink, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = log.New(w, "", log.LstdFlags)
	mu.Unlock()
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Printf("INFO  "+format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Printf("WARN  "+format, args...)
}

// Errorf logs an error.
func Errorf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	logger.Printf("ERROR "+format, args...)
}
