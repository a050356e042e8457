// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proclist

import (
	"strings"

	"github.com/jeranaias/gamesage/internal/config"
)

// Watcher reconciles the configured watch list against process snapshots:
// inject into new matches, forget exited PIDs so a relaunch re-injects.
// A failed injection is retried on the next tick because the PID is only
// recorded on success.
type Watcher struct {
	games map[string]config.GameEntry // lowercase process name -> entry

	injectedPIDs map[uint32]bool
	activePIDs   map[string]uint32 // lowercase process name -> injected PID

	inject func(p ProcessInfo) error
	logf   func(format string, args ...any)
}

// NewWatcher builds a reconciler over the configured games. inject maps the
// library into one process; logf receives user-facing progress lines.
func NewWatcher(games []config.GameEntry, inject func(ProcessInfo) error, logf func(string, ...any)) *Watcher {
	byName := make(map[string]config.GameEntry, len(games))
	for _, g := range games {
		byName[strings.ToLower(g.Process)] = g
	}
	return &Watcher{
		games:        byName,
		injectedPIDs: make(map[uint32]bool),
		activePIDs:   make(map[string]uint32),
		inject:       inject,
		logf:         logf,
	}
}

func displayName(g config.GameEntry) string {
	if g.Name != "" {
		return g.Name
	}
	return g.Process
}

// Tick processes one snapshot.
func (w *Watcher) Tick(procs []ProcessInfo) {
	current := make(map[uint32]bool, len(procs))
	for _, p := range procs {
		current[p.PID] = true
	}

	// Exited games free their slot for the next launch.
	for nameLower, pid := range w.activePIDs {
		if current[pid] {
			continue
		}
		delete(w.activePIDs, nameLower)
		delete(w.injectedPIDs, pid)
		if g, ok := w.games[nameLower]; ok {
			w.logf("%s exited — will re-inject on next launch", displayName(g))
		}
	}

	// New matches get injected.
	for _, p := range procs {
		nameLower := strings.ToLower(p.Name)
		g, watched := w.games[nameLower]
		if !watched || w.injectedPIDs[p.PID] {
			continue
		}

		w.logf("Found %s (PID %d) — injecting...", displayName(g), p.PID)
		if err := w.inject(p); err != nil {
			w.logf("Failed to inject into %s: %v", displayName(g), err)
			continue
		}
		w.logf("Injected into %s (PID %d)", displayName(g), p.PID)
		w.injectedPIDs[p.PID] = true
		w.activePIDs[nameLower] = p.PID
	}
}
