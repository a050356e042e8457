// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proclist

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jeranaias/gamesage/internal/config"
)

type watchHarness struct {
	w         *Watcher
	injected  []uint32
	injectErr error
	logs      []string
}

func newWatchHarness(games ...config.GameEntry) *watchHarness {
	h := &watchHarness{}
	h.w = NewWatcher(games,
		func(p ProcessInfo) error {
			if h.injectErr != nil {
				return h.injectErr
			}
			h.injected = append(h.injected, p.PID)
			return nil
		},
		func(format string, args ...any) {
			h.logs = append(h.logs, fmt.Sprintf(format, args...))
		})
	return h
}

func (h *watchHarness) logContains(sub string) bool {
	for _, l := range h.logs {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func TestWatcher_InjectsNewMatch(t *testing.T) {
	h := newWatchHarness(config.GameEntry{Process: "Game.exe", Name: "My Game"})

	h.w.Tick([]ProcessInfo{
		{Name: "explorer.exe", PID: 4},
		{Name: "game.EXE", PID: 100}, // match is case-insensitive
	})

	if len(h.injected) != 1 || h.injected[0] != 100 {
		t.Fatalf("injected = %v, want [100]", h.injected)
	}
	if !h.logContains("Injected into My Game (PID 100)") {
		t.Errorf("logs = %v", h.logs)
	}

	// Same snapshot again: no double injection.
	h.w.Tick([]ProcessInfo{{Name: "game.EXE", PID: 100}})
	if len(h.injected) != 1 {
		t.Errorf("re-injected into a live PID: %v", h.injected)
	}
}

func TestWatcher_ReinjectsAfterRelaunch(t *testing.T) {
	h := newWatchHarness(config.GameEntry{Process: "Game.exe"})

	h.w.Tick([]ProcessInfo{{Name: "Game.exe", PID: 100}})
	h.w.Tick([]ProcessInfo{}) // game exited
	if !h.logContains("Game.exe exited — will re-inject on next launch") {
		t.Errorf("logs = %v", h.logs)
	}

	h.w.Tick([]ProcessInfo{{Name: "Game.exe", PID: 200}}) // relaunched
	if !reflect.DeepEqual(h.injected, []uint32{100, 200}) {
		t.Errorf("injected = %v, want [100 200]", h.injected)
	}
}

func TestWatcher_RetriesFailedInjection(t *testing.T) {
	h := newWatchHarness(config.GameEntry{Process: "Game.exe"})
	h.injectErr = errors.New("access denied")

	h.w.Tick([]ProcessInfo{{Name: "Game.exe", PID: 100}})
	if len(h.injected) != 0 {
		t.Fatal("injection should have failed")
	}
	if !h.logContains("Failed to inject into Game.exe") {
		t.Errorf("logs = %v", h.logs)
	}

	h.injectErr = nil
	h.w.Tick([]ProcessInfo{{Name: "Game.exe", PID: 100}})
	if len(h.injected) != 1 {
		t.Error("failed PID must be retried on the next tick")
	}
}

func TestWatcher_IgnoresUnwatchedProcesses(t *testing.T) {
	h := newWatchHarness(config.GameEntry{Process: "Game.exe"})
	h.w.Tick([]ProcessInfo{{Name: "notepad.exe", PID: 55}})
	if len(h.injected) != 0 {
		t.Errorf("injected = %v, want none", h.injected)
	}
}

func TestNames(t *testing.T) {
	got := Names([]ProcessInfo{
		{Name: "b.exe", PID: 2},
		{Name: "a.exe", PID: 1},
		{Name: "b.exe", PID: 3},
	})
	if !reflect.DeepEqual(got, []string{"a.exe", "b.exe"}) {
		t.Errorf("Names = %v", got)
	}
}

func TestSimilarNames(t *testing.T) {
	procs := []ProcessInfo{
		{Name: "EldenRing.exe", PID: 1},
		{Name: "eldenring_launcher.exe", PID: 2},
		{Name: "notepad.exe", PID: 3},
	}
	got := SimilarNames(procs, "ELDENRING.exe")
	if !reflect.DeepEqual(got, []string{"EldenRing.exe", "eldenring_launcher.exe"}) {
		t.Errorf("SimilarNames = %v", got)
	}
	if SimilarNames(procs, ".exe") != nil {
		t.Error("empty query after stripping should match nothing")
	}
}

func TestFindByName(t *testing.T) {
	procs := []ProcessInfo{{Name: "Game.exe", PID: 42}}
	if p, ok := FindByName(procs, "game.exe"); !ok || p.PID != 42 {
		t.Errorf("FindByName = %+v, %v", p, ok)
	}
	if _, ok := FindByName(procs, "other.exe"); ok {
		t.Error("miss should report not found")
	}
}
