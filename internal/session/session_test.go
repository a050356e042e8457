// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/gamesage/internal/config"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dark Souls III", "Dark-Souls-III"},
		{"Baldur's Gate 3", "Baldurs-Gate-3"},
		{"NieR:Automata", "NieRAutomata"},
		{"", "Unknown"},
	}
	for _, tc := range tests {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLogger_CreatesFileOnFirstExchange(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(config.LoggingConfig{Enabled: true, Directory: dir}, "", "Elden Ring")

	if l.Path() != "" {
		t.Fatal("no file should exist before the first exchange")
	}

	l.LogExchange("what boss is this?", "That is Margit.")
	path := l.Path()
	if path == "" {
		t.Fatal("first exchange should create the session file")
	}
	if base := filepath.Base(path); !strings.HasPrefix(base, "Elden-Ring_") || !strings.HasSuffix(base, ".txt") {
		t.Errorf("file name = %q", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "Game: Elden Ring\n") {
		t.Errorf("header missing game line:\n%s", text)
	}
	if !strings.Contains(text, "] You:\nwhat boss is this?\n\n") {
		t.Errorf("user block missing:\n%s", text)
	}
	if !strings.Contains(text, "] Sage:\nThat is Margit.\n\n") {
		t.Errorf("assistant block missing:\n%s", text)
	}

	// Second exchange appends to the same file.
	l.LogExchange("thanks", "Good luck.")
	if got := l.Path(); got != path {
		t.Errorf("path changed between exchanges: %q vs %q", got, path)
	}
	data, _ = os.ReadFile(path)
	if got := strings.Count(string(data), "] You:\n"); got != 2 {
		t.Errorf("user blocks = %d, want 2", got)
	}
}

func TestLogger_Disabled(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(config.LoggingConfig{Enabled: false, Directory: dir}, "", "Game")

	l.LogExchange("hi", "hello")
	if l.Path() != "" {
		t.Error("disabled logger must not create files")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory should stay empty, found %d entries", len(entries))
	}
}

func TestLogger_DefaultsToLogsSubdir(t *testing.T) {
	base := t.TempDir()
	l := NewLogger(config.LoggingConfig{Enabled: true}, base, "Game")

	l.LogExchange("q", "a")
	if got := filepath.Dir(l.Path()); got != filepath.Join(base, "logs") {
		t.Errorf("log dir = %q, want %q", got, filepath.Join(base, "logs"))
	}
}
