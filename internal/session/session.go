// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session appends completed chat exchanges to a per-session text
// file.
//
// The file is created lazily on the first exchange, named after the detected
// game and session start time. Logging must never disturb the host game, so
// every failure here is swallowed: a session that cannot log simply runs
// without a log.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/diag"
)

// Logger writes one file per session. The zero value is a disabled logger.
type Logger struct {
	enabled  bool
	dir      string
	gameName string

	once sync.Once
	mu   sync.Mutex
	path string // empty after once when creation failed or disabled
}

// NewLogger prepares a session logger. baseDir is the directory holding the
// library image; the log lands in baseDir/logs unless cfg overrides it.
// Nothing touches the filesystem until the first exchange.
func NewLogger(cfg config.LoggingConfig, baseDir, gameName string) *Logger {
	dir := cfg.Directory
	if dir == "" {
		dir = filepath.Join(baseDir, "logs")
	}
	return &Logger{enabled: cfg.Enabled, dir: dir, gameName: gameName}
}

// slugify turns a game name into a filename fragment: spaces become dashes
// and everything outside [0-9A-Za-z-] is dropped.
func slugify(name string) string {
	if name == "" {
		name = "Unknown"
	}
	name = strings.ReplaceAll(name, " ", "-")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
			return r
		default:
			return -1
		}
	}, name)
}

// initFile creates the session file with its header. Runs at most once.
func (l *Logger) initFile() {
	if !l.enabled {
		return
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		diag.Warnf("session: cannot create %s: %v", l.dir, err)
		return
	}

	now := time.Now()
	name := fmt.Sprintf("%s_%s.txt", slugify(l.gameName), now.Format("2006-01-02_15-04-05"))
	path := filepath.Join(l.dir, name)

	displayName := l.gameName
	if displayName == "" {
		displayName = "Unknown"
	}
	header := fmt.Sprintf(
		"=== GameSage - Session Log ===\nGame: %s\nDate: %s\n==============================\n\n",
		displayName, now.Format("2006-01-02 15:04:05"))

	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		diag.Warnf("session: cannot create %s: %v", path, err)
		return
	}
	l.path = path
	diag.Infof("session: logging to %s", path)
}

// LogExchange appends one user/assistant pair. The file is created on the
// first call; all failures are swallowed.
func (l *Logger) LogExchange(userMsg, assistantMsg string) {
	l.once.Do(l.initFile)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.path == "" {
		return
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	now := time.Now().Format("15:04:05")
	fmt.Fprintf(f, "[%s] You:\n%s\n\n[%s] Sage:\n%s\n\n", now, userMsg, now, assistantMsg)
}

// Path returns the session file path, or "" when no file exists yet.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}
