// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gamedetect resolves a human-readable name for the host game.
//
// Resolution runs at most once per process, preferring in order: the
// configured display-name override, the longest visible window title owned
// by the process, and finally a cleaned form of the executable filename.
package gamedetect

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/gamesage/internal/config"
)

// Generic window titles that never identify a game.
var junkTitles = map[string]bool{
	"window":          true,
	"default":         true,
	"ime":             true,
	"msctfime":        true,
	"gdi+":            true,
	"dwm":             true,
	"desktop":         true,
	"program manager": true,
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// UsableTitle reports whether a window title can serve as a game name.
// Titles shorter than 2 runes and well-known junk titles are rejected.
func UsableTitle(title string) bool {
	if len([]rune(title)) < 2 {
		return false
	}
	return !junkTitles[strings.ToLower(title)]
}

// NameFromConfig returns the display-name override for the current
// executable, matching [[games]] entries by case-insensitive filename.
func NameFromConfig(cfg config.Config, exeName string) string {
	exeLower := strings.ToLower(exeName)
	for _, game := range cfg.Games {
		if strings.ToLower(game.Process) == exeLower {
			return game.Name
		}
	}
	return ""
}

// CleanExeName turns an executable filename into a readable game name:
// the .exe suffix is stripped, hyphens and underscores become spaces,
// camel-case boundaries split while initialisms stay intact, and each word
// is title-cased.
//
//	"DarkSoulsIII.exe"      -> "Dark Souls III"
//	"horizon-zero-dawn.exe" -> "Horizon Zero Dawn"
//	"GAME.exe"              -> "GAME"
//	"my_cool_game.exe"      -> "My Cool Game"
func CleanExeName(exe string) string {
	name := strings.TrimSuffix(exe, ".exe")
	name = strings.TrimSuffix(name, ".EXE")
	if name == "" {
		return ""
	}

	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	// Split camel case. A space goes before an uppercase letter when the
	// previous rune is lowercase, or when it starts a new word after an
	// initialism (previous uppercase, next lowercase).
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 8)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}

	words := strings.Fields(b.String())
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = titleCaser.String(w)
	}
	return strings.Join(words, " ")
}
