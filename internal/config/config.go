// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides the read-once configuration snapshot for both the
// overlay and the injector.
//
// The file is config.toml located next to the library image (overlay) or
// next to the executable (injector). Every section and field is optional;
// missing fields take the documented defaults. The snapshot is immutable
// after the first read: editing config.toml while a game is running has no
// effect until the next injection.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/gamesage/internal/diag"
)

// FileName is the configuration file looked up next to the library image.
const FileName = "config.toml"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the full configuration snapshot.
type Config struct {
	API         APIConfig         `toml:"api"`
	Overlay     OverlayConfig     `toml:"overlay"`
	Capture     CaptureConfig     `toml:"capture"`
	Logging     LoggingConfig     `toml:"logging"`
	Translation TranslationConfig `toml:"translation"`
	Games       []GameEntry       `toml:"games"`
}

// APIConfig configures the remote generative service.
type APIConfig struct {
	// Key is the API key. Empty means unconfigured; sends fail with a
	// user-visible message rather than an HTTP 403 round trip.
	Key string `toml:"key"`

	// Model is the model identifier used in the request URL.
	Model string `toml:"model"`

	// MaxTokens caps the response length (generationConfig.maxOutputTokens).
	MaxTokens int `toml:"max_tokens"`

	// SystemPrompt is prepended with the detected game name when one is known.
	SystemPrompt string `toml:"system_prompt"`

	// SafetyFilter is one of "off", "block-high", "block-medium", "block-low".
	SafetyFilter string `toml:"safety_filter"`
}

// OverlayConfig configures the in-game panel and hooks.
type OverlayConfig struct {
	// GraphicsAPI forces a backend ("dx12", "dx11", "dx9", "opengl").
	// Empty means auto-detect by probing loaded modules.
	GraphicsAPI string `toml:"graphics_api"`

	// Hotkey toggles panel visibility. F1..F12.
	Hotkey string `toml:"hotkey"`

	// TranslateHotkey triggers a translate request with a screenshot.
	TranslateHotkey string `toml:"translate_hotkey"`

	Width    float64 `toml:"width"`
	Height   float64 `toml:"height"`
	Opacity  float64 `toml:"opacity"`
	FontSize float64 `toml:"font_size"`
}

// CaptureConfig configures screenshot capture.
type CaptureConfig struct {
	Enabled bool `toml:"enabled"`

	// MaxWidth downscales captures wider than this many pixels.
	MaxWidth int `toml:"max_width"`

	// Quality is 0-100. Reserved for lossy encoders; PNG ignores it.
	Quality int `toml:"quality"`
}

// LoggingConfig configures the per-session exchange log.
type LoggingConfig struct {
	Enabled bool `toml:"enabled"`

	// Directory overrides the default logs/ directory next to the DLL.
	Directory string `toml:"directory"`
}

// TranslationConfig configures the translate hotkey behavior.
type TranslationConfig struct {
	Enabled        bool        `toml:"enabled"`
	TargetLanguage string      `toml:"target_language"`
	// Provider is "gemini" (remote, streaming) or "local" (OpenAI-style).
	Provider       string      `toml:"provider"`
	Local          LocalConfig `toml:"local"`
}

// LocalConfig points at an OpenAI-compatible local endpoint (Ollama,
// LM Studio) used by the local translation provider.
type LocalConfig struct {
	Endpoint string `toml:"endpoint"`
	Model    string `toml:"model"`
}

// GameEntry pairs a process filename with an optional display name. The
// injector watches for these processes; the overlay uses Name as the game
// identity override.
type GameEntry struct {
	Process string `toml:"process"`
	Name    string `toml:"name"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultSystemPrompt is used when the config does not provide one.
const DefaultSystemPrompt = "You are a helpful game companion. Be concise and direct. " +
	"When you see a screenshot, describe what you observe and provide actionable advice."

// DefaultConfig returns the snapshot an empty config file produces.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Model:        "gemini-2.5-flash",
			MaxTokens:    1024,
			SystemPrompt: DefaultSystemPrompt,
			SafetyFilter: "off",
		},
		Overlay: OverlayConfig{
			Hotkey:          "F9",
			TranslateHotkey: "F10",
			Width:           500,
			Height:          400,
			Opacity:         0.85,
			FontSize:        16,
		},
		Capture: CaptureConfig{
			Enabled:  true,
			MaxWidth: 1920,
			Quality:  85,
		},
		Logging: LoggingConfig{
			Enabled: true,
		},
		Translation: TranslationConfig{
			TargetLanguage: "English",
			Provider:       "gemini",
			Local: LocalConfig{
				Endpoint: "http://localhost:11434/v1/chat/completions",
				Model:    "llava",
			},
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

var (
	once     sync.Once
	snapshot Config
)

// LoadOnce reads dir/config.toml exactly once per process and returns the
// immutable snapshot. Later calls return the first result regardless of dir.
func LoadOnce(dir string) Config {
	once.Do(func() {
		snapshot = Load(filepath.Join(dir, FileName))
	})
	return snapshot
}

// Load parses the config file at path, merging it over the defaults.
// A missing file or a parse failure is never fatal: both yield the full
// default snapshot, the latter with a diagnostic.
func Load(path string) Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		diag.Infof("config: %s not found, using defaults", path)
		return cfg
	}

	// Decoding over the defaults only overwrites fields present in the
	// file. A malformed file must behave like an empty one, so decode into
	// a scratch copy first.
	merged := DefaultConfig()
	if err := toml.Unmarshal(data, &merged); err != nil {
		diag.Warnf("config: failed to parse %s: %v", path, err)
		return cfg
	}
	return merged
}

// =============================================================================
// HOTKEYS
// =============================================================================

// Virtual-key codes for F1..F12 (winuser.h VK_F1..VK_F12).
var hotkeyTable = map[string]int{
	"F1": 0x70, "F2": 0x71, "F3": 0x72, "F4": 0x73,
	"F5": 0x74, "F6": 0x75, "F7": 0x76, "F8": 0x77,
	"F9": 0x78, "F10": 0x79, "F11": 0x7A, "F12": 0x7B,
}

// HotkeyCode maps a hotkey name (F1..F12, case-insensitive) to its
// virtual-key code. Unknown names return 0, meaning no hotkey bound.
func HotkeyCode(name string) int {
	return hotkeyTable[strings.ToUpper(strings.TrimSpace(name))]
}
