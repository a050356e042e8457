// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package gamedetect

import (
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/diag"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows     = user32.NewProc("EnumWindows")
	procGetWindowTextW  = user32.NewProc("GetWindowTextW")
	procIsWindowVisible = user32.NewProc("IsWindowVisible")
	procGetWindowThread = user32.NewProc("GetWindowThreadProcessId")
)

// Detect resolves the game name with the 3-tier priority: config override,
// longest visible window title, cleaned executable name. Returns "" when
// nothing usable is found.
func Detect(cfg config.Config) string {
	exe := currentExeName()

	if name := NameFromConfig(cfg, exe); name != "" {
		diag.Infof("gamedetect: name from config: %s", name)
		return name
	}

	if title := longestVisibleTitle(windows.GetCurrentProcessId()); UsableTitle(title) {
		diag.Infof("gamedetect: name from window title: %s", title)
		return title
	}

	if name := CleanExeName(exe); name != "" {
		diag.Infof("gamedetect: name from exe: %s", name)
		return name
	}

	diag.Infof("gamedetect: could not detect game name")
	return ""
}

// currentExeName returns the host executable's filename, e.g. "Game.exe".
func currentExeName() string {
	var buf [windows.MAX_PATH]uint16
	n, err := windows.GetModuleFileName(0, &buf[0], uint32(len(buf)))
	if err != nil || n == 0 {
		return ""
	}
	return filepath.Base(windows.UTF16ToString(buf[:n]))
}

// longestVisibleTitle returns the trimmed title of the longest-titled
// visible top-level window owned by pid. The main game window is usually
// the longest.
func longestVisibleTitle(pid uint32) string {
	var best string

	cb := windows.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		const continueEnum = 1

		var windowPID uint32
		procGetWindowThread.Call(hwnd, uintptr(unsafe.Pointer(&windowPID)))
		if windowPID != pid {
			return continueEnum
		}

		visible, _, _ := procIsWindowVisible.Call(hwnd)
		if visible == 0 {
			return continueEnum
		}

		var buf [512]uint16
		n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if n == 0 {
			return continueEnum
		}

		title := windows.UTF16ToString(buf[:n])
		if len(title) > len(best) {
			best = title
		}
		return continueEnum
	})

	procEnumWindows.Call(cb, 0)
	return strings.TrimSpace(best)
}
