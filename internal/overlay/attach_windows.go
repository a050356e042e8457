// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package overlay

import (
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/windows"

	"github.com/jeranaias/gamesage/internal/capture"
	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/diag"
	"github.com/jeranaias/gamesage/internal/executor"
	"github.com/jeranaias/gamesage/internal/gamedetect"
	"github.com/jeranaias/gamesage/internal/hook"
	"github.com/jeranaias/gamesage/internal/oracle"
	"github.com/jeranaias/gamesage/internal/session"
	"github.com/jeranaias/gamesage/internal/state"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")

	kernel32                     = windows.NewLazySystemDLL("kernel32.dll")
	procFreeLibraryAndExitThread = kernel32.NewProc("FreeLibraryAndExitThread")
)

// Attach starts the bootstrap worker. Called from the library entry point on
// process attach; it must return immediately, so all waiting happens on the
// spawned worker.
func Attach(handle windows.Handle) {
	go func() {
		// Eject ends this exact OS thread via FreeLibraryAndExitThread.
		runtime.LockOSThread()

		dir := moduleDir(handle)
		diag.Init(dir)
		cfg := config.LoadOnce(dir)

		st := state.Get()
		pool := executor.NewPool(2)
		ctl := &Controller{
			St:     st,
			Cfg:    cfg,
			Pool:   pool,
			Oracle: oracle.NewClient(cfg.API),
			Local: oracle.NewLocalTranslator(
				cfg.Translation.Local.Endpoint, cfg.Translation.Local.Model, cfg.API.MaxTokens),
		}

		var active atomic.Bool
		loop := NewRenderLoop(st, cfg, ctl, &active, keyDown, capture.Screenshot)

		b := &Bootstrap{
			Cfg:          cfg,
			Loop:         loop,
			Active:       &active,
			ModuleLoaded: moduleLoaded,
			Sleep:        time.Sleep,
			Eject:        func() { eject(handle) },
			NewService:   hook.New,
			DetectGame:   gamedetect.Detect,
			OnIdentity: func(name string) {
				st.SetGameName(name)
				ctl.SetSession(session.NewLogger(cfg.Logging, dir, name))
			},
		}
		if err := b.Run(); err != nil {
			return
		}

		// Park forever. Returning would run deferred teardown inside the
		// host, which can crash it.
		select {}
	}()
}

// moduleDir returns the directory holding the library image.
func moduleDir(handle windows.Handle) string {
	var buf [windows.MAX_PATH]uint16
	n, err := windows.GetModuleFileName(handle, &buf[0], uint32(len(buf)))
	if err != nil || n == 0 {
		return "."
	}
	return filepath.Dir(windows.UTF16ToString(buf[:n]))
}

// moduleLoaded reports whether a DLL is present in the host process.
func moduleLoaded(name string) bool {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return false
	}
	h, err := windows.GetModuleHandle(p)
	return err == nil && h != 0
}

// keyDown reports whether a virtual key is held right now.
func keyDown(vk int) bool {
	ret, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return ret&0x8000 != 0
}

// eject unloads the library and exits the calling thread. Never returns.
func eject(handle windows.Handle) {
	diag.Infof("overlay: ejecting")
	procFreeLibraryAndExitThread.Call(uintptr(handle), 0)
}
