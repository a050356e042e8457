// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package overlay wires the in-process companion together: the bootstrap
// worker that waits for the host's graphics stack and installs hooks, the
// per-frame render loop, and the request controller that moves work onto the
// background executor.
package overlay

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/diag"
	"github.com/jeranaias/gamesage/internal/hook"
)

// Bootstrap timing constants.
const (
	modulePollInterval = 100 * time.Millisecond

	// backendProbeAttempts bounds auto-detection: 150 polls at 100 ms is
	// 15 s before giving up and ejecting.
	backendProbeAttempts = 150

	// swapchainSettle gives the host time to create its device and first
	// swapchain; vtable discovery needs them to exist.
	swapchainSettle = 2 * time.Second

	// livenessProbes is how many 1 s checks confirm the render hook fired.
	livenessProbes = 10
)

var errEjected = errors.New("overlay ejected")

// Bootstrap runs the one-time attach sequence on a dedicated worker. All
// platform touchpoints are injected so the sequence itself stays portable.
type Bootstrap struct {
	Cfg config.Config

	// Loop is installed into the chosen backend's hook service.
	Loop hook.RenderLoop

	// Active is set by the render loop on its first frame; liveness
	// verification polls it.
	Active *atomic.Bool

	// ModuleLoaded reports whether a DLL is present in the host process.
	ModuleLoaded func(name string) bool

	// Sleep is time.Sleep in production; tests count calls instead.
	Sleep func(d time.Duration)

	// Eject unloads the library from the host. It is called for every
	// failure before hook installation; it does not return in production.
	Eject func()

	// NewService resolves the hook service for a backend.
	NewService func(b hook.Backend) (hook.Service, error)

	// DetectGame resolves the game identity once the host window exists.
	DetectGame func(cfg config.Config) string

	// OnIdentity receives the detected name (possibly empty). The caller
	// uses it to label state and open the session log.
	OnIdentity func(name string)
}

// Run executes the attach sequence. It returns nil once hooks are installed;
// every error path has already ejected. The caller must then park the worker
// forever: returning from it inside the host is unsafe.
func (b *Bootstrap) Run() error {
	diag.Infof("bootstrap: worker started")

	// Both DX12 and DX11 sit on DXGI, so its presence gates everything.
	// No overall timeout: hosts may legitimately start slowly.
	diag.Infof("bootstrap: waiting for graphics modules...")
	for !b.ModuleLoaded("dxgi.dll") {
		b.Sleep(modulePollInterval)
	}
	diag.Infof("bootstrap: dxgi.dll loaded")

	backend, err := b.chooseBackend()
	if err != nil {
		diag.Errorf("bootstrap: %v — ejecting", err)
		b.Eject()
		return errEjected
	}

	diag.Infof("bootstrap: waiting for swapchain creation...")
	b.Sleep(swapchainSettle)

	name := b.DetectGame(b.Cfg)
	if name != "" {
		diag.Infof("bootstrap: game: %s", name)
	}
	if b.OnIdentity != nil {
		b.OnIdentity(name)
	}

	if !backend.Supported() {
		diag.Infof("bootstrap: %s detected but not yet supported — ejecting", strings.ToUpper(backend.String()))
		b.Eject()
		return errEjected
	}

	diag.Infof("bootstrap: installing %s hooks...", backend)
	svc, err := b.NewService(backend)
	if err != nil {
		diag.Errorf("bootstrap: %v — ejecting", err)
		b.Eject()
		return errEjected
	}
	if err := svc.Install(b.Loop); err != nil {
		diag.Errorf("bootstrap: hook install failed for %s: %v — ejecting", backend, err)
		b.Eject()
		return errEjected
	}
	diag.Infof("bootstrap: hooks installed for %s", backend)

	// Liveness is advisory: a host that never calls the render hook is
	// logged but left alone, since ejecting now would race the hook.
	for i := 1; i <= livenessProbes; i++ {
		b.Sleep(time.Second)
		if b.Active.Load() {
			diag.Infof("bootstrap: hooks confirmed active after %ds", i)
			return nil
		}
		diag.Infof("bootstrap: waiting for first render call... %ds", i)
	}
	diag.Warnf("bootstrap: render hook not called after %ds — present may not be intercepted", livenessProbes)
	return nil
}

// chooseBackend honors the config override, otherwise probes loaded modules
// in priority order. Some hosts load several graphics DLLs; the order picks
// the one they actually present with.
func (b *Bootstrap) chooseBackend() (hook.Backend, error) {
	if forced := b.Cfg.Overlay.GraphicsAPI; forced != "" {
		backend, ok := hook.ParseBackend(forced)
		if !ok {
			return hook.BackendUnknown, fmt.Errorf("unknown graphics_api %q", forced)
		}
		diag.Infof("bootstrap: config override: graphics_api = %s", backend)
		return backend, nil
	}

	diag.Infof("bootstrap: auto-detecting graphics API...")
	for attempt := 0; attempt < backendProbeAttempts; attempt++ {
		for _, backend := range hook.ProbeOrder {
			if b.ModuleLoaded(backend.ModuleName()) {
				diag.Infof("bootstrap: detected %s", backend.ModuleName())
				return backend, nil
			}
		}
		b.Sleep(modulePollInterval)
	}
	return hook.BackendUnknown, errors.New("no supported graphics API detected")
}
