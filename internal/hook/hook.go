// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package hook abstracts the external hooking service that intercepts the
// host's present call and drives the render loop.
//
// Concrete services register themselves per backend at init time. The
// bootstrap controller only ever talks to the Service interface: it picks a
// backend, installs the loop, and never calls back in.
package hook

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/gamesage/internal/ui"
)

// Backend identifies the host's graphics API.
type Backend int

const (
	BackendUnknown Backend = iota
	BackendDX12
	BackendDX11
	BackendDX9
	BackendOpenGL
)

// String returns the config-file spelling of the backend.
func (b Backend) String() string {
	switch b {
	case BackendDX12:
		return "dx12"
	case BackendDX11:
		return "dx11"
	case BackendDX9:
		return "dx9"
	case BackendOpenGL:
		return "opengl"
	default:
		return "unknown"
	}
}

// ModuleName returns the loaded-module filename probed for this backend.
func (b Backend) ModuleName() string {
	switch b {
	case BackendDX12:
		return "d3d12.dll"
	case BackendDX11:
		return "d3d11.dll"
	case BackendDX9:
		return "d3d9.dll"
	case BackendOpenGL:
		return "opengl32.dll"
	default:
		return ""
	}
}

// Supported reports whether a render-loop implementation exists for the
// backend. dx9 and opengl are recognized during probing but have no hook
// implementation; detecting one of them ejects the overlay.
func (b Backend) Supported() bool {
	return b == BackendDX12 || b == BackendDX11
}

// ProbeOrder is the detection priority for auto-selection.
var ProbeOrder = []Backend{BackendDX12, BackendDX11, BackendDX9, BackendOpenGL}

// ParseBackend maps a config value to a Backend. Empty means auto-detect.
func ParseBackend(s string) (Backend, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dx12", "d3d12":
		return BackendDX12, true
	case "dx11", "d3d11":
		return BackendDX11, true
	case "dx9", "d3d9":
		return BackendDX9, true
	case "opengl", "gl":
		return BackendOpenGL, true
	default:
		return BackendUnknown, false
	}
}

// =============================================================================
// SERVICE INTERFACE
// =============================================================================

// RenderLoop is the per-frame contract the service calls into. OnFrame runs
// on the host's render thread once per presented frame; it must not block on
// I/O and must not panic.
type RenderLoop interface {
	OnFrame(f ui.Frame)

	// WantsInput tells the input-filter hook to swallow keyboard and mouse
	// events instead of passing them to the game.
	WantsInput() bool
}

// Service installs and removes the present-call hooks for one backend.
type Service interface {
	Install(loop RenderLoop) error
	Uninstall() error
}

// ErrUnsupported is returned by New for backends without a registered
// service.
var ErrUnsupported = errors.New("no hook service for backend")

// =============================================================================
// REGISTRY
// =============================================================================

var (
	registryMu sync.Mutex
	registry   = map[Backend]func() Service{}
)

// Register installs a service factory for a backend. Called from init in
// backend-specific files; later registrations win, which lets tests inject
// fakes.
func Register(b Backend, factory func() Service) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[b] = factory
}

// New returns a service for the backend, or ErrUnsupported.
func New(b Backend) (Service, error) {
	registryMu.Lock()
	factory, ok := registry[b]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, b)
	}
	return factory(), nil
}
