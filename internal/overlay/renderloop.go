// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package overlay

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/diag"
	"github.com/jeranaias/gamesage/internal/state"
	"github.com/jeranaias/gamesage/internal/ui"
)

// requestController is the slice of Controller the render loop needs.
// Narrowed to an interface so frame tests can script it.
type requestController interface {
	Send(text string, attach bool)
	SpawnPending()
	Translate()
}

// translateInterval throttles the translate hotkey; holding it down must
// not queue a request per frame.
const translateInterval = 2 * time.Second

// RenderLoop is the per-frame callback installed into the hook service. It
// runs on the host's render thread: no blocking I/O, no panics, short
// critical sections only.
type RenderLoop struct {
	St  *state.State
	Cfg config.Config
	Ctl requestController

	// Active is published on the first frame so the bootstrap worker can
	// confirm the present hook fired.
	Active *atomic.Bool

	// KeyDown reports whether a virtual key is held right now.
	KeyDown func(vk int) bool

	// Capture takes the quiesced screenshot. ok=false means no shot.
	Capture func(maxWidth int) (string, bool)

	firstFrameSeen bool
	toggleWasDown  bool
	translateDown  bool
	translateGate  *rate.Limiter
}

// NewRenderLoop builds the loop with its hotkey limiter.
func NewRenderLoop(st *state.State, cfg config.Config, ctl requestController,
	active *atomic.Bool, keyDown func(int) bool, capture func(int) (string, bool)) *RenderLoop {
	return &RenderLoop{
		St:            st,
		Cfg:           cfg,
		Ctl:           ctl,
		Active:        active,
		KeyDown:       keyDown,
		Capture:       capture,
		translateGate: rate.NewLimiter(rate.Every(translateInterval), 1),
	}
}

// OnFrame runs once per presented host frame.
func (r *RenderLoop) OnFrame(f ui.Frame) {
	if !r.firstFrameSeen {
		r.Active.Store(true)
		diag.Infof("render: first frame — hooks are active")
		r.firstFrameSeen = true
	}

	r.pollHotkeys()

	// Pre-capture quiescing: while a capture is pending the panel stays
	// hidden so it cannot appear in its own screenshot.
	if r.St.CapturePending() {
		if r.St.CaptureTick() {
			r.finishCapture()
		}
		return
	}

	if r.St.Visible() {
		ui.DrawPanel(f, r.St, r.Cfg.Overlay, r.Ctl.Send)
	}
}

// WantsInput makes the input-filter hook swallow events while the panel is
// open and pass them through otherwise.
func (r *RenderLoop) WantsInput() bool {
	return r.St.Visible()
}

// pollHotkeys edge-detects the toggle and translate keys. Rising edge only:
// a held key is one press.
func (r *RenderLoop) pollHotkeys() {
	if vk := config.HotkeyCode(r.Cfg.Overlay.Hotkey); vk != 0 {
		down := r.KeyDown(vk)
		if down && !r.toggleWasDown {
			r.St.ToggleVisible()
		}
		r.toggleWasDown = down
	}

	if !r.Cfg.Translation.Enabled {
		return
	}
	if vk := config.HotkeyCode(r.Cfg.Overlay.TranslateHotkey); vk != 0 {
		down := r.KeyDown(vk)
		if down && !r.translateDown && r.translateGate.Allow() {
			r.Ctl.Translate()
		}
		r.translateDown = down
	}
}

// finishCapture runs the quiesced screenshot and releases the handshake.
func (r *RenderLoop) finishCapture() {
	var shot string
	if r.Cfg.Capture.Enabled {
		if s, ok := r.Capture(r.Cfg.Capture.MaxWidth); ok {
			shot = s
		} else {
			r.St.SetError("Screenshot capture failed — sending text only.")
		}
	}
	if r.St.StoreCapture(shot) {
		r.Ctl.SpawnPending()
	}
}
