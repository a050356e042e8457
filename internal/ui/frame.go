// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui draws the immediate-mode chat panel.
//
// Drawing goes through the Frame interface, a thin slice of an immediate-mode
// GUI context. The hook service supplies the real implementation each frame;
// tests drive the panel with a scripted fake.
package ui

// Color is an RGBA quad in the 0..1 range.
type Color [4]float32

// Frame is one frame's drawing context, valid only for the duration of the
// render callback that received it.
type Frame interface {
	// DisplaySize returns the host swapchain dimensions in pixels.
	DisplaySize() (w, h float32)

	// BeginWindow opens a movable window with a first-use position and
	// size. Returns false when the window is collapsed; EndWindow must be
	// called either way.
	BeginWindow(title string, x, y, w, h float32) bool
	EndWindow()

	PushWindowBgColor(c Color)
	PopWindowBgColor()
	SetFontScale(scale float32)

	ContentRegionAvail() (w, h float32)

	// BeginChild opens a scrollable region. EndChild must be called when
	// BeginChild returned true.
	BeginChild(id string, h float32) bool
	EndChild()

	PushTextColor(c Color)
	PopTextColor()
	Text(s string)
	TextWrapped(s string)
	Separator()
	Spacing()
	SameLine()

	InputTextMultiline(id string, buf *string, w, h float32)
	Button(label string, w, h float32) bool
	SmallButton(label string) bool
	Checkbox(label string, v *bool) bool

	// EnterPressed reports a keyboard send this frame; ShiftDown
	// distinguishes newline insertion from sending.
	EnterPressed() bool
	ShiftDown() bool

	ScrollY() float32
	ScrollMaxY() float32
	SetScrollHereY(ratio float32)
}
