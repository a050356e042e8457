// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/state"
)

// WindowTitle is the overlay panel title.
const WindowTitle = "GameSage"

var (
	userColor      = Color{0.4, 0.7, 1.0, 1.0} // light blue
	assistantColor = Color{0.6, 1.0, 0.6, 1.0} // light green
	errorColor     = Color{1.0, 0.4, 0.4, 1.0} // red
)

// Speaker labels shown in the history.
const (
	userLabel      = "You"
	assistantLabel = "Sage"
)

// refWidth is the reference resolution for layout. Sizes are authored for a
// 1920-wide display and scaled up proportionally on larger ones.
const refWidth = 1920.0

// refFontSize matches the hook service's default font.
const refFontSize = 16.0

// SendFunc spawns a chat request for the trimmed input text. attach reports
// whether the user asked for a screenshot.
type SendFunc func(text string, attach bool)

// DrawPanel renders the chat window for one frame and applies user actions
// to st. Network work is delegated to send; everything else (cancel, clear,
// input write-back) is handled here.
func DrawPanel(f Frame, st *state.State, cfg config.OverlayConfig, send SendFunc) {
	view := st.Snapshot()

	displayW, _ := f.DisplaySize()
	scale := displayW / refWidth
	if scale < 1 {
		scale = 1
	}

	winW := float32(cfg.Width) * scale
	winH := float32(cfg.Height) * scale
	margin := 16 * scale
	btnW := 64 * scale
	inputH := 60 * scale
	inputAreaH := 100 * scale
	statusBarH := 24 * scale

	f.PushWindowBgColor(Color{0.08, 0.08, 0.10, float32(cfg.Opacity)})
	defer f.PopWindowBgColor()

	if !f.BeginWindow(WindowTitle, margin, margin, winW, winH) {
		f.EndWindow()
		return
	}
	defer f.EndWindow()

	if cfg.FontSize > 0 {
		f.SetFontScale(float32(cfg.FontSize) / refFontSize * scale)
	}

	availW, availH := f.ContentRegionAvail()

	// --- Chat history (scrollable) ---
	chatH := availH - inputAreaH - statusBarH
	if f.BeginChild("##chat_history", chatH) {
		for _, msg := range view.Messages {
			label, color := userLabel, userColor
			if msg.Role == state.RoleAssistant {
				label, color = assistantLabel, assistantColor
			}
			f.PushTextColor(color)
			f.TextWrapped(label + ": " + msg.Content)
			f.PopTextColor()
			f.Spacing()
		}

		if view.IsLoading && view.Streaming != "" {
			f.PushTextColor(assistantColor)
			f.TextWrapped(assistantLabel + ": " + view.Streaming)
			f.PopTextColor()
			f.Spacing()
			f.SetScrollHereY(1)
		}

		// Stick to the bottom while the user is already there.
		if f.ScrollY() >= f.ScrollMaxY()-20 {
			f.SetScrollHereY(1)
		}
		f.EndChild()
	}

	f.Separator()

	// --- Input row ---
	input := view.InputBuffer
	f.InputTextMultiline("##input", &input, availW-btnW-16*scale, inputH)
	enterSend := f.EnterPressed() && !f.ShiftDown()
	f.SameLine()

	if view.IsLoading {
		if f.Button("Cancel", btnW, inputH) {
			st.Cancel()
		}
	} else {
		sendPressed := f.Button("Send", btnW, inputH)
		if text := strings.TrimSpace(input); text != "" && (sendPressed || enterSend) {
			input = ""
			send(text, view.AttachScreenshot)
		}
	}

	attach := view.AttachScreenshot
	f.Checkbox("Attach Screenshot", &attach)
	f.SameLine()
	if f.SmallButton("Clear Chat") {
		st.ClearChat()
	}

	st.WriteBack(input, attach)

	// --- Status bar ---
	f.Separator()
	switch {
	case view.ErrorText != "":
		f.PushTextColor(errorColor)
		f.Text("Error: " + view.ErrorText)
		f.PopTextColor()
	case view.IsLoading:
		f.Text("Streaming...")
	default:
		f.Text("Ready")
	}
}
