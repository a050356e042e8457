// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"
	"testing"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/state"
)

// fakeFrame scripts one frame of user interaction and records what the
// panel drew.
type fakeFrame struct {
	displayW float32

	// typedInput replaces the input buffer when non-empty; checkboxValue
	// forces the attach checkbox when non-nil.
	typedInput    string
	pressButtons  map[string]bool
	enterPressed  bool
	shiftDown     bool
	checkboxValue *bool

	texts        []string
	wrappedTexts []string
}

func newFakeFrame() *fakeFrame {
	return &fakeFrame{displayW: 1920, pressButtons: map[string]bool{}}
}

func (f *fakeFrame) DisplaySize() (float32, float32) { return f.displayW, 1080 }

func (f *fakeFrame) BeginWindow(string, float32, float32, float32, float32) bool {
	return true
}

func (f *fakeFrame) EndWindow() {}

func (f *fakeFrame) PushWindowBgColor(Color) {}

func (f *fakeFrame) PopWindowBgColor() {}

func (f *fakeFrame) SetFontScale(float32) {}

func (f *fakeFrame) ContentRegionAvail() (float32, float32) {
	return 500, 400
}

func (f *fakeFrame) BeginChild(string, float32) bool { return true }

func (f *fakeFrame) EndChild() {}

func (f *fakeFrame) PushTextColor(Color) {}

func (f *fakeFrame) PopTextColor() {}

func (f *fakeFrame) Text(s string) { f.texts = append(f.texts, s) }

func (f *fakeFrame) TextWrapped(s string) { f.wrappedTexts = append(f.wrappedTexts, s) }

func (f *fakeFrame) Separator() {}

func (f *fakeFrame) Spacing() {}

func (f *fakeFrame) SameLine() {}

func (f *fakeFrame) InputTextMultiline(_ string, buf *string, _, _ float32) {
	if f.typedInput != "" {
		*buf = f.typedInput
	}
}

func (f *fakeFrame) Button(label string, _, _ float32) bool { return f.pressButtons[label] }

func (f *fakeFrame) SmallButton(label string) bool { return f.pressButtons[label] }

func (f *fakeFrame) Checkbox(_ string, v *bool) bool {
	if f.checkboxValue != nil {
		*v = *f.checkboxValue
		return true
	}
	return false
}

func (f *fakeFrame) EnterPressed() bool { return f.enterPressed }

func (f *fakeFrame) ShiftDown() bool { return f.shiftDown }

func (f *fakeFrame) ScrollY() float32 { return 0 }

func (f *fakeFrame) ScrollMaxY() float32 { return 0 }

func (f *fakeFrame) SetScrollHereY(float32) {}

func defaultOverlayCfg() config.OverlayConfig {
	return config.DefaultConfig().Overlay
}

func TestDrawPanel_SendButton(t *testing.T) {
	st := &state.State{}
	f := newFakeFrame()
	f.typedInput = "  what boss is this?  "
	f.pressButtons["Send"] = true

	var sentText string
	var sentAttach bool
	DrawPanel(f, st, defaultOverlayCfg(), func(text string, attach bool) {
		sentText, sentAttach = text, attach
	})

	if sentText != "what boss is this?" {
		t.Errorf("sent %q, want trimmed text", sentText)
	}
	if sentAttach {
		t.Error("attach should default to false")
	}
	if got := st.Snapshot().InputBuffer; got != "" {
		t.Errorf("input buffer should clear after send, got %q", got)
	}
}

func TestDrawPanel_EnterSends(t *testing.T) {
	st := &state.State{}
	f := newFakeFrame()
	f.typedInput = "hello"
	f.enterPressed = true

	sent := false
	DrawPanel(f, st, defaultOverlayCfg(), func(string, bool) { sent = true })
	if !sent {
		t.Error("enter without shift should send")
	}
}

func TestDrawPanel_ShiftEnterDoesNotSend(t *testing.T) {
	st := &state.State{}
	f := newFakeFrame()
	f.typedInput = "hello"
	f.enterPressed = true
	f.shiftDown = true

	DrawPanel(f, st, defaultOverlayCfg(), func(string, bool) {
		t.Error("shift+enter must not send")
	})
}

func TestDrawPanel_EmptyInputIgnored(t *testing.T) {
	st := &state.State{}
	f := newFakeFrame()
	f.typedInput = "   "
	f.pressButtons["Send"] = true

	DrawPanel(f, st, defaultOverlayCfg(), func(string, bool) {
		t.Error("whitespace-only input must not send")
	})
}

func TestDrawPanel_CancelWhileLoading(t *testing.T) {
	st := &state.State{}
	gen, _ := st.BeginSend("question")
	st.AppendStreaming(gen, "partial")

	f := newFakeFrame()
	f.pressButtons["Cancel"] = true
	DrawPanel(f, st, defaultOverlayCfg(), func(string, bool) {
		t.Error("no send while loading")
	})

	view := st.Snapshot()
	if view.IsLoading {
		t.Error("cancel should stop loading")
	}
	if view.ErrorText != "Cancelled." {
		t.Errorf("error = %q", view.ErrorText)
	}
	if st.Generation() == gen {
		t.Error("cancel must bump the generation")
	}
}

func TestDrawPanel_ClearChat(t *testing.T) {
	st := &state.State{}
	gen, _ := st.BeginSend("question")
	st.FinishSuccess(gen, "answer")

	f := newFakeFrame()
	f.pressButtons["Clear Chat"] = true
	DrawPanel(f, st, defaultOverlayCfg(), func(string, bool) {})

	if got := len(st.History()); got != 0 {
		t.Errorf("history has %d messages after clear", got)
	}
}

func TestDrawPanel_DrawsHistoryAndStreaming(t *testing.T) {
	st := &state.State{}
	gen, _ := st.BeginSend("who is the final boss?")
	st.AppendStreaming(gen, "The final boss is")

	f := newFakeFrame()
	DrawPanel(f, st, defaultOverlayCfg(), func(string, bool) {})

	joined := strings.Join(f.wrappedTexts, "\n")
	if !strings.Contains(joined, "You: who is the final boss?") {
		t.Errorf("user turn not drawn: %q", joined)
	}
	if !strings.Contains(joined, "Sage: The final boss is") {
		t.Errorf("streaming text not drawn: %q", joined)
	}
	if len(f.texts) == 0 || f.texts[len(f.texts)-1] != "Streaming..." {
		t.Errorf("status = %v, want Streaming...", f.texts)
	}
}

func TestDrawPanel_StatusLine(t *testing.T) {
	st := &state.State{}
	f := newFakeFrame()
	DrawPanel(f, st, defaultOverlayCfg(), func(string, bool) {})
	if len(f.texts) == 0 || f.texts[len(f.texts)-1] != "Ready" {
		t.Errorf("idle status = %v, want Ready", f.texts)
	}

	st.SetError("Rate limited.")
	f2 := newFakeFrame()
	DrawPanel(f2, st, defaultOverlayCfg(), func(string, bool) {})
	if len(f2.texts) == 0 || f2.texts[len(f2.texts)-1] != "Error: Rate limited." {
		t.Errorf("error status = %v", f2.texts)
	}
}

func TestDrawPanel_WritesBackAttachCheckbox(t *testing.T) {
	st := &state.State{}
	f := newFakeFrame()
	checked := true
	f.checkboxValue = &checked

	DrawPanel(f, st, defaultOverlayCfg(), func(string, bool) {})

	if !st.Snapshot().AttachScreenshot {
		t.Error("checkbox state should write back")
	}
}
