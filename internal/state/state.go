// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state holds the single mutable record shared between the render
// callback and background request tasks.
//
// Every read and write goes through one mutex. Critical sections stay
// minimal: callers snapshot what they need, release the lock, do their
// work, and write back. Cross-task consistency is provided solely by the
// generation counter: a task whose captured generation no longer matches
// must not write to messages, the streaming buffer, or the error field.
package state

import "sync"

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Role is the sender of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn. Insertion order is semantic.
type Message struct {
	Role    Role
	Content string
}

// =============================================================================
// APPLICATION STATE
// =============================================================================

// State is the process-wide application record.
type State struct {
	mu sync.Mutex

	visible          bool
	messages         []Message
	inputBuffer      string
	attachScreenshot bool
	isLoading        bool
	errorText        string

	// generation is bumped on every send, cancel, or clear. Background
	// tasks capture it at spawn and discard their writes on mismatch.
	generation uint64

	// streaming accumulates in-progress assistant text. Rendered while
	// isLoading; moved into messages when the request finishes.
	streaming string

	gameName string

	// Pre-send quiescing handshake: while capturePending the render loop
	// skips drawing so the screenshot shows only the game.
	capturePending     bool
	captureWaitFrames  int
	capturedShot       string
	sendPendingCapture bool
}

var (
	initOnce sync.Once
	global   *State
)

// Get returns the lazily-initialized process-wide state.
func Get() *State {
	initOnce.Do(func() {
		global = &State{}
	})
	return global
}

// =============================================================================
// VISIBILITY
// =============================================================================

// ToggleVisible flips panel visibility and returns the new value.
func (s *State) ToggleVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = !s.visible
	return s.visible
}

// Visible reports whether the panel is drawn this frame.
func (s *State) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// SetGameName caches the detected game identity. Set once at bootstrap.
func (s *State) SetGameName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameName = name
}

// GameName returns the cached game identity, or "".
func (s *State) GameName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameName
}

// =============================================================================
// UI SNAPSHOT / WRITE-BACK
// =============================================================================

// UIView is a copy of everything the panel needs for one frame.
type UIView struct {
	Messages         []Message
	InputBuffer      string
	AttachScreenshot bool
	IsLoading        bool
	ErrorText        string
	Streaming        string
}

// Snapshot copies the drawable state under the lock. The returned message
// slice is owned by the caller.
func (s *State) Snapshot() UIView {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	return UIView{
		Messages:         msgs,
		InputBuffer:      s.inputBuffer,
		AttachScreenshot: s.attachScreenshot,
		IsLoading:        s.isLoading,
		ErrorText:        s.errorText,
		Streaming:        s.streaming,
	}
}

// WriteBack stores the panel's edited input and checkbox once per frame.
func (s *State) WriteBack(input string, attach bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputBuffer = input
	s.attachScreenshot = attach
}

// =============================================================================
// SEND / CANCEL / CLEAR
// =============================================================================

// BeginSend commits a user message and arms a new request. It appends the
// message, clears the input and error, marks loading, clears the streaming
// buffer, and bumps the generation. Returns the new generation and a copy
// of the full history for the background task.
func (s *State) BeginSend(text string) (gen uint64, history []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: RoleUser, Content: text})
	s.inputBuffer = ""
	s.isLoading = true
	s.errorText = ""
	s.generation++
	s.streaming = ""
	history = make([]Message, len(s.messages))
	copy(history, s.messages)
	return s.generation, history
}

// Cancel aborts the in-flight request from the UI. Partial streamed text is
// committed as an assistant message suffixed with " [cancelled]". Bumping
// the generation alone is sufficient to make the orphaned task discard its
// next write.
func (s *State) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming != "" {
		s.messages = append(s.messages, Message{
			Role:    RoleAssistant,
			Content: s.streaming + " [cancelled]",
		})
		s.streaming = ""
	}
	s.isLoading = false
	s.errorText = "Cancelled."
	s.generation++
}

// ClearChat empties the conversation and invalidates any in-flight request.
func (s *State) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.errorText = ""
	s.isLoading = false
	s.streaming = ""
	s.generation++
}

// =============================================================================
// GENERATION-CHECKED WRITES (background tasks only)
// =============================================================================

// AppendStreaming appends a text fragment to the streaming buffer if gen is
// still current. Returns false when the request has been superseded; the
// caller must stop writing and return.
func (s *State) AppendStreaming(gen uint64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.streaming += text
	return true
}

// FinishSuccess commits the full assistant response if gen is still
// current. Reports whether the write was applied.
func (s *State) FinishSuccess(gen uint64, response string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: response})
	s.streaming = ""
	s.isLoading = false
	return true
}

// FinishError records a user-visible error if gen is still current. Partial
// streamed text already accumulated is kept as a committed assistant
// message. Reports whether the write was applied.
func (s *State) FinishError(gen uint64, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	if s.streaming != "" {
		s.messages = append(s.messages, Message{Role: RoleAssistant, Content: s.streaming})
		s.streaming = ""
	}
	s.errorText = msg
	s.isLoading = false
	return true
}

// SetError sets the status-bar error without touching the request state.
// Used for non-fatal notices such as a failed screenshot capture.
func (s *State) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorText = msg
}

// Generation returns the current request generation.
func (s *State) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// =============================================================================
// CAPTURE QUIESCING HANDSHAKE
// =============================================================================

// RequestCapture arms the pre-send quiescing handshake: the render loop
// skips drawing for waitFrames frames, then captures. When sendAfter is
// set, the pending request spawns once the capture lands.
func (s *State) RequestCapture(waitFrames int, sendAfter bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capturePending = true
	s.captureWaitFrames = waitFrames
	s.sendPendingCapture = sendAfter
}

// CapturePending reports whether the overlay must stay hidden this frame.
func (s *State) CapturePending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capturePending
}

// CaptureTick decrements the quiescing countdown. It returns true when the
// countdown reached zero and the capture should run this frame.
func (s *State) CaptureTick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.capturePending {
		return false
	}
	if s.captureWaitFrames > 0 {
		s.captureWaitFrames--
	}
	return s.captureWaitFrames == 0
}

// StoreCapture completes the handshake: the screenshot (possibly empty on
// capture failure) is stored, the pending flag cleared, and the caller is
// told whether a deferred send should now spawn.
func (s *State) StoreCapture(shot string) (spawnSend bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capturedShot = shot
	s.capturePending = false
	spawnSend = s.sendPendingCapture
	s.sendPendingCapture = false
	return spawnSend
}

// TakeCapturedShot returns and clears the stored screenshot.
func (s *State) TakeCapturedShot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	shot := s.capturedShot
	s.capturedShot = ""
	return shot
}

// History returns a copy of the conversation.
func (s *State) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	return msgs
}
