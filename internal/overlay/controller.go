// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package overlay

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/diag"
	"github.com/jeranaias/gamesage/internal/executor"
	"github.com/jeranaias/gamesage/internal/oracle"
	"github.com/jeranaias/gamesage/internal/session"
	"github.com/jeranaias/gamesage/internal/state"
)

// captureWaitFrames is how many presented frames the overlay stays hidden
// before a pre-send screenshot. One frame can still show the fading panel on
// triple-buffered swapchains; two is reliably clean.
const captureWaitFrames = 2

// Controller turns UI actions into background requests. It owns the pending
// capture bookkeeping between "send pressed" and "screenshot landed".
type Controller struct {
	St     *state.State
	Cfg    config.Config
	Pool   *executor.Pool
	Oracle *oracle.Client
	Local  *oracle.LocalTranslator

	mu      sync.Mutex
	session *session.Logger

	// pending*: the request armed by Send/Translate while the capture
	// handshake runs.
	pendingGen       uint64
	pendingHistory   []state.Message
	pendingTranslate bool
}

// SetSession installs the session logger once the game identity is known.
func (c *Controller) SetSession(l *session.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = l
}

func (c *Controller) logger() *session.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Send commits the user's message and spawns the request, deferring through
// the capture handshake when a screenshot was requested.
func (c *Controller) Send(text string, attach bool) {
	gen, history := c.St.BeginSend(text)

	if attach && c.Cfg.Capture.Enabled {
		c.armPending(gen, history, false)
		c.St.RequestCapture(captureWaitFrames, true)
		return
	}
	c.spawn(gen, history, "")
}

// Translate commits the fixed translation prompt and arms a capture; the
// translate providers always want the screen contents.
func (c *Controller) Translate() {
	if !c.Cfg.Translation.Enabled {
		return
	}
	gen, history := c.St.BeginSend(oracle.TranslationPrompt(c.Cfg.Translation.TargetLanguage))
	c.armPending(gen, history, true)
	c.St.RequestCapture(captureWaitFrames, true)
}

func (c *Controller) armPending(gen uint64, history []state.Message, translate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingGen = gen
	c.pendingHistory = history
	c.pendingTranslate = translate
}

// SpawnPending launches the request armed before the capture handshake. The
// render loop calls it right after storing the screenshot.
func (c *Controller) SpawnPending() {
	c.mu.Lock()
	gen, history, translate := c.pendingGen, c.pendingHistory, c.pendingTranslate
	c.pendingHistory = nil
	c.mu.Unlock()

	shot := c.St.TakeCapturedShot()
	if translate && c.Cfg.Translation.Provider == "local" {
		c.spawnLocalTranslate(gen, shot)
		return
	}
	c.spawn(gen, history, shot)
}

// spawn runs the streaming request on the pool. Every state write re-checks
// the generation; a superseded task stops without touching anything.
func (c *Controller) spawn(gen uint64, history []state.Message, screenshot string) {
	reqID := uuid.NewString()[:8]
	diag.Infof("request %s: spawning (gen %d, %d messages, screenshot=%t)",
		reqID, gen, len(history), screenshot != "")

	ok := c.Pool.Submit(func() {
		full, err := c.Oracle.Send(context.Background(), history, screenshot, c.St.GameName(),
			func(fragment string) bool {
				return c.St.AppendStreaming(gen, fragment)
			})
		switch {
		case errors.Is(err, oracle.ErrCancelled):
			diag.Infof("request %s: cancelled", reqID)
		case err != nil:
			if c.St.FinishError(gen, err.Error()) {
				diag.Warnf("request %s: failed: %v", reqID, err)
			}
		default:
			if c.St.FinishSuccess(gen, full) {
				diag.Infof("request %s: completed (%d chars)", reqID, len(full))
				if l := c.logger(); l != nil {
					l.LogExchange(lastUserMessage(history), full)
				}
			}
		}
	})
	if !ok {
		c.St.FinishError(gen, "Too many pending requests. Try again.")
	}
}

// spawnLocalTranslate runs the non-streaming local provider.
func (c *Controller) spawnLocalTranslate(gen uint64, screenshot string) {
	if screenshot == "" {
		c.St.FinishError(gen, "No screenshot captured for translation.")
		return
	}

	reqID := uuid.NewString()[:8]
	diag.Infof("request %s: local translate (gen %d)", reqID, gen)

	cfg := c.Cfg.Translation
	ok := c.Pool.Submit(func() {
		out, err := c.Local.Translate(context.Background(), screenshot, cfg.TargetLanguage)
		if err != nil {
			if c.St.FinishError(gen, err.Error()) {
				diag.Warnf("request %s: failed: %v", reqID, err)
			}
			return
		}
		if c.St.FinishSuccess(gen, out) {
			diag.Infof("request %s: completed (%d chars)", reqID, len(out))
			if l := c.logger(); l != nil {
				l.LogExchange(oracle.TranslationPrompt(cfg.TargetLanguage), out)
			}
		}
	})
	if !ok {
		c.St.FinishError(gen, "Too many pending requests. Try again.")
	}
}

func lastUserMessage(history []state.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == state.RoleUser {
			return history[i].Content
		}
	}
	return ""
}
