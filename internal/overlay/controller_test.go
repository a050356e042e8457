// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package overlay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/gamesage/internal/config"
	"github.com/jeranaias/gamesage/internal/executor"
	"github.com/jeranaias/gamesage/internal/oracle"
	"github.com/jeranaias/gamesage/internal/state"
)

func sseChunk(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]string{{"text": text}},
			},
		}},
	})
	return fmt.Sprintf("data: %s\n\n", payload)
}

func newTestController(t *testing.T, handler http.HandlerFunc) (*Controller, *state.State) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.API.Key = "test-key"

	st := &state.State{}
	pool := executor.NewPool(1)
	t.Cleanup(pool.Close)

	return &Controller{
		St:     st,
		Cfg:    cfg,
		Pool:   pool,
		Oracle: oracle.NewClient(cfg.API).WithBaseURL(srv.URL),
	}, st
}

func waitForIdle(t *testing.T, st *state.State) state.UIView {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		view := st.Snapshot()
		if !view.IsLoading {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("request never finished")
	return state.UIView{}
}

func TestController_SendWithoutAttach(t *testing.T) {
	ctl, st := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sseChunk("The boss is ")+sseChunk("Margit."))
	})

	ctl.Send("what boss is this?", false)
	view := waitForIdle(t, st)

	if len(view.Messages) != 2 {
		t.Fatalf("messages = %d, want user + assistant", len(view.Messages))
	}
	if got := view.Messages[1].Content; got != "The boss is Margit." {
		t.Errorf("assistant = %q", got)
	}
	if view.ErrorText != "" {
		t.Errorf("error = %q", view.ErrorText)
	}
}

func TestController_SendWithAttachArmsCapture(t *testing.T) {
	requests := make(chan string, 1)
	ctl, st := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		requests <- string(raw)
		io.WriteString(w, sseChunk("A knight."))
	})

	ctl.Send("who is on screen?", true)

	if !st.CapturePending() {
		t.Fatal("attach should arm the capture handshake, not spawn yet")
	}
	select {
	case <-requests:
		t.Fatal("no request may fire before the capture lands")
	default:
	}

	// The render loop finishes the handshake.
	st.CaptureTick()
	st.CaptureTick()
	if st.StoreCapture("c2hvdA==") {
		ctl.SpawnPending()
	}

	waitForIdle(t, st)
	body := <-requests
	if !strings.Contains(body, `"inline_data"`) || !strings.Contains(body, "c2hvdA==") {
		t.Errorf("request body should carry the screenshot: %s", body)
	}
}

func TestController_ErrorSurfacesInState(t *testing.T) {
	ctl, st := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	ctl.Send("hi", false)
	view := waitForIdle(t, st)

	if view.ErrorText != "Invalid API key." {
		t.Errorf("error = %q", view.ErrorText)
	}
	if len(view.Messages) != 1 {
		t.Errorf("only the user turn should remain, got %d messages", len(view.Messages))
	}
}

func TestController_LocalTranslateWithoutScreenshot(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Translation.Enabled = true
	cfg.Translation.Provider = "local"

	st := &state.State{}
	pool := executor.NewPool(1)
	defer pool.Close()
	ctl := &Controller{
		St:    st,
		Cfg:   cfg,
		Pool:  pool,
		Local: oracle.NewLocalTranslator("http://127.0.0.1:1", "llava", 256),
	}

	ctl.Translate()
	st.CaptureTick()
	st.CaptureTick()
	if st.StoreCapture("") { // capture failed
		ctl.SpawnPending()
	}

	view := waitForIdle(t, st)
	if view.ErrorText != "No screenshot captured for translation." {
		t.Errorf("error = %q", view.ErrorText)
	}
}

func TestController_TranslateDisabledIsNoop(t *testing.T) {
	st := &state.State{}
	ctl := &Controller{St: st, Cfg: config.DefaultConfig()}

	ctl.Translate()
	if st.CapturePending() || len(st.History()) != 0 {
		t.Error("translate must do nothing while disabled")
	}
}
