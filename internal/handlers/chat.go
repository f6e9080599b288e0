package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xapet-0/openclaw/internal/api/types"
	"github.com/xapet-0/openclaw/internal/idutil"
	"github.com/xapet-0/openclaw/internal/turnlog"
	"github.com/xapet-0/openclaw/internal/web"
)

// HandleChat runs one conversation turn. With `Accept: text/event-stream`,
// `?stream=1`, or `"stream": true` in the body, events are delivered as
// SSE frames as they happen; otherwise the handler waits for the
// terminal event and returns it as one JSON document. Failures inside
// the pipeline ride the stream as its error terminal event, so the
// HTTP status stays 200 either way; only malformed requests and the
// busy guard are HTTP errors.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		web.Error(w, 400, fmt.Errorf("decode: %w", err))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	owner := requestOwner(w)
	if err := h.Bridge.Guard().TryLock(owner); err != nil {
		web.ErrorCode(w, 409, "busy", err.Error(), true, nil)
		return
	}
	defer h.Bridge.Guard().Unlock(owner)

	start := time.Now()
	events := h.Bridge.Chat(r.Context(), req)

	var terminal types.StreamEvent
	if wantsStream(r, req) {
		web.SSEStart(w)
		var writeErr error
		// The channel is always drained to completion: the pipeline owns
		// the browser until its terminal event, and the guard must hold
		// for that whole span even when the client hangs up mid-stream.
		for ev := range events {
			if writeErr == nil {
				if err := web.SSEEvent(w, ev); err != nil {
					writeErr = err
					slog.Debug("client gone mid-stream, finishing turn silently", "error", err)
				}
			}
			if ev.Type.Terminal() {
				terminal = ev
			}
		}
	} else {
		for ev := range events {
			if ev.Type.Terminal() {
				terminal = ev
			}
		}
		web.JSON(w, 200, terminal)
	}

	h.recordTurn(req, terminal, time.Since(start))
}

func wantsStream(r *http.Request, req types.ChatRequest) bool {
	if req.Stream || r.URL.Query().Get("stream") == "1" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// requestOwner names the guard holder after the request ID the
// middleware stamped, so a busy rejection can say who is running.
func requestOwner(w http.ResponseWriter) string {
	if rid := w.Header().Get("X-Request-Id"); rid != "" {
		return rid
	}
	return idutil.RequestID()
}

// recordTurn appends the finished turn to the turn log. The store is
// nil-safe, failures never reach the chat caller.
func (h *Handlers) recordTurn(req types.ChatRequest, terminal types.StreamEvent, dur time.Duration) {
	atomic.AddUint64(&metricTurnsTotal, 1)

	t := turnlog.Turn{
		SessionID:  req.SessionID,
		SessionKey: req.SessionKey,
		Prompt:     types.LatestUserText(req.Messages),
		Status:     "ok",
		DurationMs: dur.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if msg := terminal.Message; msg != nil {
		t.Platform = msg.Provider
		t.Model = msg.Model
		t.Reply = msg.Text()
	}
	if terminal.Type != types.EventDone {
		atomic.AddUint64(&metricTurnsFailed, 1)
		t.Status = "error"
		t.Error = terminal.Error
		t.Reply = ""
	}
	t.ID = idutil.TurnID(req.SessionID, t.Platform)
	h.Turns.Record(t)
}
