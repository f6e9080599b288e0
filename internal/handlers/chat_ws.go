package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/xapet-0/openclaw/internal/api/types"
)

// HandleChatWS streams one chat turn over a WebSocket: the client sends
// a single ChatRequest text frame, the server answers with one text
// frame per stream event and closes after the terminal event. Problems
// before the pipeline starts (bad frame, busy guard) are delivered in
// the same shape, as a lone error event frame.
func (h *Handlers) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	data, _, err := wsutil.ReadClientData(conn)
	if err != nil {
		slog.Debug("ws request frame read failed", "error", err)
		return
	}

	var req types.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		writeWSEvent(conn, wsErrorEvent("decode request: "+err.Error()))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	owner := requestOwner(w)
	if err := h.Bridge.Guard().TryLock(owner); err != nil {
		writeWSEvent(conn, wsErrorEvent(err.Error()))
		return
	}
	defer h.Bridge.Guard().Unlock(owner)

	start := time.Now()
	events := h.Bridge.Chat(r.Context(), req)

	var terminal types.StreamEvent
	var writeErr error
	for ev := range events {
		if writeErr == nil {
			if err := writeWSEvent(conn, ev); err != nil {
				writeErr = err
				slog.Debug("ws client gone mid-stream, finishing turn silently", "error", err)
			}
		}
		if ev.Type.Terminal() {
			terminal = ev
		}
	}

	h.recordTurn(req, terminal, time.Since(start))
}

func writeWSEvent(conn io.Writer, ev types.StreamEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return wsutil.WriteServerMessage(conn, ws.OpText, payload)
}

func wsErrorEvent(msg string) types.StreamEvent {
	return types.StreamEvent{
		Type:  types.EventError,
		Error: msg,
		Message: &types.AssistantMessage{
			Role:       "assistant",
			API:        "openclaw",
			StopReason: types.StopReasonError,
			Timestamp:  time.Now().UTC(),
		},
	}
}
