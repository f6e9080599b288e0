package handlers

import (
	"fmt"
	"net/http"

	"github.com/xapet-0/openclaw/internal/turnlog"
	"github.com/xapet-0/openclaw/internal/web"
)

// HandleTurns reads back the turn log: newest first, or a single
// session's history oldest first with ?session=<id>.
func (h *Handlers) HandleTurns(w http.ResponseWriter, r *http.Request) {
	if h.Turns == nil {
		web.JSON(w, 200, map[string]any{"enabled": false, "turns": []turnlog.Turn{}})
		return
	}

	limit := queryParamInt(r, "limit", 50)
	var (
		turns []turnlog.Turn
		err   error
	)
	if session := r.URL.Query().Get("session"); session != "" {
		turns, err = h.Turns.BySession(r.Context(), session, limit)
	} else {
		turns, err = h.Turns.Recent(r.Context(), limit)
	}
	if err != nil {
		web.Error(w, 500, err)
		return
	}
	if turns == nil {
		turns = []turnlog.Turn{}
	}
	web.JSON(w, 200, map[string]any{"enabled": true, "turns": turns})
}

func queryParamInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n <= 0 {
		return def
	}
	return n
}
