package handlers

import (
	"net/http"

	"github.com/xapet-0/openclaw/internal/web"
)

func (h *Handlers) HandleHelp(wr http.ResponseWriter, _ *http.Request) {
	web.JSON(wr, 200, map[string]any{
		"name": "openclaw",
		"endpoints": map[string]any{
			"POST /chat":     "run one chat turn; SSE with Accept: text/event-stream or ?stream=1, else one JSON terminal event",
			"GET /chat/ws":   "WebSocket chat: send one ChatRequest frame, receive event frames",
			"GET /health":    "browser endpoint reachability",
			"GET /tabs":      "open tabs with detected platforms",
			"GET /platforms": "loaded platform registry with resolved selector rules",
			"GET /turns":     "turn log readback (limit=<n>, session=<id>)",
			"GET /metrics":   "runtime counters",
			"GET /help":      "this help payload",
		},
		"notes": []string{
			"Use Authorization: Bearer <token> when auth is enabled.",
			"One chat turn at a time; concurrent calls get 409.",
		},
	})
}
