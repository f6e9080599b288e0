// Package handlers provides the HTTP surface of the chat bridge.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xapet-0/openclaw/internal/bridge"
	"github.com/xapet-0/openclaw/internal/config"
	"github.com/xapet-0/openclaw/internal/turnlog"
	"github.com/xapet-0/openclaw/internal/web"
)

const maxBodySize = 4 << 20

type Handlers struct {
	Bridge  bridge.API
	Config  *config.RuntimeConfig
	Turns   *turnlog.Store
	Version string
}

func New(b bridge.API, cfg *config.RuntimeConfig, turns *turnlog.Store, version string) *Handlers {
	if version == "" {
		version = "dev"
	}
	return &Handlers{
		Bridge:  b,
		Config:  cfg,
		Turns:   turns,
		Version: version,
	}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux, doShutdown func()) {
	mux.HandleFunc("POST /chat", h.HandleChat)
	mux.HandleFunc("GET /chat/ws", h.HandleChatWS)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /tabs", h.HandleTabs)
	mux.HandleFunc("GET /platforms", h.HandlePlatforms)
	mux.HandleFunc("GET /turns", h.HandleTurns)
	mux.HandleFunc("GET /metrics", h.HandleMetrics)
	mux.HandleFunc("GET /help", h.HandleHelp)

	if doShutdown != nil {
		mux.HandleFunc("POST /shutdown", h.HandleShutdown(doShutdown))
	}
}

func (h *Handlers) HandleShutdown(shutdownFn func()) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("shutdown requested via API")
		web.JSON(w, 200, map[string]any{"status": "shutting down"})

		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdownFn()
		}()
	}
}
