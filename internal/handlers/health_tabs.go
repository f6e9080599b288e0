package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/xapet-0/openclaw/internal/web"
)

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	platforms := len(h.Bridge.PlatformList())
	if err := h.Bridge.Healthy(ctx); err != nil {
		web.JSON(w, 200, map[string]any{
			"status":    "disconnected",
			"error":     err.Error(),
			"cdp":       h.Config.CdpURL,
			"platforms": platforms,
			"version":   h.Version,
		})
		return
	}
	web.JSON(w, 200, map[string]any{
		"status":    "ok",
		"cdp":       h.Config.CdpURL,
		"platforms": platforms,
		"version":   h.Version,
	})
}

func (h *Handlers) HandleTabs(w http.ResponseWriter, r *http.Request) {
	pages, err := h.Bridge.PageList(r.Context())
	if err != nil {
		web.Error(w, 500, err)
		return
	}
	web.JSON(w, 200, map[string]any{"tabs": pages})
}

// HandlePlatforms lists the loaded registry with each profile's
// resolved locator strategy, for debugging selector overrides.
func (h *Handlers) HandlePlatforms(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, 200, map[string]any{
		"platforms": h.Bridge.PlatformList(),
		"source":    h.Config.PlatformsPath,
	})
}
