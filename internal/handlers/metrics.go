package handlers

import (
	"net/http"
	"sync/atomic"

	"github.com/xapet-0/openclaw/internal/web"
)

var (
	metricRequestsTotal   uint64
	metricRequestsFailed  uint64
	metricRequestLatencyN uint64
	metricTurnsTotal      uint64
	metricTurnsFailed     uint64
)

func snapshotMetrics() map[string]any {
	total := atomic.LoadUint64(&metricRequestsTotal)
	failed := atomic.LoadUint64(&metricRequestsFailed)
	latencySum := atomic.LoadUint64(&metricRequestLatencyN)
	avgMs := 0.0
	if total > 0 {
		avgMs = float64(latencySum) / float64(total)
	}
	return map[string]any{
		"requestsTotal":  total,
		"requestsFailed": failed,
		"avgLatencyMs":   avgMs,
		"turnsTotal":     atomic.LoadUint64(&metricTurnsTotal),
		"turnsFailed":    atomic.LoadUint64(&metricTurnsFailed),
	}
}

func (h *Handlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, 200, snapshotMetrics())
}
