package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/felixgeelhaar/cyclist/pkg/observability"
)

// NewHealthMux serves the worker's probes.
//
//	/healthz     reminder worker and outbox stats plus every registered health check
//	/readyz      database ping; 503 when it fails
//	/deliveries  recently audited reminder deliveries
func NewHealthMux(c *Container) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := c.Health.Check(checkCtx)
		response := map[string]any{
			"status": report.Status,
			"checks": report.Checks,
		}
		if c.ReminderWorker != nil {
			response["reminders"] = c.ReminderWorker.Stats()
		}
		if c.OutboxProcessor != nil {
			response["outbox"] = c.OutboxProcessor.GetStats()
		}
		if c.Metrics != nil {
			response["counters"] = c.Metrics.Snapshot()
			response["timings"] = c.Metrics.TimingSnapshot()
		}

		status := http.StatusOK
		if report.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.DBConn.Ping(checkCtx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.HandleFunc("/deliveries", func(w http.ResponseWriter, r *http.Request) {
		if c.DeliveryAudit == nil {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		writeJSON(w, http.StatusOK, c.DeliveryAudit.Recent())
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
