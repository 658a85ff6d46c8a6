package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pmani/ad-mosaic/internal/pkg/httputil"
)

// HealthCheck reports service liveness and, when the warehouse is wired,
// its reachability.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.warehouse != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.warehouse.Ping(ctx); err != nil {
			status["warehouse"] = "unreachable"
		} else {
			status["warehouse"] = "ok"
		}
	}
	httputil.OK(w, status)
}
