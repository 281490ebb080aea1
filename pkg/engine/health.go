package engine

import (
	"net/http"
	"time"

	"github.com/getmockd/faultmock/pkg/httputil"
)

// handleHealth reports liveness together with the loaded snapshot.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := h.snapshots.Load()
	resp := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    int(time.Since(h.started).Seconds()),
		"routes":    len(snap.Routes()),
		"loadedAt":  snap.LoadedAt().UTC().Format(time.RFC3339),
	}
	if h.connections != nil {
		resp["connections"] = h.connections()
	}
	if inj := h.pipeline.Injector(); inj != nil {
		resp["faults"] = map[string]int64{
			"waiting": inj.Waiting(),
			"held":    inj.Held(),
		}
	}
	httputil.WriteOK(w, resp)
}
