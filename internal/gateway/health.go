package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/flemzord/autoreply/internal/provider"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "degraded"
	State  string `json:"state"`
	Remote string `json:"remote"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 503 only when the remote backend is down. The local tiers always
// answer, so a missing or degraded remote still counts as ok.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Remote: "not_configured",
		}
		if g.source != nil {
			resp.State = g.source.Status().State
		}
		if g.health != nil {
			state := g.health.State()
			resp.Remote = state.String()
			if state == provider.HealthDown {
				resp.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
