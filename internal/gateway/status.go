package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/flemzord/autoreply/internal/provider"
	"github.com/flemzord/autoreply/internal/session"
	"github.com/flemzord/autoreply/internal/telemetry"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime  int64                    `json:"uptime_seconds"`
	Session session.Status           `json:"session"`
	Config  session.Info             `json:"config"`
	Metrics telemetry.Snapshot       `json:"metrics"`
	Remote  *provider.HealthSnapshot `json:"remote,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime:  int64(g.now().Sub(g.startedAt) / time.Second),
			Metrics: g.metrics.Snapshot(),
		}
		if g.source != nil {
			resp.Session = g.source.Status()
			resp.Config = g.source.Info()
		}
		if g.health != nil {
			snap := g.health.Snapshot()
			resp.Remote = &snap
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
