package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flemzord/autoreply/internal/provider"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		health     func() *provider.Health
		wantCode   int
		wantStatus string
		wantRemote string
	}{
		{
			name:       "no remote",
			health:     func() *provider.Health { return nil },
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantRemote: "not_configured",
		},
		{
			name:       "unknown",
			health:     func() *provider.Health { return provider.NewHealth(2) },
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantRemote: "unknown",
		},
		{
			name: "degraded is still ok",
			health: func() *provider.Health {
				h := provider.NewHealth(2)
				h.RecordFailure(errors.New("boom"))
				return h
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantRemote: "degraded",
		},
		{
			name: "down",
			health: func() *provider.Health {
				h := provider.NewHealth(2)
				h.RecordFailure(errors.New("boom"))
				h.RecordFailure(errors.New("boom"))
				return h
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantRemote: "down",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New(Config{}, newFakeSource(), WithHealth(tt.health()))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			g.Handler().ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Remote != tt.wantRemote {
				t.Errorf("remote = %q, want %q", resp.Remote, tt.wantRemote)
			}
			if resp.State != "listening" {
				t.Errorf("state = %q, want listening", resp.State)
			}
		})
	}
}
