// Package gateway exposes a read-only HTTP view of a running session:
// liveness, status, and Prometheus metrics.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/autoreply/internal/provider"
	"github.com/flemzord/autoreply/internal/session"
	"github.com/flemzord/autoreply/internal/telemetry"
)

// StatusSource reports the session state. session.Controller satisfies it.
type StatusSource interface {
	Status() session.Status
	Info() session.Info
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHealth attaches the remote backend health tracker. Without one the
// gateway reports the remote as not configured.
func WithHealth(h *provider.Health) Option {
	return func(g *Gateway) { g.health = h }
}

// WithMetrics attaches the metrics served on /metrics and summarized on
// /status.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// Gateway is the HTTP status surface.
type Gateway struct {
	config  Config
	source  StatusSource
	health  *provider.Health
	metrics *telemetry.Metrics
	logger  *slog.Logger

	mu        sync.Mutex
	server    *http.Server
	addr      net.Addr
	startedAt time.Time

	// now is injectable for testing.
	now func() time.Time
}

// New creates a gateway reading from source. Zero config fields take
// defaults.
func New(cfg Config, source StatusSource, opts ...Option) *Gateway {
	cfg.defaults()
	g := &Gateway{
		config: cfg,
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	g.startedAt = g.now()
	return g
}

// Handler returns the routed handler without starting a listener.
func (g *Gateway) Handler() http.Handler {
	return g.buildRouter()
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.server != nil {
		return errors.New("gateway: already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen %s: %w", g.config.Bind, err)
	}

	g.startedAt = g.now()
	g.addr = ln.Addr()
	g.server = &http.Server{
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	srv := g.server
	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (g *Gateway) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	srv := g.server
	g.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return srv.Shutdown(shutdownCtx)
}
