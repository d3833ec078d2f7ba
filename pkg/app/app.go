package app

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/flemzord/autoreply/internal/config"
	"github.com/flemzord/autoreply/internal/conversation"
	"github.com/flemzord/autoreply/internal/gateway"
	"github.com/flemzord/autoreply/internal/pipeline"
	"github.com/flemzord/autoreply/internal/provider"
	"github.com/flemzord/autoreply/internal/rules"
	"github.com/flemzord/autoreply/internal/security"
	"github.com/flemzord/autoreply/internal/session"
	"github.com/flemzord/autoreply/internal/telemetry"
	"github.com/flemzord/autoreply/modules/provider/openai"
)

// shutdownTimeout bounds gateway and tracer shutdown after the session ends.
const shutdownTimeout = 5 * time.Second

// App is a fully wired autoreply process.
type App struct {
	logger     *slog.Logger
	tracing    *telemetry.Tracing
	controller *session.Controller
	gateway    *gateway.Gateway
}

// New builds every component from cfg. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, params RunParams) (*App, error) {
	params.defaults()

	// Wrap the text handler in a redacting handler to prevent secret leakage in logs.
	redactor := security.NewRedactor(cfg.APIKey())
	logger := security.NewLogger(params.Stderr, cfg.Log.SlogLevel(), redactor)

	metrics := telemetry.NewMetrics()
	tracing, err := telemetry.NewTracing(ctx, cfg.Tracing.Endpoint, params.Version)
	if err != nil {
		return nil, err
	}

	seed := cfg.Session.Seed
	store := conversation.NewStore(conversation.WithLogger(logger))

	engine := rules.New(nil)
	pipeOpts := []pipeline.Option{
		pipeline.WithProfile(cfg.Character),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
		pipeline.WithTracer(tracing.Tracer()),
	}
	if seed != 0 {
		engine = rules.NewSeeded(seed)
		pipeOpts = append(pipeOpts, pipeline.WithRand(rand.New(rand.NewPCG(seed, ^seed))))
	}

	var (
		health *provider.Health
		model  string
	)
	if cfg.RemoteEnabled() {
		remote, err := openai.New(cfg.OpenAI(), openai.WithLogger(logger))
		if err != nil {
			return nil, errors.Join(err, tracing.Shutdown(ctx))
		}
		health = provider.NewHealth(provider.DefaultMaxFailures)
		health.OnChange = func(from, to provider.HealthState) {
			logger.Warn("remote backend health changed", "model", remote.ModelName(), "from", from.String(), "to", to.String())
		}
		model = remote.ModelName()
		logger.Info("remote tier enabled", "model", model, "base_url", cfg.OpenAI().BaseURL, "api_key", security.Mask(cfg.APIKey()))
		pipeOpts = append(pipeOpts,
			pipeline.WithRemote(remote),
			pipeline.WithHealth(health),
			pipeline.WithRemoteTimeout(cfg.Reply.Remote.Timeout),
		)
	} else if cfg.Reply.Tier == config.TierRemote {
		logger.Warn("remote tier selected but no credential resolved, using local rules",
			"api_key_env", cfg.Reply.Remote.APIKeyEnv)
	}
	pipe := pipeline.New(engine, pipeOpts...)

	controller := session.New(session.Config{
		AutoReply:        cfg.Session.AutoReply,
		Simulate:         cfg.Session.Simulate,
		SimulateInterval: cfg.Session.SimulateInterval,
		ThinkMin:         cfg.Session.ThinkMin,
		ThinkMax:         cfg.Session.ThinkMax,
		Seed:             seed,
		Tier:             cfg.EffectiveTier(),
		Model:            model,
		Profile:          pipe.Profile(),
	}, store, pipe, session.NewConsole(params.Stdout), params.Stdin,
		session.WithLogger(logger),
		session.WithMetrics(metrics),
	)

	a := &App{
		logger:     logger,
		tracing:    tracing,
		controller: controller,
	}
	if cfg.Gateway.Bind != "" {
		a.gateway = gateway.New(gateway.Config{Bind: cfg.Gateway.Bind}, controller,
			gateway.WithHealth(health),
			gateway.WithMetrics(metrics),
			gateway.WithLogger(logger),
		)
	}
	return a, nil
}

// Controller returns the session controller.
func (a *App) Controller() *session.Controller {
	return a.controller
}

// Gateway returns the HTTP gateway, or nil when disabled.
func (a *App) Gateway() *gateway.Gateway {
	return a.gateway
}

// Run starts the gateway, runs the session to completion, then shuts the
// gateway and tracer down.
func (a *App) Run(ctx context.Context) error {
	if a.gateway != nil {
		if err := a.gateway.Start(ctx); err != nil {
			return errors.Join(err, a.shutdown())
		}
	}

	runErr := a.controller.Run(ctx)
	return errors.Join(runErr, a.shutdown())
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.gateway != nil {
		if err := a.gateway.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.tracing.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		a.logger.Error("shutdown incomplete", "error", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
