// Package openai implements provider.Provider against an OpenAI-compatible
// Chat Completions endpoint.
package openai

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/flemzord/autoreply/internal/provider"
)

// Compile-time interface guard.
var _ provider.Provider = (*Provider)(nil)

// Provider sends one non-streaming chat completion per request.
type Provider struct {
	config Config
	logger *slog.Logger
	client *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets the client used for requests. The provider works on a
// copy carrying the configured timeout; c itself is left unchanged.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// New validates cfg and returns a ready provider. A missing API key yields
// an error wrapping provider.ErrNotConfigured.
func New(cfg Config, opts ...Option) (*Provider, error) {
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{config: cfg}
	for _, opt := range opts {
		opt(p)
	}
	// Copy so a caller-owned client keeps its own timeout.
	client := http.Client{}
	if p.client != nil {
		client = *p.client
	}
	client.Timeout = cfg.parsedTimeout()
	p.client = &client
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	p.logger = p.logger.With("component", "openai", "model", cfg.Model)

	return p, nil
}

// ModelName returns the configured model identifier.
func (p *Provider) ModelName() string {
	return p.config.Model
}

// String describes the endpoint without the credential.
func (p *Provider) String() string {
	return fmt.Sprintf("openai(%s @ %s)", p.config.Model, p.config.BaseURL)
}
