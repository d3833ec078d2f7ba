package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
)

// Validate checks the structural validity of a Config and reports every
// problem at once.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateReply(&cfg.Reply)...)
	errs = append(errs, validateSession(&cfg.Session)...)

	if cfg.Gateway.Bind != "" {
		if _, _, err := net.SplitHostPort(cfg.Gateway.Bind); err != nil {
			errs = append(errs, fmt.Errorf("config: gateway.bind %q: %w", cfg.Gateway.Bind, err))
		}
	}

	if cfg.Tracing.Endpoint != "" {
		if u, err := url.Parse(cfg.Tracing.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("config: tracing.endpoint %q must be an absolute URL", cfg.Tracing.Endpoint))
		}
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("config: log.level %q: want debug, info, warn or error", cfg.Log.Level))
	}

	return errors.Join(errs...)
}

func validateReply(r *ReplyConfig) []error {
	var errs []error

	switch r.Tier {
	case TierRemote, TierLocal:
	default:
		errs = append(errs, fmt.Errorf("config: reply.tier %q: want %q or %q", r.Tier, TierRemote, TierLocal))
	}

	// The remote section is checked even for the local tier so a later
	// switch does not surface stale mistakes.
	rem := r.Remote
	if u, err := url.Parse(rem.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("config: reply.remote.base_url %q must be an absolute URL", rem.BaseURL))
	}
	if rem.Model == "" {
		errs = append(errs, errors.New("config: reply.remote.model is required"))
	}
	if rem.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("config: reply.remote.max_tokens must be positive, got %d", rem.MaxTokens))
	}
	if rem.Temperature < 0 || rem.Temperature > 2 {
		errs = append(errs, fmt.Errorf("config: reply.remote.temperature %.2f out of range [0, 2]", rem.Temperature))
	}
	if rem.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("config: reply.remote.timeout must be positive, got %s", rem.Timeout))
	}
	return errs
}

func validateSession(s *SessionConfig) []error {
	var errs []error
	if s.SimulateInterval <= 0 {
		errs = append(errs, fmt.Errorf("config: session.simulate_interval must be positive, got %s", s.SimulateInterval))
	}
	if s.ThinkMin < 0 {
		errs = append(errs, fmt.Errorf("config: session.think_min must not be negative, got %s", s.ThinkMin))
	}
	if s.ThinkMax < s.ThinkMin {
		errs = append(errs, fmt.Errorf("config: session.think_max (%s) is below think_min (%s)", s.ThinkMax, s.ThinkMin))
	}
	return errs
}
