// Package app provides the shared entry point for the autoreply binary.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/flemzord/autoreply/internal/config"
)

// ErrNoConfig is returned by ResolveConfigPath when no file exists in any
// standard location.
var ErrNoConfig = errors.New("app: no configuration file found")

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is tried and the built-in defaults are
	// used when nothing is found.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// Tier overrides reply.tier when non-empty.
	Tier string

	// LogLevel overrides log.level when non-empty.
	LogLevel string

	// NoSimulate disables the demo producer regardless of configuration.
	NoSimulate bool

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (p *RunParams) defaults() {
	if p.Version == "" {
		p.Version = "dev"
	}
	if p.Stdin == nil {
		p.Stdin = os.Stdin
	}
	if p.Stdout == nil {
		p.Stdout = os.Stdout
	}
	if p.Stderr == nil {
		p.Stderr = os.Stderr
	}
}

// Run loads configuration, starts the session, and blocks until it ends:
// quit, end of input, SIGINT or SIGTERM.
func Run(params RunParams) error {
	params.defaults()

	cfg, err := LoadConfig(params)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := New(ctx, cfg, params)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}

// LoadConfig resolves, loads, overrides and validates the configuration.
func LoadConfig(params RunParams) (*config.Config, error) {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		switch {
		case errors.Is(err, ErrNoConfig):
		case err != nil:
			return nil, err
		default:
			cfgPath = resolved
		}
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if params.Tier != "" {
		cfg.Reply.Tier = params.Tier
	}
	if params.LogLevel != "" {
		cfg.Log.Level = params.LogLevel
	}
	if params.NoSimulate {
		cfg.Session.Simulate = false
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/autoreply/autoreply.yaml → ~/.config/autoreply/autoreply.yaml → ./autoreply.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "autoreply", "autoreply.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "autoreply", "autoreply.yaml"))
	}

	candidates = append(candidates, "autoreply.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w (searched: %v)", ErrNoConfig, candidates)
}
