// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for autoreply.
package config

import (
	"time"

	"github.com/flemzord/autoreply/internal/prompt"
)

// Reply tiers selectable in configuration.
const (
	TierRemote = "remote"
	TierLocal  = "local"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Reply     ReplyConfig             `yaml:"reply"`
	Character prompt.CharacterProfile `yaml:"character"`
	Session   SessionConfig           `yaml:"session"`
	Gateway   GatewayConfig           `yaml:"gateway"`
	Tracing   TracingConfig           `yaml:"tracing"`
	Log       LogConfig               `yaml:"log"`
}

// ReplyConfig selects the first tier the pipeline tries.
type ReplyConfig struct {
	// Tier is "remote" or "local". Remote degrades to local when no
	// credential resolves.
	Tier   string       `yaml:"tier"`
	Remote RemoteConfig `yaml:"remote"`
}

// RemoteConfig describes the OpenAI-compatible endpoint.
type RemoteConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	// APIKeyEnv names an environment variable read when APIKey is empty.
	APIKeyEnv   string        `yaml:"api_key_env"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SessionConfig controls the console session.
type SessionConfig struct {
	AutoReply        bool          `yaml:"auto_reply"`
	Simulate         bool          `yaml:"simulate"`
	SimulateInterval time.Duration `yaml:"simulate_interval"`
	ThinkMin         time.Duration `yaml:"think_min"`
	ThinkMax         time.Duration `yaml:"think_max"`

	// Seed makes randomness reproducible. Zero seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

// GatewayConfig enables the read-only HTTP surface when Bind is set.
type GatewayConfig struct {
	Bind string `yaml:"bind"`
}

// TracingConfig selects the span exporter. An empty endpoint discards spans.
type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a complete configuration using the local tier.
func Default() *Config {
	return &Config{
		Version: "1",
		Reply: ReplyConfig{
			Tier: TierLocal,
			Remote: RemoteConfig{
				BaseURL:     "https://api.openai.com/v1",
				APIKeyEnv:   "OPENAI_API_KEY",
				Model:       "gpt-3.5-turbo",
				MaxTokens:   500,
				Temperature: 0.8,
				Timeout:     30 * time.Second,
			},
		},
		Character: prompt.DefaultProfile(),
		Session: SessionConfig{
			AutoReply:        true,
			Simulate:         true,
			SimulateInterval: 2 * time.Second,
			ThinkMin:         500 * time.Millisecond,
			ThinkMax:         2 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}
