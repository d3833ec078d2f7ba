package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/flemzord/autoreply/modules/provider/openai"
)

// APIKey returns the remote credential: the literal api_key when set,
// otherwise the value of the api_key_env variable.
func (c *Config) APIKey() string {
	if k := strings.TrimSpace(c.Reply.Remote.APIKey); k != "" {
		return k
	}
	if c.Reply.Remote.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.Reply.Remote.APIKeyEnv))
}

// RemoteEnabled reports whether the remote tier should be wired: the tier
// is "remote" and a credential resolves.
func (c *Config) RemoteEnabled() bool {
	return c.Reply.Tier == TierRemote && c.APIKey() != ""
}

// EffectiveTier is the tier the pipeline will actually start at.
func (c *Config) EffectiveTier() string {
	if c.RemoteEnabled() {
		return TierRemote
	}
	return TierLocal
}

// OpenAI converts the remote section into the provider's configuration.
func (c *Config) OpenAI() openai.Config {
	r := c.Reply.Remote
	temp := r.Temperature
	oc := openai.Config{
		APIKey:      c.APIKey(),
		Model:       r.Model,
		BaseURL:     r.BaseURL,
		MaxTokens:   r.MaxTokens,
		Temperature: &temp,
	}
	if r.Timeout > 0 {
		oc.Timeout = r.Timeout.String()
	}
	return oc
}

// SlogLevel parses the log level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
