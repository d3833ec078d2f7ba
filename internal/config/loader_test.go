package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autoreply.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Full(t *testing.T) {
	t.Setenv("AUTOREPLY_TEST_KEY", "sk-from-env")

	path := writeConfig(t, `
version: "1"
reply:
  tier: remote
  remote:
    base_url: http://localhost:9999/v1
    api_key: ${AUTOREPLY_TEST_KEY}
    model: gpt-4o-mini
    max_tokens: 200
    temperature: 0.3
    timeout: 5s
character:
  personality: 冷静
session:
  auto_reply: false
  simulate: false
  simulate_interval: 1s
  think_min: 0s
  think_max: 100ms
  seed: 7
gateway:
  bind: 127.0.0.1:8080
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	r := cfg.Reply.Remote
	if cfg.Reply.Tier != TierRemote || r.APIKey != "sk-from-env" || r.Model != "gpt-4o-mini" {
		t.Errorf("reply = %+v", cfg.Reply)
	}
	if r.Timeout != 5*time.Second || r.MaxTokens != 200 || r.Temperature != 0.3 {
		t.Errorf("remote = %+v", r)
	}
	if cfg.Character.Personality != "冷静" {
		t.Errorf("personality = %q", cfg.Character.Personality)
	}
	// Omitted keys keep their defaults.
	if cfg.Character.Language != "中文" {
		t.Errorf("language = %q, want default", cfg.Character.Language)
	}
	s := cfg.Session
	if s.AutoReply || s.Simulate || s.SimulateInterval != time.Second || s.ThinkMax != 100*time.Millisecond || s.Seed != 7 {
		t.Errorf("session = %+v", s)
	}
	if cfg.Gateway.Bind != "127.0.0.1:8080" || cfg.Log.Level != "debug" {
		t.Errorf("gateway/log = %+v / %+v", cfg.Gateway, cfg.Log)
	}
}

func TestLoad_MinimalKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "version: \"1\"\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	def := Default()
	if cfg.Reply != def.Reply || cfg.Session != def.Session || cfg.Character != def.Character {
		t.Errorf("minimal config drifted from defaults:\n got %+v\nwant %+v", cfg, def)
	}
}

func TestLoad_DefaultExpansion(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
version: "1"
reply:
  remote:
    api_key: ${AUTOREPLY_SURELY_UNSET_VAR:-}
    model: ${AUTOREPLY_SURELY_UNSET_MODEL:-gpt-4o}
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Reply.Remote.APIKey != "" || cfg.Reply.Remote.Model != "gpt-4o" {
		t.Errorf("remote = %+v", cfg.Reply.Remote)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unresolved", "version: ${AUTOREPLY_SURELY_UNSET_VERSION}\n", "unresolved variable: AUTOREPLY_SURELY_UNSET_VERSION"},
		{"unknown_key", "version: \"1\"\nbogus: true\n", "bogus"},
		{"bad_yaml", "version: [\n", "parsing"},
		{"bad_duration", "session:\n  think_min: soon\n", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading") {
		t.Errorf("Load() = %v, want read error", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Version != "1" {
		t.Errorf("Version = %q, want default", cfg.Version)
	}
}
