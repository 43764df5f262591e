package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.WindowSize != 250 {
		t.Errorf("expected default window_size 250, got %d", cfg.WindowSize)
	}
	if cfg.HistorySize != 5 {
		t.Errorf("expected default history_size 5, got %d", cfg.HistorySize)
	}
	if cfg.Temperature != 0.1 || cfg.MaxTokens != 2000 {
		t.Errorf("unexpected generation defaults: %v / %d", cfg.Temperature, cfg.MaxTokens)
	}
	if cfg.Session.TimeoutMinutes != 60 || cfg.Session.MaxSessions != 100 {
		t.Errorf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Audit.DBPath != "" {
		t.Errorf("expected in-memory audit db, got %q", cfg.Audit.DBPath)
	}
	if cfg.SessionTimeout() != time.Hour {
		t.Errorf("SessionTimeout() = %v", cfg.SessionTimeout())
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "livedoc.yml")

	original := DefaultConfig()
	original.Provider = ProviderOllama
	original.Model = "llama3:70b"
	original.WindowSize = 120
	original.Temperature = 0.3
	original.VerboseLLMLogging = true
	original.Server.Port = 9090
	original.Audit.DBPath = filepath.Join(dir, "audit.db")

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.WindowSize != original.WindowSize {
		t.Errorf("window_size: got %d, want %d", loaded.WindowSize, original.WindowSize)
	}
	if loaded.Temperature != original.Temperature {
		t.Errorf("temperature: got %f, want %f", loaded.Temperature, original.Temperature)
	}
	if !loaded.VerboseLLMLogging {
		t.Error("verbose_llm_logging not restored")
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("server.port: got %d, want 9090", loaded.Server.Port)
	}
	if loaded.Audit.DBPath != original.Audit.DBPath {
		t.Errorf("audit.db_path: got %q, want %q", loaded.Audit.DBPath, original.Audit.DBPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "livedoc.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("LIVEDOC_WINDOW_SIZE", "80")
	t.Setenv("LIVEDOC_SERVER__PORT", "9191")
	t.Setenv("LIVEDOC_SESSION__MAX_SESSIONS", "7")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.WindowSize != 80 {
		t.Errorf("window_size = %d, want 80", loaded.WindowSize)
	}
	if loaded.Server.Port != 9191 {
		t.Errorf("server.port = %d, want 9191", loaded.Server.Port)
	}
	if loaded.Session.MaxSessions != 7 {
		t.Errorf("session.max_sessions = %d, want 7", loaded.Session.MaxSessions)
	}
}

func TestLoadProviderSwitchPicksDefaultModel(t *testing.T) {
	t.Setenv("LIVEDOC_PROVIDER", "ollama")

	loaded, err := Load(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOllama || loaded.Model != "llama3" {
		t.Errorf("got %q / %q", loaded.Provider, loaded.Model)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("provider: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero window", func(c *Config) { c.WindowSize = 0 }},
		{"zero history", func(c *Config) { c.HistorySize = 0 }},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"negative rpm", func(c *Config) { c.RequestsPerMinute = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"zero timeout", func(c *Config) { c.Session.TimeoutMinutes = 0 }},
		{"zero max sessions", func(c *Config) { c.Session.MaxSessions = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8123
	if got := cfg.Addr(); got != "127.0.0.1:8123" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	for _, ok := range []string{"1", "8000", "65535"} {
		if err := validatePort(ok); err != nil {
			t.Errorf("validatePort(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "abc", "0", "65536"} {
		if err := validatePort(bad); err == nil {
			t.Errorf("validatePort(%q) succeeded", bad)
		}
	}
}
