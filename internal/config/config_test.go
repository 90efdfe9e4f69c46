package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	if err := validate(Default()); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
db_path: custom.db
max_turns: 20
fact_check_enabled: true
interviewer:
  model: gpt-4o-mini
  temperature: 0.5
  max_tokens: 1000
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "custom.db" || cfg.MaxTurns != 20 {
		t.Fatalf("yaml values lost: %+v", cfg)
	}
	if !cfg.FactCheckEnabled {
		t.Fatal("fact_check_enabled not applied")
	}
	if cfg.Interviewer.Model != "gpt-4o-mini" {
		t.Fatalf("role override lost: %+v", cfg.Interviewer)
	}
	// Untouched sections keep their defaults.
	if cfg.Observer.Model != "gpt-4o" {
		t.Fatalf("observer default lost: %+v", cfg.Observer)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COACH_DB_PATH", "/tmp/env.db")
	t.Setenv("COACH_MAX_TURNS", "15")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-test" {
		t.Fatal("api key not taken from environment")
	}
	if cfg.DBPath != "/tmp/env.db" || cfg.MaxTurns != 15 {
		t.Fatalf("env overrides lost: %+v", cfg)
	}
}

func TestTransportSettings(t *testing.T) {
	cfg := Default()
	if cfg.CallTimeout() != 120*time.Second || cfg.TurnTimeout() != 300*time.Second {
		t.Fatalf("default timeouts wrong: call=%s turn=%s", cfg.CallTimeout(), cfg.TurnTimeout())
	}
	if cfg.RetryCount != 3 || cfg.RetryBackoff() != 500*time.Millisecond {
		t.Fatalf("default retry settings wrong: count=%d backoff=%s", cfg.RetryCount, cfg.RetryBackoff())
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
call_timeout_sec: 30
turn_timeout_sec: 90
retry_count: 5
retry_backoff_ms: 100
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("COACH_RETRY_COUNT", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CallTimeout() != 30*time.Second || cfg.TurnTimeout() != 90*time.Second {
		t.Fatalf("yaml timeouts lost: call=%s turn=%s", cfg.CallTimeout(), cfg.TurnTimeout())
	}
	if cfg.RetryBackoff() != 100*time.Millisecond {
		t.Fatalf("yaml backoff lost: %s", cfg.RetryBackoff())
	}
	// Environment wins over the file.
	if cfg.RetryCount != 2 {
		t.Fatalf("env retry_count lost: %d", cfg.RetryCount)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.MaxTurns = -1
	if err := validate(cfg); err == nil || !strings.Contains(err.Error(), "max_turns") {
		t.Fatalf("expected max_turns error, got %v", err)
	}

	cfg = Default()
	cfg.Observer.Temperature = 3
	if err := validate(cfg); err == nil || !strings.Contains(err.Error(), "temperature") {
		t.Fatalf("expected temperature error, got %v", err)
	}

	cfg = Default()
	cfg.Extractor.Model = ""
	if err := validate(cfg); err == nil || !strings.Contains(err.Error(), "model") {
		t.Fatalf("expected model error, got %v", err)
	}

	cfg = Default()
	cfg.CallTimeoutSec = 0
	if err := validate(cfg); err == nil || !strings.Contains(err.Error(), "call_timeout_sec") {
		t.Fatalf("expected call_timeout_sec error, got %v", err)
	}

	cfg = Default()
	cfg.RetryCount = 0
	if err := validate(cfg); err == nil || !strings.Contains(err.Error(), "retry_count") {
		t.Fatalf("expected retry_count error, got %v", err)
	}
}
