package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// #region types

// RoleSettings configures one reasoning role.
type RoleSettings struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Config is the full service configuration. YAML gives the defaults,
// environment variables override secrets and endpoints.
type Config struct {
	APIBaseURL string `yaml:"api_base_url"`
	APIKey     string `yaml:"-"`

	DBPath       string `yaml:"db_path"`
	QuestionBank string `yaml:"question_bank"`

	MaxTurns    int `yaml:"max_turns"`
	MaxGaps     int `yaml:"max_gaps"`
	RegenBudget int `yaml:"regen_budget"`

	CallTimeoutSec int `yaml:"call_timeout_sec"`
	TurnTimeoutSec int `yaml:"turn_timeout_sec"`
	RetryCount     int `yaml:"retry_count"`
	RetryBackoffMs int `yaml:"retry_backoff_ms"`

	FactCheckEnabled bool `yaml:"fact_check_enabled"`

	Observer      RoleSettings `yaml:"observer"`
	Interviewer   RoleSettings `yaml:"interviewer"`
	Extractor     RoleSettings `yaml:"extractor"`
	HiringManager RoleSettings `yaml:"hiring_manager"`
	FactChecker   RoleSettings `yaml:"fact_checker"`
}

// CallTimeout is the per-completion HTTP timeout.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSec) * time.Second
}

// TurnTimeout bounds one full orchestrated turn across all role calls.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.TurnTimeoutSec) * time.Second
}

// RetryBackoff is the base pause between transport retries.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// #endregion

// #region load

// Default returns the configuration used when no YAML file is given.
func Default() *Config {
	return &Config{
		DBPath:         "coach.db",
		MaxTurns:       40,
		MaxGaps:        6,
		RegenBudget:    1,
		CallTimeoutSec: 120,
		TurnTimeoutSec: 300,
		RetryCount:     3,
		RetryBackoffMs: 500,
		Observer:       RoleSettings{Model: "gpt-4o", Temperature: 0.1, MaxTokens: 4000},
		Interviewer:    RoleSettings{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 2000},
		Extractor:      RoleSettings{Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 2000},
		HiringManager: RoleSettings{
			Model: "gpt-4o", Temperature: 0.3, MaxTokens: 4000,
		},
		FactChecker: RoleSettings{Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 1500},
	}
}

// Load builds the configuration: defaults, then the optional YAML file, then
// environment variables (.env is read if present).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[CONFIG] no .env file loaded: %v", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnv layers environment overrides on top of the file config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("COACH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("COACH_QUESTION_BANK"); v != "" {
		cfg.QuestionBank = v
	}
	if v := os.Getenv("COACH_MAX_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTurns = n
		}
	}
	if v := os.Getenv("COACH_MAX_GAPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxGaps = n
		}
	}
	if v := os.Getenv("COACH_CALL_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CallTimeoutSec = n
		}
	}
	if v := os.Getenv("COACH_TURN_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TurnTimeoutSec = n
		}
	}
	if v := os.Getenv("COACH_RETRY_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryCount = n
		}
	}
	if v := os.Getenv("COACH_RETRY_BACKOFF_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryBackoffMs = n
		}
	}
	if v := os.Getenv("COACH_FACT_CHECK"); v != "" {
		cfg.FactCheckEnabled = v == "1" || v == "true"
	}
}

func validate(cfg *Config) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if cfg.MaxTurns < 0 {
		return fmt.Errorf("max_turns must not be negative")
	}
	if cfg.MaxGaps < 0 {
		return fmt.Errorf("max_gaps must not be negative")
	}
	if cfg.RegenBudget < 0 {
		return fmt.Errorf("regen_budget must not be negative")
	}
	if cfg.CallTimeoutSec <= 0 {
		return fmt.Errorf("call_timeout_sec must be positive")
	}
	if cfg.TurnTimeoutSec <= 0 {
		return fmt.Errorf("turn_timeout_sec must be positive")
	}
	if cfg.RetryCount < 1 {
		return fmt.Errorf("retry_count must be at least 1")
	}
	if cfg.RetryBackoffMs < 0 {
		return fmt.Errorf("retry_backoff_ms must not be negative")
	}
	for name, rs := range map[string]RoleSettings{
		"observer":       cfg.Observer,
		"interviewer":    cfg.Interviewer,
		"extractor":      cfg.Extractor,
		"hiring_manager": cfg.HiringManager,
		"fact_checker":   cfg.FactChecker,
	} {
		if rs.Model == "" {
			return fmt.Errorf("%s.model must not be empty", name)
		}
		if rs.Temperature < 0 || rs.Temperature > 2 {
			return fmt.Errorf("%s.temperature %v out of range", name, rs.Temperature)
		}
	}
	return nil
}

// #endregion
