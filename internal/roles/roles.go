package roles

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
)

// #region config

// RoleConfig carries per-role model settings. RegenBudget is how many extra
// completions a schema violation may buy before the adapter degrades.
type RoleConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	RegenBudget int
}

// DefaultRoleConfig fills an unset config with production defaults.
func DefaultRoleConfig(cfg RoleConfig) RoleConfig {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.RegenBudget == 0 {
		cfg.RegenBudget = 1
	}
	return cfg
}

// #endregion

// #region generation

const regenNudge = "\n\nПредыдущий ответ нарушил схему: %s. Верни строго один валидный JSON-объект по схеме, без текста вне JSON."

// completeJSON runs one role call with regeneration. accept parses and
// validates the raw model text; a SchemaViolation from it re-prompts with the
// violation appended, any other error aborts. The returned error is non-nil
// only when the call must degrade.
func completeJSON(ctx context.Context, c Completer, cfg RoleConfig, role, system, user string, accept func(raw string) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.RegenBudget; attempt++ {
		prompt := user
		if attempt > 0 {
			prompt = user + fmt.Sprintf(regenNudge, lastErr)
			log.Printf("[ROLES] role=%s regeneration attempt=%d cause=%v", role, attempt, lastErr)
		}
		raw, err := c.Complete(ctx, Request{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			System:      system,
			User:        prompt,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s transport: %w", role, err)
		}
		err = accept(raw)
		if err == nil {
			return nil
		}
		var sv *contract.SchemaViolation
		if !errors.As(err, &sv) {
			return fmt.Errorf("%s output: %w", role, err)
		}
		lastErr = err
	}
	return fmt.Errorf("%s schema budget exhausted: %w", role, lastErr)
}

// #endregion
