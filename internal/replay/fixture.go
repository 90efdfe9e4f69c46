package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is a recorded interview segment: candidate answers paired with the
// Observer outputs captured for them. Replaying one exercises the real
// policy and state machine with zero model calls.
type Fixture struct {
	Description string            `json:"description"`
	Start       FixtureStart      `json:"start"`
	Turns       []FixtureTurn     `json:"turns"`
	Expected    []ExpectedOutcome `json:"expected_results"`
}

// FixtureStart seeds the session before the first replayed turn.
type FixtureStart struct {
	Difficulty int    `json:"difficulty"`
	Topic      string `json:"topic"`
	MaxTurns   int    `json:"max_turns"`
	MaxGaps    int    `json:"max_gaps"`
}

// FixtureTurn is one recorded candidate turn. Observer holds the raw role
// payload exactly as captured; it goes through contract validation on replay.
type FixtureTurn struct {
	TurnID   string          `json:"turn_id"`
	Answer   string          `json:"answer"`
	Observer json.RawMessage `json:"observer"`
}

// ExpectedOutcome captures the decision a replayed turn must resolve to.
type ExpectedOutcome struct {
	TurnID     string `json:"turn_id"`
	Action     string `json:"action"`
	Topic      string `json:"topic,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
}

// #endregion

// #region loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Turns) == 0 {
		return nil, fmt.Errorf("fixture %s has no turns", path)
	}
	seen := make(map[string]bool)
	for i, t := range f.Turns {
		if t.TurnID == "" {
			return nil, fmt.Errorf("fixture %s: turn %d has no turn_id", path, i)
		}
		if seen[t.TurnID] {
			return nil, fmt.Errorf("fixture %s: duplicate turn_id %s", path, t.TurnID)
		}
		seen[t.TurnID] = true
		if len(t.Observer) == 0 {
			return nil, fmt.Errorf("fixture %s: turn %s has no observer payload", path, t.TurnID)
		}
	}
	for _, e := range f.Expected {
		if !seen[e.TurnID] {
			return nil, fmt.Errorf("fixture %s: expected result for unknown turn %s", path, e.TurnID)
		}
	}
	return &f, nil
}

// #endregion
