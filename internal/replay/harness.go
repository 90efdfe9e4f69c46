package replay

import (
	"fmt"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/policy"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region result-types

// Result captures what one replayed turn resolved to.
type Result struct {
	TurnID     string
	Action     contract.ActionType
	Topic      string
	Difficulty int
	Reason     string
	Terminal   bool
	SchemaErr  string
}

// Summary aggregates a full replay run.
type Summary struct {
	TotalTurns int
	Terminal   bool
	Confirmed  int
	Gaps       int
	Uncertain  int
	Mismatches []string
}

// #endregion

// #region replay

// Replay drives the recorded turns through the real policy against a fresh
// session. A turn whose Observer payload fails contract validation is
// recorded and skipped, mirroring the degraded path in production minus the
// regeneration. The run stops at the first terminal decision.
func Replay(f *Fixture, bank *policy.Bank) ([]Result, Summary) {
	sess := session.New()
	if f.Start.Difficulty != 0 {
		sess.Difficulty = session.ClampDifficulty(f.Start.Difficulty)
	}
	if f.Start.Topic != "" {
		sess.Topics.CurrentTopic = f.Start.Topic
		sess.Topics.LastTopics = append(sess.Topics.LastTopics, f.Start.Topic)
	}

	limits := policy.DefaultLimits()
	if f.Start.MaxTurns != 0 {
		limits.MaxTurns = f.Start.MaxTurns
	}
	if f.Start.MaxGaps != 0 {
		limits.MaxGaps = f.Start.MaxGaps
	}

	results := make([]Result, 0, len(f.Turns))
	terminal := false
	for _, turn := range f.Turns {
		if terminal {
			break
		}
		obs, err := contract.ValidateObserver(turn.Observer)
		if err != nil {
			results = append(results, Result{TurnID: turn.TurnID, SchemaErr: err.Error()})
			continue
		}
		sess.TurnID++
		d := policy.Resolve(sess, obs, turn.Answer, bank, limits)
		results = append(results, Result{
			TurnID:     turn.TurnID,
			Action:     d.Action,
			Topic:      d.Topic,
			Difficulty: d.Difficulty,
			Reason:     d.Reason,
			Terminal:   d.Terminal(),
		})
		terminal = d.Terminal()
	}

	confirmed, gaps, uncertain := sess.Skills.Counts()
	summary := Summary{
		TotalTurns: len(results),
		Terminal:   terminal,
		Confirmed:  confirmed,
		Gaps:       gaps,
		Uncertain:  uncertain,
		Mismatches: checkExpected(f.Expected, results),
	}
	return results, summary
}

// checkExpected compares results against the fixture's expectations.
func checkExpected(expected []ExpectedOutcome, results []Result) []string {
	byID := make(map[string]Result, len(results))
	for _, r := range results {
		byID[r.TurnID] = r
	}
	var mismatches []string
	for _, e := range expected {
		r, ok := byID[e.TurnID]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("turn %s: not reached", e.TurnID))
			continue
		}
		if r.SchemaErr != "" {
			mismatches = append(mismatches, fmt.Sprintf("turn %s: schema violation: %s", e.TurnID, r.SchemaErr))
			continue
		}
		if string(r.Action) != e.Action {
			mismatches = append(mismatches, fmt.Sprintf("turn %s: action %s, want %s", e.TurnID, r.Action, e.Action))
		}
		if e.Topic != "" && r.Topic != e.Topic {
			mismatches = append(mismatches, fmt.Sprintf("turn %s: topic %s, want %s", e.TurnID, r.Topic, e.Topic))
		}
		if e.Difficulty != 0 && r.Difficulty != e.Difficulty {
			mismatches = append(mismatches, fmt.Sprintf("turn %s: difficulty %d, want %d", e.TurnID, r.Difficulty, e.Difficulty))
		}
	}
	return mismatches
}

// #endregion
