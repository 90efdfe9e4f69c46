package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/policy"
)

// #region helpers

func observerPayload(t *testing.T, correctness, confidence string, delta int, nextType, nextTopic string, updates ...contract.SkillUpdate) json.RawMessage {
	t.Helper()
	out := contract.ObserverOutput{
		Summary:         "записанный разбор",
		AnswerQuality:   contract.AnswerQuality{Correctness: correctness, Confidence: confidence},
		SkillUpdates:    updates,
		DifficultyDelta: delta,
		NextAction: contract.NextAction{
			Type:  contract.ActionType(nextType),
			Topic: nextTopic,
		},
	}
	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal observer: %v", err)
	}
	return raw
}

func writeFixture(t *testing.T, f *Fixture) string {
	t.Helper()
	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// #endregion

// #region loader

func TestLoadFixtureRejectsEmptyTurns(t *testing.T) {
	path := writeFixture(t, &Fixture{Description: "пустая запись"})
	if _, err := LoadFixture(path); err == nil || !strings.Contains(err.Error(), "no turns") {
		t.Fatalf("expected no-turns error, got %v", err)
	}
}

func TestLoadFixtureRejectsDuplicateTurnIDs(t *testing.T) {
	obs := observerPayload(t, "correct", "high", 0, "ask", "")
	path := writeFixture(t, &Fixture{
		Turns: []FixtureTurn{
			{TurnID: "t1", Answer: "ответ", Observer: obs},
			{TurnID: "t1", Answer: "ещё ответ", Observer: obs},
		},
	})
	if _, err := LoadFixture(path); err == nil || !strings.Contains(err.Error(), "duplicate turn_id") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLoadFixtureRejectsUnknownExpectedTurn(t *testing.T) {
	path := writeFixture(t, &Fixture{
		Turns: []FixtureTurn{
			{TurnID: "t1", Answer: "ответ", Observer: observerPayload(t, "correct", "high", 0, "ask", "")},
		},
		Expected: []ExpectedOutcome{{TurnID: "t9", Action: "ask"}},
	})
	if _, err := LoadFixture(path); err == nil || !strings.Contains(err.Error(), "unknown turn") {
		t.Fatalf("expected unknown-turn error, got %v", err)
	}
}

func TestLoadFixtureRoundTrip(t *testing.T) {
	path := writeFixture(t, &Fixture{
		Description: "один ход",
		Start:       FixtureStart{Difficulty: 2, Topic: "sql_joins"},
		Turns: []FixtureTurn{
			{TurnID: "t1", Answer: "JOIN объединяет таблицы", Observer: observerPayload(t, "correct", "high", 0, "ask", "")},
		},
	})
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Start.Topic != "sql_joins" || len(f.Turns) != 1 {
		t.Fatalf("fixture mangled: %+v", f)
	}
}

// #endregion

// #region replay

func TestReplayResolvesRecordedTurns(t *testing.T) {
	f := &Fixture{
		Start: FixtureStart{Difficulty: 2, Topic: "sql_joins"},
		Turns: []FixtureTurn{
			{
				TurnID: "t1",
				Answer: "JOIN объединяет строки двух таблиц по условию",
				Observer: observerPayload(t, "correct", "high", 1, "ask", "",
					contract.SkillUpdate{Topic: "sql_joins", Status: contract.StatusConfirmed, Evidence: "назвал типы JOIN"}),
			},
			{
				TurnID:   "t2",
				Answer:   "не знаю, что такое индекс",
				Observer: observerPayload(t, "wrong", "low", -1, "clarify", ""),
			},
		},
		Expected: []ExpectedOutcome{
			{TurnID: "t1", Action: "ask", Difficulty: 3},
			{TurnID: "t2", Action: "simplify"},
		},
	}

	results, summary := Replay(f, policy.DefaultBank())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Action != contract.ActionAsk {
		t.Fatalf("turn 1 resolved to %s", results[0].Action)
	}
	if results[0].Topic == "sql_joins" {
		t.Fatal("confirmed topic must not be re-selected")
	}
	if results[1].Action != contract.ActionSimplify {
		t.Fatalf("wrong answer must simplify, got %s", results[1].Action)
	}
	if summary.Confirmed != 1 || summary.Gaps != 0 {
		t.Fatalf("matrix counts wrong: %+v", summary)
	}
	if len(summary.Mismatches) != 0 {
		t.Fatalf("unexpected mismatches: %v", summary.Mismatches)
	}
}

func TestReplayStopsAtTerminalDecision(t *testing.T) {
	obs := observerPayload(t, "correct", "high", 0, "ask", "")
	f := &Fixture{
		Turns: []FixtureTurn{
			{TurnID: "t1", Answer: "стоп интервью", Observer: obs},
			{TurnID: "t2", Answer: "этот ход не должен выполниться", Observer: obs},
		},
	}
	results, summary := Replay(f, policy.DefaultBank())
	if len(results) != 1 {
		t.Fatalf("replay must stop at the terminal turn, got %d results", len(results))
	}
	if !results[0].Terminal || results[0].Reason != "stop_intent" {
		t.Fatalf("terminal turn wrong: %+v", results[0])
	}
	if !summary.Terminal {
		t.Fatal("summary must flag the terminal run")
	}
}

func TestReplayRecordsSchemaViolations(t *testing.T) {
	f := &Fixture{
		Turns: []FixtureTurn{
			{TurnID: "t1", Answer: "ответ", Observer: json.RawMessage(`{"oops": true}`)},
			{TurnID: "t2", Answer: "нормальный ответ", Observer: observerPayload(t, "correct", "high", 0, "ask", "")},
		},
		Expected: []ExpectedOutcome{{TurnID: "t1", Action: "ask"}},
	}
	results, summary := Replay(f, policy.DefaultBank())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].SchemaErr == "" {
		t.Fatal("broken payload must record a schema violation")
	}
	if results[1].Action != contract.ActionAsk {
		t.Fatalf("valid turn after a broken one must still resolve: %+v", results[1])
	}
	if len(summary.Mismatches) != 1 || !strings.Contains(summary.Mismatches[0], "schema violation") {
		t.Fatalf("mismatch report wrong: %v", summary.Mismatches)
	}
}

// #endregion
