package session

import (
	"path/filepath"
	"testing"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "coach.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := testStore(t)

	sess := New()
	sess.Difficulty = 3
	sess.MarkAsked("py_types_1")
	sess.MarkAsked("sql_join_1")
	sess.Profile = Profile{Name: "Анна", Level: contract.LevelMiddle, Position: "backend"}
	sess.Topics.CurrentTopic = "sql_joins"
	sess.Topics.LastTopics = []string{"python_types", "sql_joins"}
	sess.LastAction = contract.ActionAsk
	sess.AppendTurn(RoleInterviewer, "Что такое JOIN?", "sql_joins")
	sess.AppendTurn(RoleCandidate, "Это объединение таблиц", "sql_joins")
	sess.Transition(PhaseAsk)
	sess.Transition(PhaseAwaitAnswer)

	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Phase != PhaseAwaitAnswer {
		t.Fatalf("phase lost: %s", loaded.Phase)
	}
	if loaded.Difficulty != 3 {
		t.Fatalf("difficulty lost: %d", loaded.Difficulty)
	}
	if loaded.TurnID != 2 {
		t.Fatalf("turn id lost: %d", loaded.TurnID)
	}
	if !loaded.WasAsked("py_types_1") || !loaded.WasAsked("sql_join_1") {
		t.Fatalf("asked set lost: %v", loaded.AskedQuestions())
	}
	if loaded.Profile.Name != "Анна" || loaded.Profile.Level != contract.LevelMiddle {
		t.Fatalf("profile lost: %+v", loaded.Profile)
	}
	if loaded.Topics.CurrentTopic != "sql_joins" {
		t.Fatalf("topic state lost: %+v", loaded.Topics)
	}
	tail := loaded.HistoryTail()
	if len(tail) != 2 {
		t.Fatalf("turns lost: %d", len(tail))
	}
	if tail[0].Role != RoleInterviewer || tail[1].Role != RoleCandidate {
		t.Fatalf("turn order wrong: %s %s", tail[0].Role, tail[1].Role)
	}
}

func TestStoreSaveTwiceAppendsOnlyNewTurns(t *testing.T) {
	store := testStore(t)

	sess := New()
	sess.AppendTurn(RoleInterviewer, "вопрос один", "")
	if err := store.Save(sess); err != nil {
		t.Fatalf("first save: %v", err)
	}
	sess.AppendTurn(RoleCandidate, "ответ один", "")
	if err := store.Save(sess); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := len(loaded.HistoryTail()); got != 2 {
		t.Fatalf("expected 2 stored turns, got %d", got)
	}
}

func TestStoreTerminatedRoundTrip(t *testing.T) {
	store := testStore(t)

	sess := New()
	sess.Terminate(OutcomeAbandoned)
	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Terminated() {
		t.Fatal("terminated flag lost")
	}
	if loaded.Outcome != OutcomeAbandoned {
		t.Fatalf("outcome lost: %s", loaded.Outcome)
	}
	if err := loaded.AppendTurn(RoleCandidate, "ещё", ""); err == nil {
		t.Fatal("loaded terminated session accepted a turn")
	}
}

func TestListSessions(t *testing.T) {
	store := testStore(t)

	a := New()
	b := New()
	if err := store.Save(a); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := store.Save(b); err != nil {
		t.Fatalf("save b: %v", err)
	}

	infos, err := store.ListSessions(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(infos))
	}
}
