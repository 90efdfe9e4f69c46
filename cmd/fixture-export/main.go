package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/replay"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/transcript"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to coach.db")
	sessionID := flag.String("session", "", "session to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *sessionID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/coach.db --session id --out path/to/fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion

// #region export

// run pairs each recorded candidate answer with the Observer payload that
// followed it, producing a fixture the replay harness can drive through the
// real policy.
func run(dbPath, sessionID, outPath string) error {
	store, err := session.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.Load(sessionID)
	if err != nil {
		return err
	}
	ts, err := transcript.NewStore(store.DB())
	if err != nil {
		return err
	}
	entries, err := ts.Load(sessionID)
	if err != nil {
		return err
	}

	fixture := replay.Fixture{
		Description: fmt.Sprintf("exported from session %s", sessionID),
		Start: replay.FixtureStart{
			Difficulty: sess.Difficulty,
			Topic:      sess.Topics.CurrentTopic,
		},
	}

	var pendingAnswer string
	var havePending bool
	for _, e := range entries {
		switch e.Kind {
		case transcript.KindMessage:
			if e.Role == string(session.RoleCandidate) {
				pendingAnswer = e.Content
				havePending = true
			}
		case transcript.KindObserver:
			if !havePending {
				continue
			}
			fixture.Turns = append(fixture.Turns, replay.FixtureTurn{
				TurnID:   fmt.Sprintf("t%d", len(fixture.Turns)+1),
				Answer:   pendingAnswer,
				Observer: json.RawMessage(e.Content),
			})
			havePending = false
		}
	}
	if len(fixture.Turns) == 0 {
		return fmt.Errorf("session %s has no recorded observer turns", sessionID)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fixture); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	fmt.Printf("Exported %d turns to %s\n", len(fixture.Turns), outPath)
	return nil
}

// #endregion
