package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/report"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/skills"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/transcript"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to coach.db")
	sessionID := flag.String("session", "", "show one session in detail")
	last := flag.Int("last", 20, "list N most recent sessions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/coach.db [--session id] [--last N] [--json]")
		os.Exit(2)
	}

	store, err := session.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *sessionID == "" {
		err = listSessions(store, *last, *jsonOut)
	} else {
		err = showSession(store, *sessionID, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion

// #region list

func listSessions(store *session.Store, last int, jsonOut bool) error {
	infos, err := store.ListSessions(last)
	if err != nil {
		return err
	}
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	if len(infos) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	fmt.Printf("%-36s  %-14s  %-10s  %-5s  %s\n", "SESSION", "PHASE", "OUTCOME", "TURNS", "UPDATED")
	for _, info := range infos {
		fmt.Printf("%-36s  %-14s  %-10s  %-5d  %s\n",
			info.ID, info.Phase, info.Outcome, info.TurnID, info.UpdatedAt)
	}
	return nil
}

// #endregion

// #region show

func showSession(store *session.Store, sessionID string, jsonOut bool) error {
	sess, err := store.Load(sessionID)
	if err != nil {
		return err
	}
	skillStore, err := skills.NewEventStore(store.DB())
	if err != nil {
		return err
	}
	matrix, err := skillStore.Load(sessionID)
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
	fb, hasFeedback, err := ts.Feedback(sessionID)
	if err != nil {
		return err
	}

	if jsonOut {
		out := map[string]interface{}{
			"session_id": sess.ID,
			"phase":      sess.Phase,
			"outcome":    sess.Outcome,
			"difficulty": sess.Difficulty,
			"turn_id":    sess.TurnID,
			"profile":    sess.Profile,
			"skills":     matrix.Entries(),
			"transcript": entries,
		}
		if hasFeedback {
			out["final_feedback"] = fb
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Session %s\n", sess.ID)
	fmt.Printf("  phase=%s outcome=%s difficulty=%d turns=%d\n",
		sess.Phase, sess.Outcome, sess.Difficulty, sess.TurnID)
	fmt.Printf("  candidate: %s (%s, %s)\n\n", sess.Profile.Name, sess.Profile.Level, sess.Profile.Position)

	confirmed, gaps, uncertain := matrix.Counts()
	fmt.Printf("Skill matrix (confirmed=%d gaps=%d uncertain=%d):\n", confirmed, gaps, uncertain)
	for _, e := range matrix.Entries() {
		fmt.Printf("  %-24s %s\n", e.Topic, e.Status)
	}

	fmt.Println("\nTranscript:")
	for _, e := range entries {
		switch e.Kind {
		case transcript.KindMessage:
			fmt.Printf("  [%3d] %-12s %s\n", e.Idx, e.Role+":", e.Content)
		case transcript.KindNote:
			fmt.Printf("  [%3d] note:        %s\n", e.Idx, e.Content)
		case transcript.KindDecision:
			fmt.Printf("  [%3d] decision:    %s\n", e.Idx, e.Content)
		case transcript.KindObserver:
			fmt.Printf("  [%3d] observer:    %s\n", e.Idx, e.Content)
		}
	}

	if hasFeedback {
		fmt.Println()
		fmt.Print(report.Render(fb))
	}
	return nil
}

// #endregion
