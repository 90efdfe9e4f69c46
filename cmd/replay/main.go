package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/policy"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	bankPath := flag.String("bank", "", "path to question bank YAML (optional)")
	jsonOut := flag.Bool("json", false, "output results as JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--bank bank.yaml] [--json]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	bank := policy.DefaultBank()
	if *bankPath != "" {
		bank, err = policy.LoadBank(*bankPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	results, summary := replay.Replay(fixture, bank)

	if *jsonOut {
		out := struct {
			Results []replay.Result `json:"results"`
			Summary replay.Summary  `json:"summary"`
		}{results, summary}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		printResults(fixture, results, summary)
	}

	if len(summary.Mismatches) > 0 {
		os.Exit(1)
	}
}

// #endregion

// #region output

func printResults(f *replay.Fixture, results []replay.Result, summary replay.Summary) {
	if f.Description != "" {
		fmt.Printf("Fixture: %s\n\n", f.Description)
	}
	for _, r := range results {
		if r.SchemaErr != "" {
			fmt.Printf("%-8s SCHEMA VIOLATION  %s\n", r.TurnID, r.SchemaErr)
			continue
		}
		terminal := ""
		if r.Terminal {
			terminal = "  [terminal]"
		}
		fmt.Printf("%-8s %-18s topic=%-20s difficulty=%d  reason=%s%s\n",
			r.TurnID, r.Action, r.Topic, r.Difficulty, r.Reason, terminal)
	}

	fmt.Printf("\nTurns: %d  confirmed=%d gaps=%d uncertain=%d\n",
		summary.TotalTurns, summary.Confirmed, summary.Gaps, summary.Uncertain)
	if len(summary.Mismatches) == 0 {
		fmt.Println("All expectations met.")
		return
	}
	fmt.Printf("Mismatches (%d):\n", len(summary.Mismatches))
	for _, m := range summary.Mismatches {
		fmt.Printf("  %s\n", m)
	}
}

// #endregion
