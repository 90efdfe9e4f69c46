package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/config"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/orchestrator"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/policy"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/roles"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/websearch"
)

// #region main

func main() {
	cfgPath := flag.String("config", "", "path to config YAML (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	store, err := session.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	bank := policy.DefaultBank()
	if cfg.QuestionBank != "" {
		bank, err = policy.LoadBank(cfg.QuestionBank)
		if err != nil {
			log.Fatalf("failed to load question bank: %v", err)
		}
	}

	client := roles.NewClientWith(cfg.APIBaseURL, cfg.APIKey, roles.Options{
		Timeout: cfg.CallTimeout(),
		Tries:   cfg.RetryCount,
		Backoff: cfg.RetryBackoff(),
	})
	factChecker := roles.NewFactChecker(client, roleConfig(cfg.FactChecker, cfg.RegenBudget))
	if wsCfg := websearch.DefaultConfig(); wsCfg.Enabled {
		factChecker = factChecker.WithSearch(websearch.NewSearcher(wsCfg))
		log.Printf("[MAIN] fact-check web search enabled endpoint=%s", wsCfg.Endpoint)
	}
	engine, err := orchestrator.NewEngine(store, orchestrator.Roles{
		Observer:      roles.NewObserver(client, roleConfig(cfg.Observer, cfg.RegenBudget)),
		Interviewer:   roles.NewInterviewer(client, roleConfig(cfg.Interviewer, cfg.RegenBudget)),
		Extractor:     roles.NewExtractor(client, roleConfig(cfg.Extractor, cfg.RegenBudget)),
		HiringManager: roles.NewHiringManager(client, roleConfig(cfg.HiringManager, cfg.RegenBudget)),
		FactChecker:   factChecker,
	}, bank, policy.Limits{MaxTurns: cfg.MaxTurns, MaxGaps: cfg.MaxGaps}, cfg.FactCheckEnabled)
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}

	fmt.Println("Interview coach ready.")
	fmt.Printf("  DB: %s\n", cfg.DBPath)
	fmt.Println("Представься и расскажи, на какую позицию идёшь (или 'quit'):")

	runLoop(engine, cfg.TurnTimeout())
}

func roleConfig(rs config.RoleSettings, regen int) roles.RoleConfig {
	return roles.RoleConfig{
		Model:       rs.Model,
		Temperature: rs.Temperature,
		MaxTokens:   rs.MaxTokens,
		RegenBudget: regen,
	}
}

// #endregion

// #region loop

func runLoop(engine *orchestrator.Engine, turnTimeout time.Duration) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	sessionID := ""
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			if sessionID != "" {
				if err := engine.Abandon(sessionID); err != nil {
					log.Printf("abandon failed: %v", err)
				}
			}
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			if sessionID != "" {
				if err := engine.Abandon(sessionID); err != nil {
					log.Printf("abandon failed: %v", err)
				}
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		var res *orchestrator.TurnResult
		var err error
		if sessionID == "" {
			res, err = engine.Start(ctx, input)
		} else {
			res, err = engine.Submit(ctx, sessionID, input)
		}
		cancel()
		if err != nil {
			log.Printf("turn failed: %v", err)
			continue
		}

		sessionID = res.SessionID
		fmt.Println()
		fmt.Println(res.Message)
		fmt.Println()
		if res.Done {
			return
		}
	}
}

// #endregion
