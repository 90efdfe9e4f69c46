package roles

import (
	"context"
	"log"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/websearch"
)

// #region fact-checker

// FactChecker wraps the optional claim-verification role. The pipeline treats
// its verdicts as advisory context for the Interviewer; a nil verdict means
// the check was skipped. With a Searcher attached, web results are injected
// into the prompt as supporting evidence.
type FactChecker struct {
	c      Completer
	cfg    RoleConfig
	search *websearch.Searcher
}

func NewFactChecker(c Completer, cfg RoleConfig) *FactChecker {
	cfg = DefaultRoleConfig(cfg)
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	return &FactChecker{c: c, cfg: cfg}
}

// WithSearch attaches a web searcher used to gather evidence for each claim.
func (f *FactChecker) WithSearch(s *websearch.Searcher) *FactChecker {
	f.search = s
	return f
}

// Check verifies a single flagged claim. Failures are swallowed with a log
// line: a hallucination turn proceeds as a plain refocus without a verdict.
func (f *FactChecker) Check(ctx context.Context, claim string) (*contract.FactCheckVerdict, error) {
	evidence := ""
	if f.search != nil {
		results, err := f.search.Search(ctx, claim)
		if err != nil {
			log.Printf("[ROLES] fact check search failed: %v", err)
		} else {
			evidence = websearch.FormatAsEvidence(results)
		}
	}

	var out contract.FactCheckVerdict
	err := completeJSON(ctx, f.c, f.cfg, "fact_checker",
		factCheckSystemPrompt, factCheckUserPrompt(claim, evidence),
		func(raw string) error {
			parsed, err := contract.ParseFactCheck(raw)
			if err != nil {
				return err
			}
			out = parsed
			return nil
		})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[ROLES] fact check skipped: %v", err)
		return nil, nil
	}
	if f.search != nil && len(out.Sources) == 0 && evidence != "" {
		log.Printf("[ROLES] fact check verdict carries no sources despite search evidence")
	}
	return &out, nil
}

// #endregion
