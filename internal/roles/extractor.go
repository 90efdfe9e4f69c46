package roles

import (
	"context"
	"log"
	"strings"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
)

// #region extractor

// Extractor wraps the profile-extraction role, invoked once on the first
// candidate message.
type Extractor struct {
	c   Completer
	cfg RoleConfig
}

func NewExtractor(c Completer, cfg RoleConfig) *Extractor {
	cfg = DefaultRoleConfig(cfg)
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	return &Extractor{c: c, cfg: cfg}
}

// Extract parses the candidate intro into a profile. Degrades to an empty
// Unknown-level profile with zero confidence; the interview can run without
// a profile.
func (e *Extractor) Extract(ctx context.Context, intro string) (contract.ExtractorOutput, error) {
	var out contract.ExtractorOutput
	err := completeJSON(ctx, e.c, e.cfg, "extractor",
		extractorSystemPrompt, extractorUserPrompt(intro),
		func(raw string) error {
			parsed, err := contract.ParseExtractor(raw)
			if err != nil {
				return err
			}
			out = normalizeProfile(parsed)
			return nil
		})
	if err != nil {
		if ctx.Err() != nil {
			return contract.ExtractorOutput{}, ctx.Err()
		}
		log.Printf("[ROLES] extractor degraded: %v", err)
		return contract.ExtractorOutput{Level: contract.LevelUnknown}, nil
	}
	return out, nil
}

// normalizeProfile tidies the extracted profile: skills lowercased and
// deduplicated, level words stripped out of the position.
func normalizeProfile(p contract.ExtractorOutput) contract.ExtractorOutput {
	seen := make(map[string]bool, len(p.Skills))
	skills := p.Skills[:0]
	for _, s := range p.Skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		skills = append(skills, s)
	}
	p.Skills = skills

	words := strings.Fields(p.Position)
	kept := words[:0]
	for _, w := range words {
		if _, ok := contract.NormalizeLevel(w); ok {
			continue
		}
		kept = append(kept, w)
	}
	p.Position = strings.Join(kept, " ")
	return p
}

// #endregion
