package policy

import (
	"testing"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

func TestTokenizeDropsStopwordsAndDuplicates(t *testing.T) {
	tokens := tokenize("Я python разработчик, опыт с Python и SQL")
	want := map[string]bool{"python": true, "sql": true}
	if len(tokens) != len(want) {
		t.Fatalf("unexpected tokens %v", tokens)
	}
	for _, tok := range tokens {
		if !want[tok] {
			t.Fatalf("unexpected token %q", tok)
		}
	}
}

func TestProfileTopicMatchesDeclaredSkills(t *testing.T) {
	profile := session.Profile{
		Position: "backend python разработчик",
		Skills:   []string{"python"},
	}
	topic := ProfileTopic(profile, DefaultBank())
	if topic != "python_iterators" && topic != "python_oop" && topic != "python_types" {
		t.Fatalf("expected a python topic, got %q", topic)
	}
}

func TestProfileTopicNoOverlap(t *testing.T) {
	profile := session.Profile{Position: "дизайнер", Skills: []string{"figma"}}
	if topic := ProfileTopic(profile, DefaultBank()); topic != "" {
		t.Fatalf("expected no match, got %q", topic)
	}
}

func TestProfileTopicEmptyProfile(t *testing.T) {
	if topic := ProfileTopic(session.Profile{}, DefaultBank()); topic != "" {
		t.Fatalf("expected empty topic, got %q", topic)
	}
}
