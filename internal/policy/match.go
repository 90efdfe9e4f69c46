package policy

import (
	"strings"
	"unicode"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region stopwords

// stopwords contains common words excluded from profile-to-topic matching.
var stopwords = map[string]bool{
	"и": true, "в": true, "на": true, "я": true, "не": true,
	"что": true, "как": true, "по": true, "с": true, "у": true,
	"за": true, "из": true, "для": true, "это": true, "мой": true,
	"опыт": true, "лет": true, "год": true, "года": true, "работа": true,
	"разработчик": true, "инженер": true, "позиция": true,
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "to": true, "with": true,
	"junior": true, "middle": true, "senior": true,
	"developer": true, "engineer": true, "backend": true, "frontend": true,
}

// tokenize splits text into unique lowercase non-stopword tokens.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		if len(w) < 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// sharedKeywords returns the count of tokens present in both slices.
func sharedKeywords(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	n := 0
	for _, t := range b {
		if set[t] {
			n++
		}
	}
	return n
}

// #endregion stopwords

// #region profile-match

// ProfileTopic picks the bank topic closest to the candidate's declared
// skills and position, so the opening question lands on familiar ground.
// Returns "" when nothing overlaps; topic selection then falls back to bank
// order.
func ProfileTopic(profile session.Profile, bank *Bank) string {
	var text strings.Builder
	text.WriteString(profile.Position)
	for _, s := range profile.Skills {
		text.WriteString(" ")
		text.WriteString(s)
	}
	profileTokens := tokenize(text.String())
	if len(profileTokens) == 0 {
		return ""
	}

	best := ""
	bestScore := 0
	for _, topic := range bank.Topics() {
		score := sharedKeywords(profileTokens, tokenize(strings.ReplaceAll(topic, "_", " ")))
		if score > bestScore {
			best = topic
			bestScore = score
		}
	}
	return best
}

// #endregion profile-match
