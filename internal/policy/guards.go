package policy

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region input

// MaxAnswerLen bounds a single candidate answer, in runes, before it
// reaches any role.
const MaxAnswerLen = 4000

// NormalizeAnswer trims, drops control characters, and truncates an
// incoming candidate answer. Truncation counts runes so a multi-byte
// character is never split.
func NormalizeAnswer(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	n := 0
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		if n == MaxAnswerLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// #endregion

// #region stop-intent

var stopPhrases = []string{
	"стоп интервью",
	"стоп игра",
	"давай фидбэк",
	"заверши интервью",
	"хватит вопросов",
}

// IsStopIntent reports whether the candidate explicitly asked to end the
// interview. Matching is case-insensitive substring over a fixed phrase list;
// the Observer may also signal end, this is the deterministic fast path.
func IsStopIntent(answer string) bool {
	lower := strings.ToLower(answer)
	for _, p := range stopPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// #endregion

// #region loop-guard

// loopWindow is how many identical consecutive prompts trigger a topic break.
const loopWindow = 3

// PromptHash fingerprints an interviewer prompt for loop detection.
func PromptHash(prompt string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(strings.ToLower(prompt))))
	return hex.EncodeToString(sum[:])
}

// RecordPrompt appends the prompt fingerprint to the session and reports
// whether the interviewer has produced the same prompt loopWindow times in a
// row, in which case the caller must rotate topics.
func RecordPrompt(sess *session.Session, prompt string) bool {
	h := PromptHash(prompt)
	sess.Topics.PromptHashes = append(sess.Topics.PromptHashes, h)
	if over := len(sess.Topics.PromptHashes) - loopWindow*4; over > 0 {
		sess.Topics.PromptHashes = sess.Topics.PromptHashes[over:]
	}
	hashes := sess.Topics.PromptHashes
	if len(hashes) < loopWindow {
		return false
	}
	tail := hashes[len(hashes)-loopWindow:]
	for _, v := range tail[1:] {
		if v != tail[0] {
			return false
		}
	}
	return true
}

// #endregion
