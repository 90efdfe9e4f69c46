package policy

import (
	"strings"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/contract"
	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region priority

const (
	priorityGap       = 0
	priorityUncertain = 1
	priorityUnknown   = 2
	priorityConfirmed = 3
)

// topicPriority ranks a bank topic given the current skill matrix: gaps are
// revisited first, then uncertain entries, then topics never touched.
// Confirmed topics sort last and are never selected while anything else
// remains open.
func topicPriority(sess *session.Session, topic string) int {
	entry := sess.Skills.Get(topic)
	if entry == nil {
		return priorityUnknown
	}
	switch entry.Status {
	case contract.StatusGap:
		return priorityGap
	case contract.StatusUncertain:
		return priorityUncertain
	case contract.StatusConfirmed:
		return priorityConfirmed
	}
	return priorityUnknown
}

// #endregion

// #region selection

// recentlyVisited reports whether topic appears in the last two selected
// topics, which blocks immediate re-selection.
func recentlyVisited(sess *session.Session, topic string) bool {
	last := sess.Topics.LastTopics
	n := len(last)
	for i := n - 1; i >= 0 && i >= n-2; i-- {
		if last[i] == topic {
			return true
		}
	}
	return false
}

// closedSet returns the topics already resolved to confirmed or gap.
func closedSet(sess *session.Session) map[string]bool {
	closed := make(map[string]bool)
	for _, t := range sess.Skills.ClosedTopics() {
		closed[t] = true
	}
	return closed
}

// SelectTopic picks the next interview topic. A non-empty suggestion from the
// Observer wins when it is still open and was not just visited; otherwise the
// bank topics are ranked by skill status and the best open one is taken.
// Returns "" when every bank topic is closed.
func SelectTopic(sess *session.Session, bank *Bank, suggested string) string {
	closed := closedSet(sess)

	suggested = NormalizeTopic(suggested)
	if suggested != "" && !closed[suggested] && !recentlyVisited(sess, suggested) {
		return suggested
	}

	best := ""
	bestRank := priorityConfirmed + 1
	for _, topic := range bank.Topics() {
		if closed[topic] {
			continue
		}
		rank := topicPriority(sess, topic)
		if recentlyVisited(sess, topic) {
			rank++
		}
		if rank < bestRank {
			best = topic
			bestRank = rank
		}
	}
	return best
}

// NormalizeTopic canonicalizes a model-produced topic string.
func NormalizeTopic(topic string) string {
	topic = strings.TrimSpace(strings.ToLower(topic))
	topic = strings.ReplaceAll(topic, " ", "_")
	return topic
}

// #endregion
