package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	renderNotableLimit = 5
	renderKeywordLimit = 5
)

// LastSeenPhrase describes how long ago lastSeen was relative to now
func LastSeenPhrase(lastSeen, now time.Time) string {
	days := int(now.Sub(lastSeen) / (24 * time.Hour))
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

// Render formats the record as a compact annotation for prompt injection.
// The output is bounded by the notable and keyword caps; stored values are
// re-capped here so rows written under looser limits render bounded too.
func (c *UserContext) Render(now time.Time) string {
	parts := []string{
		fmt.Sprintf("[historical context: %d messages, last active %s]", c.MessageCount, LastSeenPhrase(c.LastSeen, now)),
	}

	if len(c.NotableMessages) > 0 {
		n := min(len(c.NotableMessages), renderNotableLimit)
		snippets := make([]string, 0, n)
		for _, msg := range c.NotableMessages[:n] {
			snippets = append(snippets, strings.Join(strings.Fields(Truncate(msg, MaxNotableSnippet)), " "))
		}
		parts = append(parts, fmt.Sprintf("[notable messages: %s]", strings.Join(snippets, " | ")))
	}

	ranked := RankKeywords(c.Keywords)
	if len(ranked) > 0 {
		n := min(len(ranked), renderKeywordLimit)
		words := make([]string, 0, n)
		for _, kc := range ranked[:n] {
			words = append(words, Truncate(kc.Word, MaxKeywordLength))
		}
		parts = append(parts, fmt.Sprintf("[common topics: %s]", strings.Join(words, ", ")))
	}

	parts = append(parts, fmt.Sprintf("[message style: avg %d chars, range %d-%d]",
		int(math.Round(c.AvgMessageLength)), c.MinMessageLength, c.MaxMessageLength))

	return strings.Join(parts, " ")
}
