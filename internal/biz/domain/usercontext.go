package domain

import (
	"time"
	"unicode/utf8"
)

const (
	MaxNotableMessages  = 20
	MaxNotableSnippet   = 200
	MaxKeywords         = 20
	NotableMinLength    = 50
	NotableMinReactions = 3
)

// UserContext is the rolling summary of one user's chat history on one platform.
// It is updated incrementally and never re-derived from full history.
type UserContext struct {
	Platform    Platform
	UserID      string
	Username    string // last known, empty if never seen
	DisplayName string // last known, empty if never seen

	MessageCount     int
	TotalLength      int
	AvgMessageLength float64
	MinMessageLength int
	MaxMessageLength int

	NotableMessages []string       // most recent first
	Keywords        map[string]int // bounded top-K word counts

	LastSeen  time.Time // timestamp of the last ingested message
	UpdatedAt time.Time // wall clock of the last write
}

// IncomingMessage is a single non-command chat message offered for ingestion
type IncomingMessage struct {
	Text          string
	Username      string
	DisplayName   string
	ReactionCount int
	Timestamp     time.Time
}

// NewUserContext creates a zero-valued record for a user
func NewUserContext(platform Platform, userID string) *UserContext {
	return &UserContext{
		Platform: platform,
		UserID:   userID,
		Keywords: make(map[string]int),
	}
}

// IsNotable reports whether a message qualifies for the notable ring
func (m IncomingMessage) IsNotable() bool {
	return utf8.RuneCountInString(m.Text) >= NotableMinLength || m.ReactionCount >= NotableMinReactions
}

// Apply folds one message into the record. now is the wall-clock time of the write.
func (c *UserContext) Apply(msg IncomingMessage, now time.Time) {
	length := utf8.RuneCountInString(msg.Text)

	c.MessageCount++
	c.TotalLength += length
	c.AvgMessageLength = float64(c.TotalLength) / float64(c.MessageCount)
	if length > c.MaxMessageLength {
		c.MaxMessageLength = length
	}
	if c.MessageCount == 1 || length < c.MinMessageLength {
		c.MinMessageLength = length
	}

	if msg.IsNotable() {
		c.pushNotable(Truncate(msg.Text, MaxNotableSnippet))
	}

	if c.Keywords == nil {
		c.Keywords = make(map[string]int)
	}
	c.Keywords = MergeKeywords(c.Keywords, ExtractKeywords(msg.Text), MaxKeywords)

	if msg.Username != "" {
		c.Username = msg.Username
	}
	if msg.DisplayName != "" {
		c.DisplayName = msg.DisplayName
	}
	c.LastSeen = msg.Timestamp
	c.UpdatedAt = now
}

func (c *UserContext) pushNotable(snippet string) {
	notable := make([]string, 0, MaxNotableMessages)
	notable = append(notable, snippet)
	for _, existing := range c.NotableMessages {
		if len(notable) == MaxNotableMessages {
			break
		}
		notable = append(notable, existing)
	}
	c.NotableMessages = notable
}

// Truncate cuts s to at most n code points
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
