package domain

import "time"

// ReplyTarget holds the platform identifiers needed to route a reply.
// Telegram uses ChatID/ThreadID/MessageID; Discord uses ChatID as the
// channel id plus GuildID/ApplicationID.
type ReplyTarget struct {
	ChatID        string `json:"chat_id"`
	ThreadID      string `json:"thread_id,omitempty"`
	MessageID     string `json:"message_id,omitempty"`
	GuildID       string `json:"guild_id,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
}

// CallbackRequest is what a paid command asks to be fulfilled later
type CallbackRequest struct {
	Platform          Platform    `json:"platform"`
	Command           Command     `json:"command"`
	Topic             string      `json:"topic"`
	QueryType         QueryType   `json:"query_type"`
	RequesterID       string      `json:"requester_id,omitempty"`
	RequesterUsername string      `json:"requester_username,omitempty"`
	Target            ReplyTarget `json:"target"`
	PaymentMessageID  string      `json:"payment_message_id,omitempty"`
}

// PendingCallback correlates an issued token with the request awaiting payment
type PendingCallback struct {
	Token string `json:"token"`
	CallbackRequest
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the entry can no longer be resolved at now
func (p *PendingCallback) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// TTL returns the lifetime the entry was created with
func (p *PendingCallback) TTL() time.Duration {
	return p.ExpiresAt.Sub(p.CreatedAt)
}
