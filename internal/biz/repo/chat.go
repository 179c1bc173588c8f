package repo

import (
	"context"

	"github.com/rantbot/rantbot/internal/biz/domain"
)

// ChatRepo delivers outbound messages on one platform
type ChatRepo interface {
	// SendReply sends text to the target chat, threading under the target message when set
	SendReply(ctx context.Context, target domain.ReplyTarget, text string) error

	// SendPaymentPrompt posts text with a single link button and returns the new message id
	SendPaymentPrompt(ctx context.Context, target domain.ReplyTarget, text, buttonLabel, url string) (string, error)

	// DeleteMessage removes a message previously sent by the bot
	DeleteMessage(ctx context.Context, target domain.ReplyTarget, messageID string) error
}
