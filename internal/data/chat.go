package data

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/infra/discord"
	"github.com/rantbot/rantbot/internal/infra/telegram"
)

// telegramChatRepo implements ChatRepo over the Telegram Bot API
type telegramChatRepo struct {
	client *telegram.Client
}

// NewTelegramChatRepo creates a Telegram chat repository
func NewTelegramChatRepo(client *telegram.Client) repo.ChatRepo {
	if client == nil {
		return nil
	}
	return &telegramChatRepo{client: client}
}

func (r *telegramChatRepo) request(target domain.ReplyTarget, text string) (telegram.SendMessageRequest, error) {
	chatID, err := strconv.ParseInt(target.ChatID, 10, 64)
	if err != nil {
		return telegram.SendMessageRequest{}, fmt.Errorf("invalid telegram chat id %q: %w", target.ChatID, err)
	}
	req := telegram.SendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	}
	if id, err := strconv.ParseInt(target.ThreadID, 10, 64); err == nil && id > 0 {
		req.MessageThreadID = id
	}
	if id, err := strconv.ParseInt(target.MessageID, 10, 64); err == nil && id > 0 {
		req.ReplyParameters = &telegram.ReplyParameters{MessageID: id, AllowSendingWithoutReply: true}
	}
	return req, nil
}

// SendReply sends text as a reply to the target message
func (r *telegramChatRepo) SendReply(ctx context.Context, target domain.ReplyTarget, text string) error {
	req, err := r.request(target, text)
	if err != nil {
		return err
	}
	_, err = r.client.SendMessage(ctx, req)
	return err
}

// SendPaymentPrompt sends text with a single url button
func (r *telegramChatRepo) SendPaymentPrompt(ctx context.Context, target domain.ReplyTarget, text, buttonLabel, url string) (string, error) {
	req, err := r.request(target, text)
	if err != nil {
		return "", err
	}
	req.ReplyMarkup = &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{{Text: buttonLabel, URL: url}}},
	}
	id, err := r.client.SendMessage(ctx, req)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// DeleteMessage deletes a bot message in the target chat
func (r *telegramChatRepo) DeleteMessage(ctx context.Context, target domain.ReplyTarget, messageID string) error {
	chatID, err := strconv.ParseInt(target.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", target.ChatID, err)
	}
	msgID, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram message id %q: %w", messageID, err)
	}
	return r.client.DeleteMessage(ctx, chatID, msgID)
}

// discordChatRepo implements ChatRepo over the Discord REST API.
// Target.ChatID is the channel id.
type discordChatRepo struct {
	client *discord.Client
}

// NewDiscordChatRepo creates a Discord chat repository
func NewDiscordChatRepo(client *discord.Client) repo.ChatRepo {
	if client == nil {
		return nil
	}
	return &discordChatRepo{client: client}
}

func discordRequest(target domain.ReplyTarget, text string) discord.CreateMessageRequest {
	req := discord.CreateMessageRequest{Content: text}
	if target.MessageID != "" {
		req.MessageReference = &discord.MessageReference{MessageID: target.MessageID}
	}
	return req
}

func (r *discordChatRepo) SendReply(ctx context.Context, target domain.ReplyTarget, text string) error {
	_, err := r.client.CreateMessage(ctx, target.ChatID, discordRequest(target, text))
	return err
}

func (r *discordChatRepo) SendPaymentPrompt(ctx context.Context, target domain.ReplyTarget, text, buttonLabel, url string) (string, error) {
	req := discordRequest(target, text)
	req.Components = discord.LinkButtonRow(buttonLabel, url)
	msg, err := r.client.CreateMessage(ctx, target.ChatID, req)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (r *discordChatRepo) DeleteMessage(ctx context.Context, target domain.ReplyTarget, messageID string) error {
	return r.client.DeleteMessage(ctx, target.ChatID, messageID)
}
