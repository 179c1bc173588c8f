package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/biz/usecase"
)

// ErrPlatformUnavailable is returned when no chat transport is configured for a platform
var ErrPlatformUnavailable = errors.New("platform not configured")

// CommandConfig holds payment link settings and user-facing chat text.
// Templates may use {{command}}, {{topic}} and {{price}}.
type CommandConfig struct {
	PublicBaseURL string
	Price         string
	CallbackTTL   time.Duration

	HelpText         string
	PaymentPrompt    string
	PaymentButton    string
	EmptyTopicReply  string
	RequestFailReply string

	// FulfillTimeout bounds one generate-and-reply run
	FulfillTimeout time.Duration
}

// CommandRequest is a paid command as received from a transport
type CommandRequest struct {
	Platform          domain.Platform
	Command           domain.Command
	Argument          string
	RequesterID       string
	RequesterUsername string
	Target            domain.ReplyTarget
}

// PaymentLink is what the requester gets back: a token and where to pay
type PaymentLink struct {
	Token     string
	URL       string
	MessageID string
}

// CommandService turns commands into payment prompts and fulfills them
// once the payment callback arrives
type CommandService struct {
	contextUC  *usecase.UserContextUsecase
	callbackUC *usecase.CallbackUsecase
	generateUC *usecase.GenerateUsecase
	chats      map[domain.Platform]repo.ChatRepo

	cfg CommandConfig
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

// NewCommandService creates a new command service
func NewCommandService(
	contextUC *usecase.UserContextUsecase,
	callbackUC *usecase.CallbackUsecase,
	generateUC *usecase.GenerateUsecase,
	chats map[domain.Platform]repo.ChatRepo,
	cfg CommandConfig,
	log logrus.FieldLogger,
) *CommandService {
	if cfg.CallbackTTL <= 0 {
		cfg.CallbackTTL = 5 * time.Minute
	}
	if cfg.FulfillTimeout <= 0 {
		cfg.FulfillTimeout = 2 * time.Minute
	}
	return &CommandService{
		contextUC:  contextUC,
		callbackUC: callbackUC,
		generateUC: generateUC,
		chats:      chats,
		cfg:        cfg,
		log:        log.WithField("component", "commands"),
	}
}

// Ingest records a plain chat message. Commands and blank text are ignored.
func (s *CommandService) Ingest(ctx context.Context, platform domain.Platform, userID string, msg domain.IncomingMessage) bool {
	text := strings.TrimSpace(msg.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return false
	}
	s.contextUC.Ingest(ctx, platform, userID, msg)
	return true
}

// HelpText returns the help message with the price filled in
func (s *CommandService) HelpText() string {
	return s.format(s.cfg.HelpText, "", "")
}

// SendHelp answers /start and /help
func (s *CommandService) SendHelp(ctx context.Context, platform domain.Platform, target domain.ReplyTarget) error {
	chat := s.chats[platform]
	if chat == nil {
		return ErrPlatformUnavailable
	}
	return chat.SendReply(ctx, target, s.HelpText())
}

// Request validates a command, posts the payment prompt and registers the
// pending callback. Nothing is stored when the prompt cannot be posted.
func (s *CommandService) Request(ctx context.Context, req CommandRequest) (*PaymentLink, error) {
	parsed, err := domain.ParseCommand(req.Command, req.Argument)
	if err != nil {
		return nil, err
	}
	chat, ok := s.chats[req.Platform]
	if !ok || chat == nil {
		return nil, ErrPlatformUnavailable
	}

	token := s.callbackUC.NewToken()
	payURL := s.paymentURL(req.Platform, token, parsed, req.Target.ChatID)
	text := s.format(s.cfg.PaymentPrompt, string(parsed.Command), parsed.Topic)
	button := s.format(s.cfg.PaymentButton, string(parsed.Command), parsed.Topic)

	msgID, err := chat.SendPaymentPrompt(ctx, req.Target, text, button, payURL)
	if err != nil {
		return nil, fmt.Errorf("send payment prompt: %w", err)
	}

	cbReq := domain.CallbackRequest{
		Platform:          req.Platform,
		Command:           parsed.Command,
		Topic:             parsed.Topic,
		QueryType:         parsed.QueryType,
		RequesterID:       req.RequesterID,
		RequesterUsername: req.RequesterUsername,
		Target:            req.Target,
		PaymentMessageID:  msgID,
	}
	if err := s.callbackUC.CreatePendingWithToken(ctx, token, cbReq, s.cfg.CallbackTTL); err != nil {
		if msgID != "" {
			_ = chat.DeleteMessage(ctx, req.Target, msgID)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"platform": req.Platform,
		"command":  parsed.Command,
		"chat_id":  req.Target.ChatID,
	}).Info("Payment requested")

	return &PaymentLink{Token: token, URL: payURL, MessageID: msgID}, nil
}

// HandleCommand runs Request and answers validation or delivery problems in
// chat. Used by transports that have no other channel back to the user.
func (s *CommandService) HandleCommand(ctx context.Context, req CommandRequest) {
	_, err := s.Request(ctx, req)
	if err == nil {
		return
	}

	fields := logrus.Fields{"platform": req.Platform, "command": req.Command}
	var reply string
	switch {
	case errors.Is(err, domain.ErrEmptyTopic):
		reply = s.format(s.cfg.EmptyTopicReply, string(req.Command), "")
	case errors.Is(err, domain.ErrUnknownCommand), errors.Is(err, ErrPlatformUnavailable):
		s.log.WithFields(fields).WithError(err).Debug("Ignoring command")
		return
	default:
		s.log.WithFields(fields).WithError(err).Error("Command request failed")
		reply = s.cfg.RequestFailReply
	}

	if reply == "" {
		return
	}
	if chat := s.chats[req.Platform]; chat != nil {
		if err := chat.SendReply(ctx, req.Target, reply); err != nil {
			s.log.WithFields(fields).WithError(err).Warn("Failed to send command error reply")
		}
	}
}

// Complete consumes the pending callback for token. It reports whether a
// fulfillment was started; unknown, spent and expired tokens return false.
// Generation and delivery run in the background.
func (s *CommandService) Complete(ctx context.Context, token string) (bool, error) {
	cb, err := s.callbackUC.ResolvePending(ctx, token)
	if err != nil {
		return false, err
	}
	if cb == nil {
		return false, nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FulfillTimeout)
		defer cancel()
		s.fulfill(fctx, cb)
	}()
	return true, nil
}

// Wait blocks until in-flight fulfillments finish
func (s *CommandService) Wait() {
	s.wg.Wait()
}

func (s *CommandService) fulfill(ctx context.Context, cb *domain.PendingCallback) {
	fields := logrus.Fields{
		"platform": cb.Platform,
		"command":  cb.Command,
		"chat_id":  cb.Target.ChatID,
	}
	chat := s.chats[cb.Platform]
	if chat == nil {
		s.log.WithFields(fields).Error("No chat transport for fulfilled callback")
		return
	}

	res, err := s.generateUC.Generate(ctx, usecase.GenerateRequest{
		Command:    cb.Command,
		Topic:      cb.Topic,
		QueryType:  cb.QueryType,
		Platform:   cb.Platform,
		Annotation: s.annotationFor(ctx, cb),
	})
	if err != nil {
		s.log.WithFields(fields).WithError(err).Error("Generation rejected fulfilled callback")
		return
	}

	if err := chat.SendReply(ctx, cb.Target, res.Text); err != nil {
		s.log.WithFields(fields).WithError(err).Error("Failed to deliver reply")
	} else {
		s.log.WithFields(fields).WithField("source", res.Source).Info("Reply delivered")
	}

	if cb.PaymentMessageID != "" {
		if err := chat.DeleteMessage(ctx, cb.Target, cb.PaymentMessageID); err != nil {
			s.log.WithFields(fields).WithError(err).Debug("Failed to delete payment prompt")
		}
	}
}

// annotationFor picks whose history colours the reply: the named person or
// "me" for person comments, otherwise the requester.
func (s *CommandService) annotationFor(ctx context.Context, cb *domain.PendingCallback) string {
	var record *domain.UserContext
	switch {
	case cb.QueryType == domain.QueryPerson && !strings.EqualFold(cb.Topic, domain.SelfQuery):
		record = s.contextUC.FindByUsername(ctx, cb.Platform, cb.Topic)
	case cb.RequesterID != "":
		record = s.contextUC.GetContext(ctx, cb.Platform, cb.RequesterID)
	}
	return s.contextUC.RenderForPrompt(record)
}

func (s *CommandService) paymentURL(platform domain.Platform, token string, cmd *domain.ParsedCommand, chatID string) string {
	q := url.Values{}
	q.Set("source", string(platform))
	q.Set("callback", token)
	q.Set("command", string(cmd.Command))
	q.Set("topic", cmd.Topic)
	if chatID != "" {
		q.Set("chatId", chatID)
	}
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/pay?" + q.Encode()
}

func (s *CommandService) format(template, command, topic string) string {
	return strings.NewReplacer("{{command}}", command, "{{topic}}", topic, "{{price}}", s.cfg.Price).Replace(template)
}
