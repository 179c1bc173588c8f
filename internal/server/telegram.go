package server

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/infra/telegram"
	"github.com/rantbot/rantbot/internal/service"
)

// UpdateSource is the long-polling half of the Telegram client
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, int64, error)
}

// TelegramServer long-polls Telegram and routes messages to the command service
type TelegramServer struct {
	source      UpdateSource
	cmdSvc      *service.CommandService
	pollTimeout time.Duration
	retryDelay  time.Duration
	log         logrus.FieldLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTelegramServer creates a new Telegram server
func NewTelegramServer(source UpdateSource, cmdSvc *service.CommandService, pollTimeout time.Duration, log logrus.FieldLogger) *TelegramServer {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &TelegramServer{
		source:      source,
		cmdSvc:      cmdSvc,
		pollTimeout: pollTimeout,
		retryDelay:  3 * time.Second,
		log:         log.WithField("component", "telegram"),
	}
}

// Start starts the polling loop
func (s *TelegramServer) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
	s.log.WithField("poll_timeout", s.pollTimeout).Info("Telegram polling started")
}

// Stop stops polling and waits for the current batch
func (s *TelegramServer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info("Telegram polling stopped")
}

func (s *TelegramServer) loop(ctx context.Context) {
	defer s.wg.Done()

	var offset int64
	for ctx.Err() == nil {
		updates, next, err := s.source.GetUpdates(ctx, offset, s.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.WithError(err).Warn("getUpdates failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryDelay):
			}
			continue
		}
		offset = next
		for _, u := range updates {
			s.handleUpdate(ctx, u)
		}
	}
}

func (s *TelegramServer) handleUpdate(ctx context.Context, u telegram.Update) {
	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	target := domain.ReplyTarget{
		ChatID:    strconv.FormatInt(msg.Chat.ID, 10),
		MessageID: strconv.FormatInt(msg.MessageID, 10),
	}
	if msg.IsTopicMessage && msg.MessageThreadID != 0 {
		target.ThreadID = strconv.FormatInt(msg.MessageThreadID, 10)
	}

	cmd, rest, isCommand := domain.ParseCommandName(text)
	if !isCommand {
		displayName := msg.From.DisplayName()
		if displayName == "" {
			displayName = msg.From.Username
		}
		ts := time.Unix(msg.Date, 0)
		if msg.Date == 0 {
			ts = time.Time{}
		}
		s.cmdSvc.Ingest(ctx, domain.PlatformTelegram, userID, domain.IncomingMessage{
			Text:        msg.Text,
			Username:    msg.From.Username,
			DisplayName: displayName,
			Timestamp:   ts,
		})
		return
	}

	fields := logrus.Fields{"chat_id": target.ChatID, "user_id": userID, "command": cmd}
	switch cmd {
	case "start", "help":
		if err := s.cmdSvc.SendHelp(ctx, domain.PlatformTelegram, target); err != nil {
			s.log.WithFields(fields).WithError(err).Warn("Failed to send help")
		}
	case domain.CommandRant, domain.CommandComment:
		s.log.WithFields(fields).Debug("Command received")
		s.cmdSvc.HandleCommand(ctx, service.CommandRequest{
			Platform:          domain.PlatformTelegram,
			Command:           cmd,
			Argument:          rest,
			RequesterID:       userID,
			RequesterUsername: msg.From.Username,
			Target:            target,
		})
	}
}
