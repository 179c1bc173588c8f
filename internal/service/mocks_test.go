package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/biz/usecase"
	"github.com/rantbot/rantbot/internal/data"
	"github.com/rantbot/rantbot/internal/infra/logger"
)

// Mock implementations

type sentMessage struct {
	Target domain.ReplyTarget
	Text   string
	Button string
	URL    string
}

type mockChatRepo struct {
	mu       sync.Mutex
	replies  []sentMessage
	prompts  []sentMessage
	deleted  []string
	nextID   int
	promptEr error
}

func (m *mockChatRepo) SendReply(ctx context.Context, target domain.ReplyTarget, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, sentMessage{Target: target, Text: text})
	return nil
}

func (m *mockChatRepo) SendPaymentPrompt(ctx context.Context, target domain.ReplyTarget, text, buttonLabel, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.promptEr != nil {
		return "", m.promptEr
	}
	m.nextID++
	m.prompts = append(m.prompts, sentMessage{Target: target, Text: text, Button: buttonLabel, URL: url})
	return fmt.Sprintf("pm-%d", m.nextID), nil
}

func (m *mockChatRepo) DeleteMessage(ctx context.Context, target domain.ReplyTarget, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *mockChatRepo) snapshot() (replies, prompts []sentMessage, deleted []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.replies...), append([]sentMessage(nil), m.prompts...), append([]string(nil), m.deleted...)
}

type mockLLMRepo struct {
	mu       sync.Mutex
	response string
	lastUser string
	calls    int
}

func (m *mockLLMRepo) Configured() bool { return true }

func (m *mockLLMRepo) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastUser = userPrompt
	return m.response, nil
}

var errChatDown = errors.New("chat down")

type testEnv struct {
	svc        *CommandService
	chat       *mockChatRepo
	llm        *mockLLMRepo
	contextUC  *usecase.UserContextUsecase
	callbackUC *usecase.CallbackUsecase
	pending    repo.PendingRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard()

	contextRepo, err := data.NewUserContextRepo(filepath.Join(t.TempDir(), "context.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open context repo: %v", err)
	}
	t.Cleanup(func() { contextRepo.Close() })

	pending := data.NewPendingCacheRepo()
	chat := &mockChatRepo{}
	llm := &mockLLMRepo{response: "cats are a subscription service with fur"}

	contextUC := usecase.NewUserContextUsecase(contextRepo, log, nil)
	callbackUC := usecase.NewCallbackUsecase(pending, log, nil)
	generateUC := usecase.NewGenerateUsecase(llm, usecase.GenerationConfig{
		RantSystemPrompt:    "rant",
		CommentSystemPrompt: "comment",
		RantError:           "broken {{topic}}",
		CommentError:        "broken {{topic}}",
	}, log, nil)

	svc := NewCommandService(contextUC, callbackUC, generateUC,
		map[domain.Platform]repo.ChatRepo{domain.PlatformTelegram: chat},
		CommandConfig{
			PublicBaseURL:    "https://bot.example.com/",
			Price:            "0.05",
			CallbackTTL:      time.Minute,
			HelpText:         "costs ${{price}}",
			PaymentPrompt:    "pay for /{{command}} {{topic}}",
			PaymentButton:    "Pay ${{price}}",
			EmptyTopicReply:  "usage: /{{command}} <topic>",
			RequestFailReply: "failed",
		}, log)

	return &testEnv{svc: svc, chat: chat, llm: llm, contextUC: contextUC, callbackUC: callbackUC, pending: pending}
}
