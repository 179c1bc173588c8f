package mcp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/usecase"
	"github.com/rantbot/rantbot/internal/data"
	"github.com/rantbot/rantbot/internal/infra/logger"
)

func newTestServer(t *testing.T) (*Server, *usecase.UserContextUsecase) {
	t.Helper()
	contextRepo, err := data.NewUserContextRepo(filepath.Join(t.TempDir(), "ctx.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open repo: %v", err)
	}
	t.Cleanup(func() { contextRepo.Close() })

	uc := usecase.NewUserContextUsecase(contextRepo, logger.Discard(), nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uc.SetClock(func() time.Time { return now })

	return NewServer(uc, "test", logger.Discard()), uc
}

func TestGetUserContext_Found(t *testing.T) {
	s, uc := newTestServer(t)
	ctx := context.Background()

	uc.Ingest(ctx, domain.PlatformTelegram, "42", domain.IncomingMessage{
		Text:        "deploying on friday again, the pipeline hates me",
		Username:    "alice",
		DisplayName: "Alice",
	})

	_, out, err := s.handleGetUserContext(ctx, nil, GetUserContextInput{Platform: "telegram", UserID: "42"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.Found {
		t.Fatal("Expected record to be found")
	}
	if out.Username != "alice" || out.DisplayName != "Alice" {
		t.Errorf("Expected alice/Alice, got %s/%s", out.Username, out.DisplayName)
	}
	if out.MessageCount != 1 {
		t.Errorf("Expected message count 1, got %d", out.MessageCount)
	}
	if out.Annotation == "" {
		t.Error("Expected a rendered annotation")
	}
	if len(out.Keywords) == 0 {
		t.Error("Expected keywords")
	}
}

func TestGetUserContext_Missing(t *testing.T) {
	s, _ := newTestServer(t)

	_, out, err := s.handleGetUserContext(context.Background(), nil, GetUserContextInput{Platform: "discord", UserID: "999"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Found {
		t.Error("Expected not found")
	}
	if out.UserID != "999" || out.Platform != "discord" {
		t.Errorf("Expected echo of the query, got %+v", out)
	}
	if out.Annotation != "" {
		t.Errorf("Expected empty annotation, got %q", out.Annotation)
	}
}

func TestGetUserContext_BadInput(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	if _, _, err := s.handleGetUserContext(ctx, nil, GetUserContextInput{Platform: "irc", UserID: "1"}); err == nil {
		t.Error("Expected error for unknown platform")
	}
	if _, _, err := s.handleGetUserContext(ctx, nil, GetUserContextInput{Platform: "telegram"}); err == nil {
		t.Error("Expected error for missing user id")
	}
}

func TestFindUserContext(t *testing.T) {
	s, uc := newTestServer(t)
	ctx := context.Background()

	uc.Ingest(ctx, domain.PlatformDiscord, "7", domain.IncomingMessage{Text: "hello there", Username: "Bob"})

	_, out, err := s.handleFindUserContext(ctx, nil, FindUserContextInput{Platform: "discord", Username: "@bob"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.Found || out.UserID != "7" {
		t.Errorf("Expected user 7 found, got %+v", out)
	}

	// platforms never merge
	_, out, err = s.handleFindUserContext(ctx, nil, FindUserContextInput{Platform: "telegram", Username: "bob"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Found {
		t.Error("Expected no telegram match for a discord user")
	}
	if out.Username != "bob" {
		t.Errorf("Expected normalized username bob, got %q", out.Username)
	}
}
