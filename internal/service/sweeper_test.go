package service

import (
	"context"
	"testing"
	"time"

	"github.com/rantbot/rantbot/internal/infra/logger"
)

func TestSweeper_RunOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t0 := time.Now()
	now := t0
	env.callbackUC.SetClock(func() time.Time { return now })

	if _, err := env.svc.Request(ctx, rantRequest("cats")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sweeper, err := NewSweeper(env.callbackUC, time.Hour, logger.Discard())
	if err != nil {
		t.Fatalf("Failed to create sweeper: %v", err)
	}

	if n := sweeper.RunOnce(ctx); n != 0 {
		t.Errorf("Expected nothing swept before expiry, got %d", n)
	}
	now = t0.Add(2 * time.Minute)
	if n := sweeper.RunOnce(ctx); n != 1 {
		t.Errorf("Expected one entry swept, got %d", n)
	}
}

func TestSweeper_StartStop(t *testing.T) {
	env := newTestEnv(t)
	sweeper, err := NewSweeper(env.callbackUC, 10*time.Millisecond, logger.Discard())
	if err != nil {
		t.Fatalf("Failed to create sweeper: %v", err)
	}
	if err := sweeper.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := sweeper.Stop(); err != nil {
		t.Errorf("Failed to stop: %v", err)
	}
}
