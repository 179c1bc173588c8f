package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rantbot/rantbot/internal/biz/domain"
)

func pendingAt(token string, created time.Time, ttl time.Duration) *domain.PendingCallback {
	return &domain.PendingCallback{
		Token: token,
		CallbackRequest: domain.CallbackRequest{
			Platform: domain.PlatformTelegram,
			Command:  domain.CommandRant,
			Topic:    "cats",
		},
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	}
}

func TestPendingCache_PutTake(t *testing.T) {
	r := NewPendingCacheRepo()
	ctx := context.Background()
	now := time.Now()

	if err := r.Put(ctx, pendingAt("a", now, time.Minute)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := r.Put(ctx, pendingAt("a", now, time.Minute)); !errors.Is(err, domain.ErrTokenExists) {
		t.Errorf("Expected ErrTokenExists, got %v", err)
	}

	cb, err := r.Take(ctx, "a", now)
	if err != nil || cb == nil || cb.Topic != "cats" {
		t.Fatalf("Expected entry, got %+v, %v", cb, err)
	}
	if cb, _ := r.Take(ctx, "a", now); cb != nil {
		t.Error("Expected second take to be empty")
	}
}

func TestPendingCache_TakeExpiredRemoves(t *testing.T) {
	r := NewPendingCacheRepo()
	ctx := context.Background()
	t0 := time.Now()

	_ = r.Put(ctx, pendingAt("a", t0, time.Second))
	if cb, _ := r.Take(ctx, "a", t0.Add(2*time.Second)); cb != nil {
		t.Error("Expected expired entry to be absent")
	}
	if n, _ := r.Count(ctx); n != 0 {
		t.Errorf("Expected empty store, got %d", n)
	}
}

func TestPendingCache_Sweep(t *testing.T) {
	r := NewPendingCacheRepo()
	ctx := context.Background()
	t0 := time.Now()

	_ = r.Put(ctx, pendingAt("short", t0, time.Second))
	_ = r.Put(ctx, pendingAt("long", t0, time.Hour))

	n, err := r.Sweep(ctx, t0.Add(time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("Expected 1 removed, got %d, %v", n, err)
	}
	if c, _ := r.Count(ctx); c != 1 {
		t.Errorf("Expected 1 remaining, got %d", c)
	}
	if cb, _ := r.Take(ctx, "long", t0.Add(time.Minute)); cb == nil {
		t.Error("Expected live entry to survive sweep")
	}
}

func TestPendingCache_StoresCopy(t *testing.T) {
	r := NewPendingCacheRepo()
	ctx := context.Background()
	now := time.Now()

	cb := pendingAt("a", now, time.Minute)
	_ = r.Put(ctx, cb)
	cb.Topic = "dogs"

	got, _ := r.Take(ctx, "a", now)
	if got.Topic != "cats" {
		t.Errorf("Expected stored copy unaffected, got %q", got.Topic)
	}
}
