package repo

import (
	"context"
	"time"

	"github.com/rantbot/rantbot/internal/biz/domain"
)

// PendingRepo stores pending payment callbacks keyed by token
type PendingRepo interface {
	// Put stores a new entry. Returns domain.ErrTokenExists if the token is taken.
	Put(ctx context.Context, cb *domain.PendingCallback) error

	// Take atomically reads and removes the entry. Returns nil when the token
	// is unknown, already taken, or expired at now (expired entries are removed).
	Take(ctx context.Context, token string, now time.Time) (*domain.PendingCallback, error)

	// Sweep removes every entry expired at now and returns how many were removed
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Count returns the number of stored entries
	Count(ctx context.Context) (int, error)
}
