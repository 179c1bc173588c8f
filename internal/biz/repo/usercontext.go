package repo

import (
	"context"

	"github.com/rantbot/rantbot/internal/biz/domain"
)

// UserContextRepo persists one rolling summary per (platform, user id)
type UserContextRepo interface {
	// Get returns the stored record, or nil if the user was never seen
	Get(ctx context.Context, platform domain.Platform, userID string) (*domain.UserContext, error)

	// FindByUsername looks up the most recently active user with that username
	FindByUsername(ctx context.Context, platform domain.Platform, username string) (*domain.UserContext, error)

	// Upsert writes the full record. Username and display name are only
	// replaced when the new value is non-empty.
	Upsert(ctx context.Context, record *domain.UserContext) error

	Close() error
}
