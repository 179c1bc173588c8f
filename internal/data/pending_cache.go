package data

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
)

// pendingCacheRepo keeps pending callbacks in process memory.
// go-cache handles wall-clock expiry; Take and Sweep also check the
// caller's clock so expiry follows the usecase's notion of now.
type pendingCacheRepo struct {
	mu    sync.Mutex // makes Take and Sweep atomic with respect to each other
	items *cache.Cache
}

// NewPendingCacheRepo creates an in-memory pending callback store.
// Expired entries are reclaimed by Sweep, so no janitor goroutine is started.
func NewPendingCacheRepo() repo.PendingRepo {
	return &pendingCacheRepo{items: cache.New(cache.NoExpiration, 0)}
}

// Put stores a copy of cb, failing if the token is already in use
func (r *pendingCacheRepo) Put(ctx context.Context, cb *domain.PendingCallback) error {
	cp := *cb
	ttl := cb.TTL()
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.items.Add(cb.Token, &cp, ttl); err != nil {
		return domain.ErrTokenExists
	}
	return nil
}

// Take reads and removes the entry in one step
func (r *pendingCacheRepo) Take(ctx context.Context, token string, now time.Time) (*domain.PendingCallback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items.Get(token)
	r.items.Delete(token)
	if !ok {
		return nil, nil
	}
	cb := v.(*domain.PendingCallback)
	if cb.IsExpired(now) {
		return nil, nil
	}
	return cb, nil
}

// Sweep drops everything expired at now, plus anything go-cache already considers expired
func (r *pendingCacheRepo) Sweep(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, item := range r.items.Items() {
		cb, ok := item.Object.(*domain.PendingCallback)
		if !ok || cb.IsExpired(now) {
			r.items.Delete(token)
			removed++
		}
	}

	before := r.items.ItemCount()
	r.items.DeleteExpired()
	removed += before - r.items.ItemCount()
	return removed, nil
}

// Count returns the number of stored entries
func (r *pendingCacheRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items.ItemCount(), nil
}
