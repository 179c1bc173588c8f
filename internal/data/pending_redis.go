package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
)

const pendingKeyPrefix = "rantbot:pending:"

// pendingRedisRepo shares pending callbacks between bot replicas.
// Redis key expiry reclaims stale entries, so Sweep has nothing to do.
type pendingRedisRepo struct {
	client *redis.Client
}

// NewRedisClient parses redisURL and verifies the connection
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewPendingRedisRepo creates a Redis-backed pending callback store
func NewPendingRedisRepo(client *redis.Client) repo.PendingRepo {
	return &pendingRedisRepo{client: client}
}

// Put stores cb with SET NX so a token can never be overwritten
func (r *pendingRedisRepo) Put(ctx context.Context, cb *domain.PendingCallback) error {
	ttl := cb.TTL()
	if ttl <= 0 {
		return fmt.Errorf("pending callback %s has no lifetime", cb.Token)
	}
	payload, err := json.Marshal(cb)
	if err != nil {
		return fmt.Errorf("failed to encode pending callback: %w", err)
	}

	ok, err := r.client.SetNX(ctx, pendingKeyPrefix+cb.Token, payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store pending callback: %w", err)
	}
	if !ok {
		return domain.ErrTokenExists
	}
	return nil
}

// Take uses GETDEL, which is atomic across replicas
func (r *pendingRedisRepo) Take(ctx context.Context, token string, now time.Time) (*domain.PendingCallback, error) {
	payload, err := r.client.GetDel(ctx, pendingKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take pending callback: %w", err)
	}

	var cb domain.PendingCallback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("failed to decode pending callback: %w", err)
	}
	if cb.IsExpired(now) {
		return nil, nil
	}
	return &cb, nil
}

func (r *pendingRedisRepo) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// Count scans the pending keyspace
func (r *pendingRedisRepo) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pendingKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan pending callbacks: %w", err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}
