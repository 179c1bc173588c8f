package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/metrics"
)

// CallbackUsecase correlates payment completions with the requests that
// triggered them. Each token resolves at most once and never after expiry.
type CallbackUsecase struct {
	repo     repo.PendingRepo
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	now      func() time.Time
	newToken func() string
}

// NewCallbackUsecase creates a new callback usecase
func NewCallbackUsecase(pendingRepo repo.PendingRepo, log logrus.FieldLogger, m *metrics.Metrics) *CallbackUsecase {
	return &CallbackUsecase{
		repo:     pendingRepo,
		log:      log.WithField("component", "callbacks"),
		metrics:  m,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// SetClock overrides the wall clock, for tests
func (uc *CallbackUsecase) SetClock(now func() time.Time) {
	uc.now = now
}

// NewToken mints an unguessable token without storing anything
func (uc *CallbackUsecase) NewToken() string {
	return uc.newToken()
}

// CreatePending stores req under a fresh token that expires after ttl
func (uc *CallbackUsecase) CreatePending(ctx context.Context, req domain.CallbackRequest, ttl time.Duration) (string, error) {
	token := uc.newToken()
	err := uc.CreatePendingWithToken(ctx, token, req, ttl)
	if errors.Is(err, domain.ErrTokenExists) {
		// one retry with a fresh token
		token = uc.newToken()
		err = uc.CreatePendingWithToken(ctx, token, req, ttl)
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// CreatePendingWithToken stores req under a token minted earlier by NewToken.
// Used when the token must appear in a message sent before the entry exists.
func (uc *CallbackUsecase) CreatePendingWithToken(ctx context.Context, token string, req domain.CallbackRequest, ttl time.Duration) error {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return domain.ErrEmptyTopic
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %v", ttl)
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	now := uc.now()
	cb := &domain.PendingCallback{
		Token:           token,
		CallbackRequest: req,
		CreatedAt:       now,
		ExpiresAt:       now.Add(ttl),
	}

	if err := uc.repo.Put(ctx, cb); err != nil {
		if errors.Is(err, domain.ErrTokenExists) {
			return err
		}
		return fmt.Errorf("store pending callback: %w", err)
	}

	uc.metrics.IncPendingCreated(string(req.Platform), string(req.Command))
	uc.log.WithFields(logrus.Fields{
		"token":    token,
		"platform": req.Platform,
		"command":  req.Command,
	}).Debug("Pending callback created")
	return nil
}

// ResolvePending consumes the entry for token. It returns (nil, nil) when
// there is nothing to fulfill: unknown, already consumed, or expired.
func (uc *CallbackUsecase) ResolvePending(ctx context.Context, token string) (*domain.PendingCallback, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		uc.metrics.IncPendingResolved("absent")
		return nil, nil
	}

	cb, err := uc.repo.Take(ctx, token, uc.now())
	if err != nil {
		return nil, fmt.Errorf("take pending callback: %w", err)
	}
	if cb == nil {
		uc.metrics.IncPendingResolved("absent")
		uc.log.WithField("token", token).Debug("No pending callback for token")
		return nil, nil
	}

	uc.metrics.IncPendingResolved("fulfilled")
	return cb, nil
}

// Sweep removes expired entries. Safe to run concurrently with ResolvePending.
func (uc *CallbackUsecase) Sweep(ctx context.Context) (int, error) {
	n, err := uc.repo.Sweep(ctx, uc.now())
	if err != nil {
		return 0, fmt.Errorf("sweep pending callbacks: %w", err)
	}
	uc.metrics.AddSwept(n)
	if n > 0 {
		uc.log.WithField("removed", n).Info("Swept expired pending callbacks")
	}
	return n, nil
}

// PendingCount returns the number of stored entries, -1 on error
func (uc *CallbackUsecase) PendingCount(ctx context.Context) int {
	n, err := uc.repo.Count(ctx)
	if err != nil {
		return -1
	}
	return n
}
