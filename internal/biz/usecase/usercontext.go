package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/metrics"
)

// UserContextUsecase maintains the rolling per-user history summaries
type UserContextUsecase struct {
	repo    repo.UserContextRepo
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	locks   *keyLock
	now     func() time.Time
}

// NewUserContextUsecase creates a new user context usecase
func NewUserContextUsecase(contextRepo repo.UserContextRepo, log logrus.FieldLogger, m *metrics.Metrics) *UserContextUsecase {
	return &UserContextUsecase{
		repo:    contextRepo,
		log:     log.WithField("component", "user_context"),
		metrics: m,
		locks:   newKeyLock(),
		now:     time.Now,
	}
}

// SetClock overrides the wall clock, for tests
func (uc *UserContextUsecase) SetClock(now func() time.Time) {
	uc.now = now
}

// Ingest folds one message into the user's record. Failures are logged and
// dropped: a lost update must never break message delivery.
func (uc *UserContextUsecase) Ingest(ctx context.Context, platform domain.Platform, userID string, msg domain.IncomingMessage) {
	fields := logrus.Fields{"platform": platform, "user_id": userID}
	if !platform.Valid() || strings.TrimSpace(userID) == "" {
		uc.log.WithFields(fields).Warn("Skipping ingest for invalid key")
		uc.metrics.IncIngested(string(platform), "error")
		return
	}

	unlock := uc.locks.Lock(string(platform) + ":" + userID)
	defer unlock()

	record, err := uc.repo.Get(ctx, platform, userID)
	if err != nil {
		uc.log.WithFields(fields).WithError(err).Warn("Failed to load user context")
		uc.metrics.IncIngested(string(platform), "error")
		return
	}
	if record == nil {
		record = domain.NewUserContext(platform, userID)
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = uc.now()
	}
	record.Apply(msg, uc.now())

	if err := uc.repo.Upsert(ctx, record); err != nil {
		uc.log.WithFields(fields).WithError(err).Warn("Failed to update user context")
		uc.metrics.IncIngested(string(platform), "error")
		return
	}
	uc.metrics.IncIngested(string(platform), "ok")
}

// GetContext returns the stored record or nil. Storage errors read as "never seen".
func (uc *UserContextUsecase) GetContext(ctx context.Context, platform domain.Platform, userID string) *domain.UserContext {
	record, err := uc.repo.Get(ctx, platform, userID)
	if err != nil {
		uc.log.WithFields(logrus.Fields{"platform": platform, "user_id": userID}).WithError(err).Warn("Failed to get user context")
		return nil
	}
	return record
}

// FindByUsername resolves an @username to its record, nil if unknown
func (uc *UserContextUsecase) FindByUsername(ctx context.Context, platform domain.Platform, username string) *domain.UserContext {
	name := domain.NormalizeUsername(username)
	if name == "" {
		return nil
	}
	record, err := uc.repo.FindByUsername(ctx, platform, name)
	if err != nil {
		uc.log.WithFields(logrus.Fields{"platform": platform, "username": name}).WithError(err).Warn("Failed to find user context")
		return nil
	}
	return record
}

// RenderForPrompt renders the record's annotation, or "" when record is nil
func (uc *UserContextUsecase) RenderForPrompt(record *domain.UserContext) string {
	if record == nil {
		return ""
	}
	return record.Render(uc.now())
}
