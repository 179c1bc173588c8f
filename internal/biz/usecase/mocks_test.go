package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/infra/logger"
)

var discardLog = logger.Discard()

// Mock implementations

type mockUserContextRepo struct {
	mu      sync.Mutex
	records map[string]*domain.UserContext
	getErr  error
	saveErr error
	gets    int
}

func newMockUserContextRepo() *mockUserContextRepo {
	return &mockUserContextRepo{records: make(map[string]*domain.UserContext)}
}

func recordKey(p domain.Platform, id string) string { return string(p) + ":" + id }

func (m *mockUserContextRepo) Get(ctx context.Context, platform domain.Platform, userID string) (*domain.UserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.records[recordKey(platform, userID)]
	if !ok {
		return nil, nil
	}
	cp := *r
	cp.NotableMessages = append([]string(nil), r.NotableMessages...)
	cp.Keywords = make(map[string]int, len(r.Keywords))
	for k, v := range r.Keywords {
		cp.Keywords[k] = v
	}
	return &cp, nil
}

func (m *mockUserContextRepo) FindByUsername(ctx context.Context, platform domain.Platform, username string) (*domain.UserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, r := range m.records {
		if r.Platform == platform && domain.NormalizeUsername(r.Username) == username {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockUserContextRepo) Upsert(ctx context.Context, record *domain.UserContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[recordKey(record.Platform, record.UserID)] = record
	return nil
}

func (m *mockUserContextRepo) Close() error { return nil }

type mockPendingRepo struct {
	mu      sync.Mutex
	entries map[string]*domain.PendingCallback
	takeErr error
}

func newMockPendingRepo() *mockPendingRepo {
	return &mockPendingRepo{entries: make(map[string]*domain.PendingCallback)}
}

func (m *mockPendingRepo) Put(ctx context.Context, cb *domain.PendingCallback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[cb.Token]; ok {
		return domain.ErrTokenExists
	}
	cp := *cb
	m.entries[cb.Token] = &cp
	return nil
}

func (m *mockPendingRepo) Take(ctx context.Context, token string, now time.Time) (*domain.PendingCallback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takeErr != nil {
		return nil, m.takeErr
	}
	cb, ok := m.entries[token]
	if !ok {
		return nil, nil
	}
	delete(m.entries, token)
	if cb.IsExpired(now) {
		return nil, nil
	}
	return cb, nil
}

func (m *mockPendingRepo) Sweep(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for token, cb := range m.entries {
		if cb.IsExpired(now) {
			delete(m.entries, token)
			n++
		}
	}
	return n, nil
}

func (m *mockPendingRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

type mockLLMRepo struct {
	configured bool
	response   string
	err        error

	mu          sync.Mutex
	lastSystem  string
	lastUser    string
	invocations int
}

func (m *mockLLMRepo) Configured() bool { return m.configured }

func (m *mockLLMRepo) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invocations++
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt
	return m.response, m.err
}

var errStorage = errors.New("disk on fire")

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
