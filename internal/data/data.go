package data

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/infra/discord"
	"github.com/rantbot/rantbot/internal/infra/llm"
	"github.com/rantbot/rantbot/internal/infra/telegram"
)

// Repositories contains all repositories
type Repositories struct {
	UserContext repo.UserContextRepo
	Pending     repo.PendingRepo
	LLM         repo.LLMRepo
	Chats       map[domain.Platform]repo.ChatRepo

	redis *redis.Client
}

// Options selects storage backends
type Options struct {
	ContextDBPath string
	RedisURL      string // empty keeps pending callbacks in memory
	Log           logrus.FieldLogger
}

// NewRepositories creates all repositories. Nil clients leave that platform
// (or the LLM) unconfigured.
func NewRepositories(
	ctx context.Context,
	opts Options,
	llmClient *llm.Client,
	telegramClient *telegram.Client,
	discordClient *discord.Client,
) (*Repositories, error) {
	contextRepo, err := NewUserContextRepo(opts.ContextDBPath, opts.Log)
	if err != nil {
		return nil, err
	}

	repos := &Repositories{
		UserContext: contextRepo,
		LLM:         NewLLMRepo(llmClient),
		Chats:       make(map[domain.Platform]repo.ChatRepo),
	}

	if opts.RedisURL != "" {
		client, err := NewRedisClient(ctx, opts.RedisURL)
		if err != nil {
			contextRepo.Close()
			return nil, err
		}
		repos.redis = client
		repos.Pending = NewPendingRedisRepo(client)
	} else {
		repos.Pending = NewPendingCacheRepo()
	}

	if telegramClient != nil {
		repos.Chats[domain.PlatformTelegram] = NewTelegramChatRepo(telegramClient)
	}
	if discordClient != nil {
		repos.Chats[domain.PlatformDiscord] = NewDiscordChatRepo(discordClient)
	}
	return repos, nil
}

// Close releases database and Redis connections
func (r *Repositories) Close() error {
	err := r.UserContext.Close()
	if r.redis != nil {
		if rerr := r.redis.Close(); err == nil {
			err = rerr
		}
	}
	return err
}
