package data

import (
	"context"
	"errors"

	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/infra/llm"
)

// llmRepo implements the LLM repository
type llmRepo struct {
	client *llm.Client
}

// NewLLMRepo wraps client. A nil client yields a repo that reports unconfigured.
func NewLLMRepo(client *llm.Client) repo.LLMRepo {
	return &llmRepo{client: client}
}

func (r *llmRepo) Configured() bool {
	return r.client != nil
}

// Complete runs one chat completion
func (r *llmRepo) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if r.client == nil {
		return "", errors.New("llm provider not configured")
	}
	return r.client.Chat(ctx, systemPrompt, userPrompt)
}
