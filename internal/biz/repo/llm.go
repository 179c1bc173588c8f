package repo

import "context"

// LLMRepo is the language-model collaborator
type LLMRepo interface {
	// Configured reports whether a provider is available
	Configured() bool

	// Complete runs one system+user exchange and returns the model text
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
