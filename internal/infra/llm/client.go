package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

// Config selects an OpenAI-compatible provider
type Config struct {
	APIKey      string
	BaseURL     string // empty for api.openai.com
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client is a thin chat-completion client over any OpenAI-compatible API
type Client struct {
	client  *openai.Client
	model   string
	temp    float32
	maxTok  int
	timeout time.Duration
}

// NewClient creates a new client. Returns nil when no API key is set.
func NewClient(cfg Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:  openai.NewClientWithConfig(config),
		model:   cfg.Model,
		temp:    cfg.Temperature,
		maxTok:  cfg.MaxTokens,
		timeout: cfg.Timeout,
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Chat sends one system+user exchange and returns the reply text
func (c *Client) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: c.temp,
		MaxTokens:   c.maxTok,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return resp.Choices[0].Message.Content, nil
}
