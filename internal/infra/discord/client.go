package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://discord.com/api/v10"

// Component types and button styles used by this bot
const (
	componentActionRow = 1
	componentButton    = 2
	buttonStyleLink    = 5
)

// Client is a minimal Discord REST client authenticated as a bot
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient creates a new client. httpClient may be nil.
func NewClient(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

type Component struct {
	Type       int         `json:"type"`
	Style      int         `json:"style,omitempty"`
	Label      string      `json:"label,omitempty"`
	URL        string      `json:"url,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// LinkButtonRow builds an action row holding one link button
func LinkButtonRow(label, url string) []Component {
	return []Component{{
		Type: componentActionRow,
		Components: []Component{{
			Type:  componentButton,
			Style: buttonStyleLink,
			Label: label,
			URL:   url,
		}},
	}}
}

type MessageReference struct {
	MessageID       string `json:"message_id"`
	FailIfNotExists bool   `json:"fail_if_not_exists"`
}

type AllowedMentions struct {
	Parse []string `json:"parse"`
}

// CreateMessageRequest is the body of POST /channels/{id}/messages
type CreateMessageRequest struct {
	Content          string            `json:"content"`
	MessageReference *MessageReference `json:"message_reference,omitempty"`
	Components       []Component       `json:"components,omitempty"`
	AllowedMentions  *AllowedMentions  `json:"allowed_mentions,omitempty"`
}

type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

// CreateMessage posts a message to a channel and returns it
func (c *Client) CreateMessage(ctx context.Context, channelID string, req CreateMessageRequest) (*Message, error) {
	if req.AllowedMentions == nil {
		req.AllowedMentions = &AllowedMentions{Parse: []string{}}
	}
	var msg Message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage deletes a message in a channel
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("discord %s %s: encode: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("discord %s %s: %w", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("discord %s %s: decode: %w", method, path, err)
		}
	}
	return nil
}
