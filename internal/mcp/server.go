// Package mcp exposes the user context store to MCP clients over stdio.
// Every tool is read-only.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/usecase"
)

// ContextReader is the slice of the user context usecase the tools need
type ContextReader interface {
	GetContext(ctx context.Context, platform domain.Platform, userID string) *domain.UserContext
	FindByUsername(ctx context.Context, platform domain.Platform, username string) *domain.UserContext
	RenderForPrompt(record *domain.UserContext) string
}

var _ ContextReader = (*usecase.UserContextUsecase)(nil)

// Server wraps an MCP server with the context lookup tools registered
type Server struct {
	server   *mcp.Server
	contexts ContextReader
	log      logrus.FieldLogger
}

// NewServer creates the server and registers its tools
func NewServer(contexts ContextReader, version string, log logrus.FieldLogger) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "rantbot-context",
			Version: version,
		}, nil),
		contexts: contexts,
		log:      log.WithField("component", "mcp"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_user_context",
		Description: "Look up the stored chat history summary for a user by platform and user id.",
	}, s.handleGetUserContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_user_context",
		Description: "Look up the stored chat history summary for a user by platform and @username.",
	}, s.handleFindUserContext)
}

// Run serves MCP over stdin/stdout until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("MCP server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetUserContextInput identifies a user by id
type GetUserContextInput struct {
	Platform string `json:"platform" jsonschema:"Chat platform, telegram or discord"`
	UserID   string `json:"user_id" jsonschema:"Platform user id"`
}

// FindUserContextInput identifies a user by username
type FindUserContextInput struct {
	Platform string `json:"platform" jsonschema:"Chat platform, telegram or discord"`
	Username string `json:"username" jsonschema:"Username with or without the leading @"`
}

// UserContextOutput is the summary returned by both tools
type UserContextOutput struct {
	Found        bool     `json:"found"`
	Platform     string   `json:"platform"`
	UserID       string   `json:"user_id,omitempty"`
	Username     string   `json:"username,omitempty"`
	DisplayName  string   `json:"display_name,omitempty"`
	MessageCount int      `json:"message_count"`
	Keywords     []string `json:"keywords,omitempty"`
	Annotation   string   `json:"annotation,omitempty"`
}

func (s *Server) handleGetUserContext(ctx context.Context, req *mcp.CallToolRequest, input GetUserContextInput) (*mcp.CallToolResult, UserContextOutput, error) {
	platform, err := domain.ParsePlatform(input.Platform)
	if err != nil {
		return nil, UserContextOutput{}, fmt.Errorf("platform %q: %w", input.Platform, err)
	}
	if input.UserID == "" {
		return nil, UserContextOutput{}, domain.ErrInvalidUserID
	}

	record := s.contexts.GetContext(ctx, platform, input.UserID)
	out := s.toOutput(platform, record)
	if !out.Found {
		out.UserID = input.UserID
	}
	return nil, out, nil
}

func (s *Server) handleFindUserContext(ctx context.Context, req *mcp.CallToolRequest, input FindUserContextInput) (*mcp.CallToolResult, UserContextOutput, error) {
	platform, err := domain.ParsePlatform(input.Platform)
	if err != nil {
		return nil, UserContextOutput{}, fmt.Errorf("platform %q: %w", input.Platform, err)
	}

	record := s.contexts.FindByUsername(ctx, platform, input.Username)
	out := s.toOutput(platform, record)
	if !out.Found {
		out.Username = domain.NormalizeUsername(input.Username)
	}
	return nil, out, nil
}

func (s *Server) toOutput(platform domain.Platform, record *domain.UserContext) UserContextOutput {
	out := UserContextOutput{Platform: string(platform)}
	if record == nil {
		return out
	}
	out.Found = true
	out.UserID = record.UserID
	out.Username = record.Username
	out.DisplayName = record.DisplayName
	out.MessageCount = record.MessageCount
	for _, kc := range domain.RankKeywords(record.Keywords) {
		out.Keywords = append(out.Keywords, kc.Word)
	}
	out.Annotation = s.contexts.RenderForPrompt(record)
	return out
}
