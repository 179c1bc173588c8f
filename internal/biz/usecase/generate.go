package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/metrics"
)

// GenerationConfig holds prompt text and output caps.
// Fallback texts may contain {{topic}}.
type GenerationConfig struct {
	RantSystemPrompt    string
	CommentSystemPrompt string

	RantUnconfigured    string
	RantError           string
	CommentUnconfigured string
	CommentError        string

	MaxRantWords    int
	MaxCommentChars int
}

// GenerateRequest is the input for one generated reply
type GenerateRequest struct {
	Command    domain.Command
	Topic      string
	QueryType  domain.QueryType
	Platform   domain.Platform
	Annotation string // rendered user context, may be empty
}

// GenerateResult is the reply text and where it came from
type GenerateResult struct {
	Text   string
	Source string // "llm", "fallback" or "error"
}

// GenerateUsecase produces reply text through the LLM collaborator and
// substitutes scripted text whenever the model is unavailable.
type GenerateUsecase struct {
	llm     repo.LLMRepo
	cfg     GenerationConfig
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewGenerateUsecase creates a new generation usecase
func NewGenerateUsecase(llm repo.LLMRepo, cfg GenerationConfig, log logrus.FieldLogger, m *metrics.Metrics) *GenerateUsecase {
	if cfg.MaxRantWords <= 0 {
		cfg.MaxRantWords = 250
	}
	if cfg.MaxCommentChars <= 0 {
		cfg.MaxCommentChars = 280
	}
	return &GenerateUsecase{
		llm:     llm,
		cfg:     cfg,
		log:     log.WithField("component", "generate"),
		metrics: m,
	}
}

// Generate returns reply text. Only an empty topic or unknown command is an error.
func (uc *GenerateUsecase) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, domain.ErrEmptyTopic
	}

	var system, unconfigured, failed string
	switch req.Command {
	case domain.CommandRant:
		system, unconfigured, failed = uc.cfg.RantSystemPrompt, uc.cfg.RantUnconfigured, uc.cfg.RantError
	case domain.CommandComment:
		system, unconfigured, failed = uc.cfg.CommentSystemPrompt, uc.cfg.CommentUnconfigured, uc.cfg.CommentError
	default:
		return nil, domain.ErrUnknownCommand
	}

	if uc.llm == nil || !uc.llm.Configured() {
		uc.metrics.IncGeneration(string(req.Command), "fallback")
		return &GenerateResult{Text: uc.finish(req.Command, fillTopic(unconfigured, req.Topic)), Source: "fallback"}, nil
	}

	text, err := uc.llm.Complete(ctx, system, buildUserPrompt(req))
	if err != nil {
		uc.log.WithFields(logrus.Fields{"command": req.Command}).WithError(err).Error("LLM invocation failed")
		uc.metrics.IncGeneration(string(req.Command), "error")
		return &GenerateResult{Text: uc.finish(req.Command, fillTopic(failed, req.Topic)), Source: "error"}, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		uc.metrics.IncGeneration(string(req.Command), "error")
		return &GenerateResult{Text: uc.finish(req.Command, fillTopic(failed, req.Topic)), Source: "error"}, nil
	}

	uc.metrics.IncGeneration(string(req.Command), "ok")
	return &GenerateResult{Text: uc.finish(req.Command, text), Source: "llm"}, nil
}

func (uc *GenerateUsecase) finish(cmd domain.Command, text string) string {
	if cmd == domain.CommandRant {
		return TruncateWords(StripRantHeader(text), uc.cfg.MaxRantWords)
	}
	return TruncateChars(strings.TrimSpace(text), uc.cfg.MaxCommentChars)
}

func buildUserPrompt(req GenerateRequest) string {
	var sb strings.Builder
	if req.Command == domain.CommandRant {
		fmt.Fprintf(&sb, "topic: %s\n", req.Topic)
	} else {
		fmt.Fprintf(&sb, "query: %s\n", req.Topic)
		fmt.Fprintf(&sb, "queryType: %s\n", req.QueryType)
	}
	if req.Platform != "" {
		fmt.Fprintf(&sb, "platform: %s\n", req.Platform)
	}
	if req.Annotation != "" {
		fmt.Fprintf(&sb, "chatContext: %s\n", req.Annotation)
	} else {
		sb.WriteString("chatContext: (empty)\n")
	}
	return strings.TrimSpace(sb.String())
}

func fillTopic(template, topic string) string {
	return strings.ReplaceAll(template, "{{topic}}", topic)
}

// TruncateWords keeps the first maxWords words, appending "..." when cut
func TruncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

// TruncateChars keeps at most maxChars code points, ending in "…" when cut
func TruncateChars(text string, maxChars int) string {
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxChars-1])) + "…"
}

// A "BrookerBot Rant" title, optionally bold and followed by a separator,
// ending in a line break or a run of two or more spaces
var rantHeaderRe = regexp.MustCompile(`(?i)^(?:\s*\*{0,3})?\s*brookerbot rant\*{0,3}(?:\s*[:\-–—]?\s*)?(?:[\r\n]+|\s{2,})`)

// StripRantHeader removes leading title headers the model sometimes adds.
// A plain first line such as "Rant" is body text and stays.
func StripRantHeader(text string) string {
	cleaned := text
	for rantHeaderRe.MatchString(cleaned) {
		cleaned = strings.TrimLeftFunc(rantHeaderRe.ReplaceAllString(cleaned, ""), unicode.IsSpace)
	}
	return cleaned
}
