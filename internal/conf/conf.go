package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rantbot/rantbot/internal/biz/usecase"
	"github.com/rantbot/rantbot/internal/infra/discord"
	"github.com/rantbot/rantbot/internal/infra/telegram"
)

// Config represents application configuration
type Config struct {
	Telegram TelegramConfig
	Discord  DiscordConfig
	Payment  PaymentConfig
	Storage  StorageConfig
	LLM      LLMConfig
	HTTP     HTTPConfig
	Log      LogConfig

	MaxRantWords    int
	MaxCommentChars int

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig
	// PromptsErr is set when the prompts file exists but cannot be parsed
	PromptsErr error

	// Debug mode
	Debug bool
}

// TelegramConfig contains Telegram Bot API configuration
type TelegramConfig struct {
	BotToken    string
	APIBase     string
	PollTimeout time.Duration
}

// DiscordConfig contains Discord REST configuration
type DiscordConfig struct {
	BotToken string
	APIBase  string
}

// PaymentConfig contains payment link and callback settings
type PaymentConfig struct {
	PublicBaseURL string
	Price         string
	CallbackTTL   time.Duration
	SweepInterval time.Duration
}

// StorageConfig contains storage locations
type StorageConfig struct {
	ContextDBPath string
	RedisURL      string
}

// LLMConfig contains the OpenAI-compatible provider settings
type LLMConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// HTTPConfig contains the HTTP listener settings
type HTTPConfig struct {
	Addr   string
	Secret string // bearer token for /api, empty disables auth
}

// LogConfig contains logger settings
type LogConfig struct {
	Level string
	JSON  bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	contextDBPath := os.Getenv("CONTEXT_DB_PATH")
	if contextDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		contextDBPath = filepath.Join(homeDir, ".rantbot", "user_context.db")
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8787"
	}

	price := strings.TrimSpace(os.Getenv("ENTRYPOINT_PRICE"))
	if price == "" {
		price = "0.05"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	debug := os.Getenv("DEBUG") == "true"
	if logLevel == "" {
		logLevel = "info"
		if debug {
			logLevel = "debug"
		}
	}

	promptsConfig, promptsErr := LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG_PATH"))

	return &Config{
		Telegram: TelegramConfig{
			BotToken:    strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
			APIBase:     envOr("TELEGRAM_API_BASE", telegram.DefaultBaseURL),
			PollTimeout: envSeconds("TELEGRAM_POLL_TIMEOUT_SECONDS", 30),
		},
		Discord: DiscordConfig{
			BotToken: strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")),
			APIBase:  envOr("DISCORD_API_BASE", discord.DefaultBaseURL),
		},
		Payment: PaymentConfig{
			PublicBaseURL: NormalizeBaseURL(os.Getenv("PUBLIC_BASE_URL")),
			Price:         price,
			CallbackTTL:   envSeconds("PAYMENT_CALLBACK_TTL_SECONDS", 300),
			SweepInterval: envSeconds("PENDING_SWEEP_SECONDS", 60),
		},
		Storage: StorageConfig{
			ContextDBPath: contextDBPath,
			RedisURL:      strings.TrimSpace(os.Getenv("REDIS_URL")),
		},
		LLM: LLMConfig{
			APIKey:  firstEnv("OPENAI_API_KEY", "AX_OPENAI_API_KEY", "AXLLM_OPENAI_API_KEY"),
			Model:   firstEnv("OPENAI_MODEL", "AX_MODEL", "AXLLM_MODEL"),
			BaseURL: firstEnv("OPENAI_API_URL", "AX_API_URL", "AXLLM_API_URL"),
		},
		HTTP: HTTPConfig{Addr: httpAddr, Secret: os.Getenv("API_SHARED_SECRET")},
		Log: LogConfig{
			Level: logLevel,
			JSON:  os.Getenv("LOG_JSON") == "true",
		},
		MaxRantWords:    envInt("MAX_RANT_WORDS", 250),
		MaxCommentChars: envInt("MAX_COMMENT_CHARS", 280),
		Prompts:         promptsConfig,
		PromptsErr:      promptsErr,
		Debug:           debug,
	}
}

func envOr(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return ""
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}

// NormalizeBaseURL adds https:// when the scheme is missing and drops trailing slashes
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// ToGenerationConfig converts to generation configuration
func (c *Config) ToGenerationConfig() usecase.GenerationConfig {
	p := c.Prompts
	if p == nil {
		p = DefaultPromptsConfig()
	}
	return usecase.GenerationConfig{
		RantSystemPrompt:    p.Rant.SystemPrompt,
		CommentSystemPrompt: p.Comment.SystemPrompt,
		RantUnconfigured:    p.Rant.UnconfiguredFallback,
		RantError:           p.Rant.ErrorFallback,
		CommentUnconfigured: p.Comment.UnconfiguredFallback,
		CommentError:        p.Comment.ErrorFallback,
		MaxRantWords:        c.MaxRantWords,
		MaxCommentChars:     c.MaxCommentChars,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" && c.Discord.BotToken == "" {
		return &ConfigError{Field: "TELEGRAM_BOT_TOKEN/DISCORD_BOT_TOKEN", Message: "at least one is required"}
	}
	if c.Payment.PublicBaseURL == "" {
		return &ConfigError{Field: "PUBLIC_BASE_URL", Message: "required"}
	}
	if c.Storage.ContextDBPath == "" {
		return &ConfigError{Field: "CONTEXT_DB_PATH", Message: "required"}
	}
	if c.PromptsErr != nil {
		return &ConfigError{Field: "PROMPTS_CONFIG_PATH", Message: c.PromptsErr.Error()}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
