package conf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("PAYMENT_CALLBACK_TTL_SECONDS", "")
	t.Setenv("PROMPTS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := LoadFromEnv()
	if cfg.Payment.CallbackTTL != 300*time.Second {
		t.Errorf("Expected ttl 300s, got %v", cfg.Payment.CallbackTTL)
	}
	if cfg.Payment.SweepInterval != 60*time.Second {
		t.Errorf("Expected sweep 60s, got %v", cfg.Payment.SweepInterval)
	}
	if cfg.Payment.Price != "0.05" {
		t.Errorf("Expected price 0.05, got %s", cfg.Payment.Price)
	}
	if cfg.MaxRantWords != 250 || cfg.MaxCommentChars != 280 {
		t.Errorf("Unexpected caps %d/%d", cfg.MaxRantWords, cfg.MaxCommentChars)
	}
	if cfg.HTTP.Addr != ":8787" {
		t.Errorf("Expected :8787, got %s", cfg.HTTP.Addr)
	}
	if cfg.Prompts == nil || cfg.Prompts.Rant.SystemPrompt == "" {
		t.Error("Expected default prompts")
	}
}

func TestLoadFromEnv_LLMFallbackKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("AX_OPENAI_API_KEY", "")
	t.Setenv("AXLLM_OPENAI_API_KEY", "sk-axllm")
	t.Setenv("OPENAI_MODEL", "gpt-test")

	cfg := LoadFromEnv()
	if cfg.LLM.APIKey != "sk-axllm" {
		t.Errorf("Expected AXLLM key fallback, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "gpt-test" {
		t.Errorf("Expected model gpt-test, got %q", cfg.LLM.Model)
	}
}

func TestLoadFromEnv_BadNumbersUseDefaults(t *testing.T) {
	t.Setenv("PAYMENT_CALLBACK_TTL_SECONDS", "soon")
	t.Setenv("MAX_RANT_WORDS", "-4")

	cfg := LoadFromEnv()
	if cfg.Payment.CallbackTTL != 300*time.Second {
		t.Errorf("Expected default ttl, got %v", cfg.Payment.CallbackTTL)
	}
	if cfg.MaxRantWords != 250 {
		t.Errorf("Expected default word cap, got %d", cfg.MaxRantWords)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"bot.example.com", "https://bot.example.com"},
		{"http://localhost:8787/", "http://localhost:8787"},
		{" https://x.io// ", "https://x.io"},
	}
	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{ContextDBPath: "x.db"}}

	var cerr *ConfigError
	if err := cfg.Validate(); !errors.As(err, &cerr) || cerr.Field != "TELEGRAM_BOT_TOKEN/DISCORD_BOT_TOKEN" {
		t.Errorf("Expected token error, got %v", err)
	}

	cfg.Discord.BotToken = "d"
	if err := cfg.Validate(); !errors.As(err, &cerr) || cerr.Field != "PUBLIC_BASE_URL" {
		t.Errorf("Expected base url error, got %v", err)
	}

	cfg.Payment.PublicBaseURL = "https://bot.example.com"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoadPromptsConfig_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	yaml := "rant:\n  system_prompt: custom rant\ncomment:\n  error_fallback: oops {{topic}}\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPromptsConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Source != path {
		t.Errorf("Expected source %s, got %s", path, cfg.Source)
	}
	if cfg.Rant.SystemPrompt != "custom rant" {
		t.Errorf("Expected custom rant prompt, got %q", cfg.Rant.SystemPrompt)
	}
	if cfg.Comment.ErrorFallback != "oops {{topic}}" {
		t.Errorf("Expected custom fallback, got %q", cfg.Comment.ErrorFallback)
	}
	defaults := DefaultPromptsConfig()
	if cfg.Comment.SystemPrompt != defaults.Comment.SystemPrompt {
		t.Error("Expected default comment prompt filled in")
	}
	if cfg.Chat.PaymentButton != defaults.Chat.PaymentButton {
		t.Error("Expected default payment button filled in")
	}
}

func TestLoadPromptsConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	_ = os.WriteFile(path, []byte("rant: [unclosed"), 0644)

	cfg, err := LoadPromptsConfig(path)
	if err == nil {
		t.Error("Expected parse error")
	}
	if cfg == nil || cfg.Rant.SystemPrompt == "" {
		t.Error("Expected defaults returned alongside the error")
	}
}

func TestToGenerationConfig(t *testing.T) {
	cfg := &Config{MaxRantWords: 100, MaxCommentChars: 140, Prompts: DefaultPromptsConfig()}
	gen := cfg.ToGenerationConfig()
	if gen.MaxRantWords != 100 || gen.MaxCommentChars != 140 {
		t.Errorf("Unexpected caps %+v", gen)
	}
	if gen.RantSystemPrompt == "" || gen.CommentError == "" {
		t.Error("Expected prompts populated")
	}
}

func TestLoadFromEnv_BrokenPromptsFailsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	_ = os.WriteFile(path, []byte("rant: [unclosed"), 0644)
	t.Setenv("PROMPTS_CONFIG_PATH", path)
	t.Setenv("TELEGRAM_BOT_TOKEN", "t")
	t.Setenv("PUBLIC_BASE_URL", "bot.example.com")
	t.Setenv("CONTEXT_DB_PATH", filepath.Join(t.TempDir(), "ctx.db"))

	cfg := LoadFromEnv()
	if cfg.PromptsErr == nil {
		t.Fatal("Expected prompts parse error to be kept")
	}
	var cerr *ConfigError
	if err := cfg.Validate(); !errors.As(err, &cerr) || cerr.Field != "PROMPTS_CONFIG_PATH" {
		t.Errorf("Expected prompts config error, got %v", err)
	}

	t.Setenv("PROMPTS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	if err := LoadFromEnv().Validate(); err != nil {
		t.Errorf("Expected missing prompts file to fall back to defaults, got %v", err)
	}
}
