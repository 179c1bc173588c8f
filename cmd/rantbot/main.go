package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rantbot/rantbot/internal/api"
	"github.com/rantbot/rantbot/internal/biz"
	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/conf"
	"github.com/rantbot/rantbot/internal/data"
	"github.com/rantbot/rantbot/internal/infra/discord"
	"github.com/rantbot/rantbot/internal/infra/llm"
	"github.com/rantbot/rantbot/internal/infra/logger"
	"github.com/rantbot/rantbot/internal/infra/telegram"
	"github.com/rantbot/rantbot/internal/metrics"
	"github.com/rantbot/rantbot/internal/server"
	"github.com/rantbot/rantbot/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logr := logger.New(cfg.Log.Level, cfg.Log.JSON)
	logr.WithField("source", cfg.Prompts.Source).Info("Prompts loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Initialize clients
	llmClient := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})
	if llmClient == nil {
		logr.Warn("No LLM API key set, replies will use the fallback text")
	}

	var telegramClient *telegram.Client
	if cfg.Telegram.BotToken != "" {
		httpClient := &http.Client{Timeout: cfg.Telegram.PollTimeout + 15*time.Second}
		telegramClient = telegram.NewClient(httpClient, cfg.Telegram.APIBase, cfg.Telegram.BotToken)
		me, err := telegramClient.GetMe(ctx)
		if err != nil {
			logr.Fatalf("Telegram getMe failed: %v", err)
		}
		logr.WithField("username", me.Username).Info("Telegram bot authenticated")
	}

	var discordClient *discord.Client
	if cfg.Discord.BotToken != "" {
		discordClient = discord.NewClient(&http.Client{Timeout: 20 * time.Second}, cfg.Discord.APIBase, cfg.Discord.BotToken)
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(ctx, data.Options{
		ContextDBPath: cfg.Storage.ContextDBPath,
		RedisURL:      cfg.Storage.RedisURL,
		Log:           logr,
	}, llmClient, telegramClient, discordClient)
	if err != nil {
		logr.Fatalf("Failed to create repositories: %v", err)
	}
	logr.WithField("path", cfg.Storage.ContextDBPath).Info("User context store opened")

	// Initialize usecase layer
	ucs := biz.NewUsecases(repos.UserContext, repos.Pending, repos.LLM, cfg.ToGenerationConfig(), logr, m)
	contextUC, callbackUC := ucs.Context, ucs.Callback

	m.RegisterPendingGauge(func() float64 {
		return float64(callbackUC.PendingCount(context.Background()))
	})

	// Initialize service layer
	texts := cfg.Prompts.Chat
	cmdSvc := service.NewCommandService(contextUC, callbackUC, ucs.Generate, repos.Chats, service.CommandConfig{
		PublicBaseURL:    cfg.Payment.PublicBaseURL,
		Price:            cfg.Payment.Price,
		CallbackTTL:      cfg.Payment.CallbackTTL,
		HelpText:         texts.Help,
		PaymentPrompt:    texts.PaymentPrompt,
		PaymentButton:    texts.PaymentButton,
		EmptyTopicReply:  texts.EmptyTopicReply,
		RequestFailReply: texts.RequestFailReply,
	}, logr)

	sweeper, err := service.NewSweeper(callbackUC, cfg.Payment.SweepInterval, logr)
	if err != nil {
		logr.Fatalf("Failed to create sweeper: %v", err)
	}
	if err := sweeper.Start(ctx); err != nil {
		logr.Fatalf("Failed to start sweeper: %v", err)
	}

	apiServer := api.NewServer(cmdSvc, contextUC, m, cfg.HTTP.Secret, cfg.HTTP.Addr, logr)
	go func() {
		if err := apiServer.Start(); err != nil {
			logr.Errorf("API server error: %v", err)
			stop()
		}
	}()

	var tgServer *server.TelegramServer
	if telegramClient != nil {
		tgServer = server.NewTelegramServer(telegramClient, cmdSvc, cfg.Telegram.PollTimeout, logr)
		tgServer.Start(ctx)
	}

	logr.WithField("platforms", platformNames(repos.Chats)).Info("rantbot started")
	<-ctx.Done()
	logr.Info("Shutting down...")

	if tgServer != nil {
		tgServer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logr.WithError(err).Warn("API server shutdown")
	}
	cmdSvc.Wait()
	if err := sweeper.Stop(); err != nil {
		logr.WithError(err).Warn("Sweeper shutdown")
	}
	if err := repos.Close(); err != nil {
		logr.WithError(err).Warn("Closing repositories")
	}
}

func platformNames(chats map[domain.Platform]repo.ChatRepo) []string {
	names := make([]string, 0, len(chats))
	for p := range chats {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}
