// Command rantbot-mcp serves read-only user context lookups over MCP stdio.
// It opens the same SQLite file as the bot.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rantbot/rantbot/internal/biz/usecase"
	"github.com/rantbot/rantbot/internal/conf"
	"github.com/rantbot/rantbot/internal/data"
	"github.com/rantbot/rantbot/internal/infra/logger"
	"github.com/rantbot/rantbot/internal/mcp"
)

var version = "dev"

func main() {
	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	_ = godotenv.Load()

	cfg := conf.LoadFromEnv()
	logr := logger.New(cfg.Log.Level, cfg.Log.JSON)
	logr.Out = os.Stderr

	contextRepo, err := data.NewUserContextRepo(cfg.Storage.ContextDBPath, logr)
	if err != nil {
		logr.Fatalf("Failed to open user context store: %v", err)
	}
	defer contextRepo.Close()

	contextUC := usecase.NewUserContextUsecase(contextRepo, logr, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcp.NewServer(contextUC, version, logr).Run(ctx); err != nil && ctx.Err() == nil {
		logr.Errorf("MCP server error: %v", err)
	}
}
