package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/liftlog/internal/analytics"
	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/mcp"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	userID := flag.Int("user", 1, "user id to serve data for")
	flag.Parse()

	// Logs go to stderr: stdout carries the MCP stdio transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := mcp.New(analytics.NewEngine(db), session.NewService(db), Version, log)

	log.Info("LiftLog MCP server starting", "user", *userID)
	if err := mcpserver.ServeStdio(srv,
		mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return mcp.WithUserID(ctx, *userID)
		}),
	); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
