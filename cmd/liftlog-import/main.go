package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("path", "", "path to directory of CSV exports (required)")
	stateDir := flag.String("state-dir", ".liftlog-import", "directory for the import state database")
	userID := flag.Int("user", 1, "user id to import data for")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-import -config config.yaml -path /path/to/exports [-state-dir dir] [-user id]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Run import
	imp := importer.New(db, log)
	result, err := imp.ImportDir(ctx, *userID, *exportPath, *stateDir)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	log.Info("import finished",
		"sessions", result.SessionsImported,
		"sets", result.SetsImported,
		"files_skipped", result.FilesSkipped,
	)
}
