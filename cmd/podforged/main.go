// Command podforged is the podcast generation daemon. It owns the in-memory
// job store, runs generation jobs, and serves the job control API plus the
// rendered episode audio.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"podforge/internal/config"
	"podforge/internal/logging"
	"podforge/internal/materials"
	"podforge/internal/orchestrator"
	"podforge/internal/podcast"
	"podforge/internal/script"
	"podforge/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, resolvedPath, exists, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if exists {
		logger.Info("loaded config", logging.String("path", resolvedPath))
	} else {
		logger.Info("no config file found, using defaults")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("prepare directories", logging.Error(err))
		os.Exit(1)
	}

	// One daemon per storage dir; a second instance would race the store's
	// view of the artifacts on disk.
	lock := flock.New(cfg.Paths.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("acquire daemon lock", logging.Error(err))
		os.Exit(1)
	}
	if !locked {
		logger.Error("another podforged instance is already running",
			logging.String("lock_file", cfg.Paths.LockFile))
		os.Exit(1)
	}
	defer lock.Unlock() //nolint:errcheck

	store := podcast.NewStore()
	if added := store.Rescan(cfg.Paths.StorageDir); added > 0 {
		logger.Info("adopted existing episodes from storage", logging.Int("added", added))
	}

	orch := orchestrator.New(
		store,
		materials.NewResolver(cfg.Paths.MaterialsDir1, cfg.Paths.MaterialsDir2, logger),
		newProducer(cfg, logger),
		newSynthesizer(cfg, logger),
		orchestrator.Config{
			StorageDir:         cfg.Paths.StorageDir,
			CheckpointInterval: time.Duration(cfg.Workflow.CheckpointIntervalMS) * time.Millisecond,
			ScriptCheckpoints:  cfg.Workflow.ScriptCheckpoints,
		},
		logger,
	)

	orch.Start(ctx)

	srv := server.New(cfg.Paths.Bind, cfg.Paths.StorageDir, store, orch, logger)
	if err := srv.Start(ctx); err != nil {
		logger.Error("start api server", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("podforged shutting down")
	srv.Stop()
	orch.Stop()
}

func newProducer(cfg *config.Config, logger *slog.Logger) *script.Producer {
	if cfg.Script.APIKey == "" {
		logger.Info("no script api key configured, using local composer")
		return script.NewProducer(nil, logger)
	}
	client := script.NewClient(script.ClientConfig{
		APIKey:         cfg.Script.APIKey,
		BaseURL:        cfg.Script.BaseURL,
		Model:          cfg.Script.Model,
		TimeoutSeconds: cfg.Script.TimeoutSeconds,
	})
	return script.NewProducer(client, logger)
}
