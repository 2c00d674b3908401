// Package main implements the entry point for the anthem API server,
// which turns a visitor's photo into a stylized National Day video and
// serves the companion quiz.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/anthemlabs/anthem-api/internal/config"
	"github.com/anthemlabs/anthem-api/internal/platform/logger"
)

func main() {
	app, err := initializeApp(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration, sets up logging and builds the
// application with all dependencies wired.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"storage", storageName(cfg.Storage.UseS3),
		"max_upload_mb", cfg.Upload.MaxSizeMB,
		"workers", cfg.Task.WorkerCount,
		"queue_size", cfg.Task.QueueSize)

	return newApplication(ctx, cfg, appLogger)
}

func storageName(useS3 bool) string {
	if useS3 {
		return "s3"
	}
	return "local"
}
