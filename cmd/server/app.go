package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/anthemlabs/anthem-api/internal/config"
	"github.com/anthemlabs/anthem-api/internal/domain"
	"github.com/anthemlabs/anthem-api/internal/generation"
	"github.com/anthemlabs/anthem-api/internal/media"
	"github.com/anthemlabs/anthem-api/internal/platform/wavespeed"
	"github.com/anthemlabs/anthem-api/internal/quiz"
	"github.com/anthemlabs/anthem-api/internal/store"
	"github.com/anthemlabs/anthem-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	jobs       store.JobStore
	mediaStore media.Store
	generator  generation.Generator
	fetcher    *media.Fetcher
	quizBank   *quiz.Bank

	uploadDir string

	taskRunner *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. Storage setup is fail-fast: when S3 is configured but
// unreachable, startup errors instead of silently degrading to local disk.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	app.jobs = store.NewMemoryJobStore()

	uploadDir := filepath.Join(cfg.Storage.DataDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	app.uploadDir = uploadDir

	mediaStore, err := setupMediaStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}
	app.mediaStore = mediaStore
	logger.Info("media storage initialized", "backend", mediaStore.Name())

	app.generator, err = wavespeed.NewClient(cfg.Generation, logger.With("component", "wavespeed"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation client: %w", err)
	}

	app.fetcher = media.NewFetcher()

	app.quizBank, err = quiz.NewBank()
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz bank: %w", err)
	}
	logger.Info("quiz bank loaded", "questions", app.quizBank.Size())

	app.taskRunner, err = setupTaskRunner(app)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupMediaStore selects the storage backend from configuration.
func setupMediaStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (media.Store, error) {
	if cfg.UseS3 {
		return media.NewS3Store(ctx, cfg, logger)
	}
	return media.NewLocalStore(cfg.DataDir, cfg.PublicBaseURL)
}

// setupTaskRunner initializes and starts the background pipeline workers.
func setupTaskRunner(app *application) (*task.TaskRunner, error) {
	taskRunner := task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: app.config.Task.WorkerCount,
		QueueSize:   app.config.Task.QueueSize,
	}, app.logger)

	if err := taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	return taskRunner, nil
}

// StartPipeline creates the generation task for an accepted submission and
// enqueues it. Returns task.ErrQueueFull when the pool cannot accept more
// work; the handler turns that into a 503.
func (app *application) StartPipeline(jobID uuid.UUID, uploadPath string, category domain.Category) error {
	t, err := task.NewVideoGenerationTask(
		jobID,
		uploadPath,
		category,
		app.jobs,
		app.generator,
		app.mediaStore,
		app.fetcher,
		task.FetchTimeouts{
			Image: time.Duration(app.config.Generation.ImageFetchTimeoutSecs) * time.Second,
			Video: time.Duration(app.config.Generation.VideoFetchTimeoutSecs) * time.Second,
		},
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline task: %w", err)
	}

	return app.taskRunner.Submit(context.Background(), t)
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	app.logger.Info("Application shutdown completed")
}
