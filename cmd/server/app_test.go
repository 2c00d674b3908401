package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthemlabs/anthem-api/internal/config"
	"github.com/anthemlabs/anthem-api/internal/domain"
	"github.com/anthemlabs/anthem-api/internal/media"
	"github.com/anthemlabs/anthem-api/internal/quiz"
	"github.com/anthemlabs/anthem-api/internal/store"
	"github.com/anthemlabs/anthem-api/internal/task"
)

// stubGenerator satisfies generation.Generator without calling anything.
type stubGenerator struct{}

func (stubGenerator) EditImage(ctx context.Context, imagePath string, category domain.Category) (string, error) {
	return "https://cdn/edited.jpeg", nil
}

func (stubGenerator) SynthesizeVideo(ctx context.Context, imageURL string, category domain.Category) (string, error) {
	return "https://cdn/result.mp4", nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080, LogLevel: "error"},
		Storage: config.StorageConfig{AWSRegion: "me-central-1", DataDir: t.TempDir()},
		Upload:  config.UploadConfig{MaxSizeMB: 10},
		Generation: config.GenerationConfig{
			APIKey:                "test-key",
			BaseURL:               "https://api.example.test",
			ImageFetchTimeoutSecs: 60,
			VideoFetchTimeoutSecs: 300,
		},
		Task: config.TaskConfig{WorkerCount: 1, QueueSize: 4},
	}
}

func testApplication(t *testing.T) *application {
	t.Helper()
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mediaStore, err := media.NewLocalStore(cfg.Storage.DataDir, "")
	require.NoError(t, err)

	bank, err := quiz.NewBank()
	require.NoError(t, err)

	uploadDir := filepath.Join(cfg.Storage.DataDir, "uploads")
	require.NoError(t, os.MkdirAll(uploadDir, 0o755))

	runner := task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	require.NoError(t, runner.Start())
	t.Cleanup(runner.Stop)

	return &application{
		config:     cfg,
		logger:     logger,
		jobs:       store.NewMemoryJobStore(),
		mediaStore: mediaStore,
		generator:  stubGenerator{},
		fetcher:    media.NewFetcher(),
		quizBank:   bank,
		uploadDir:  uploadDir,
		taskRunner: runner,
	}
}

func TestSetupMediaStoreLocal(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := setupMediaStore(context.Background(), cfg.Storage, logger)
	require.NoError(t, err)
	assert.Equal(t, "local", s.Name())
}

func TestRouterHealthz(t *testing.T) {
	app := testApplication(t)
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, true, health["ok"])
	assert.Equal(t, "local", health["storage"])
}

func TestRouterUnknownJobReportsQueued(t *testing.T) {
	app := testApplication(t)
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/jobs/definitely-not-an-id")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "queued", status["status"])
}

func TestRouterQuestions(t *testing.T) {
	app := testApplication(t)
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/questions?count=4&seed=abc")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Questions []map[string]any `json:"questions"`
		Key       []map[string]any `json:"key"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Questions, 4)
	assert.Len(t, body.Key, 4)
}

func TestRouterServesLocalMedia(t *testing.T) {
	app := testApplication(t)

	local, ok := app.mediaStore.(*media.LocalStore)
	require.True(t, ok)
	require.NoError(t, os.WriteFile(
		filepath.Join(local.ResultDir(), "videos", "demo.mp4"), []byte("mp4-bytes"), 0o644))

	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/media/videos/demo.mp4")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4-bytes"), data)
}

func TestInitializeAppMissingAPIKey(t *testing.T) {
	t.Setenv("WAVESPEED_API_KEY", "")
	t.Setenv("DATA_DIR", t.TempDir())

	_, err := initializeApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
}
