package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes media under <dataDir>/result and returns URLs rooted
// at the /media static mount, optionally prefixed with a configured public
// base URL.
type LocalStore struct {
	resultDir     string
	publicBaseURL string
}

// NewLocalStore creates a LocalStore and the directory tree it serves from.
func NewLocalStore(dataDir, publicBaseURL string) (*LocalStore, error) {
	resultDir := filepath.Join(dataDir, "result")
	for _, sub := range []string{"images", "videos", "quiz"} {
		if err := os.MkdirAll(filepath.Join(resultDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create media directory: %w", err)
		}
	}

	return &LocalStore{
		resultDir:     resultDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Name identifies the backend.
func (s *LocalStore) Name() string { return "local" }

// ResultDir returns the directory the static /media mount serves.
func (s *LocalStore) ResultDir() string { return s.resultDir }

// Save writes the content to disk and returns its /media URL.
func (s *LocalStore) Save(
	ctx context.Context,
	r io.Reader,
	key string,
	contentType string,
) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(s.resultDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", key, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}

	rel := "/media/" + key
	if s.publicBaseURL != "" {
		return s.publicBaseURL + rel, nil
	}
	return rel, nil
}

// SaveUploadAudit is a no-op for the local backend: the original upload is
// already on the same disk until the pipeline removes it.
func (s *LocalStore) SaveUploadAudit(ctx context.Context, localPath, key, contentType string) error {
	return nil
}

// Ping verifies the result directory is writable.
func (s *LocalStore) Ping(ctx context.Context) error {
	probe, err := os.CreateTemp(s.resultDir, ".ping-*")
	if err != nil {
		return fmt.Errorf("result directory not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
