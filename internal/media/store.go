package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Store abstracts "save bytes, get a retrievable URL" over the configured
// backend. Implementations own no job state; they are stateless I/O.
type Store interface {
	// Name identifies the backend ("local" or "s3") for health reporting.
	Name() string

	// Save writes the content under the given key and returns a URL from
	// which it can be retrieved.
	Save(ctx context.Context, r io.Reader, key string, contentType string) (string, error)

	// SaveUploadAudit keeps a copy of the original uploaded file for
	// auditing. The local backend treats this as a no-op since the upload
	// already lives on the same disk until pipeline cleanup.
	SaveUploadAudit(ctx context.Context, localPath string, key string, contentType string) error

	// Ping verifies the backend is reachable and writable enough to
	// serve media. Used by the health endpoint.
	Ping(ctx context.Context) error
}

// Key builders for the fixed per-job layout. Keys use forward slashes on
// every backend.

// ImageKey returns the storage key of a job's edited image.
func ImageKey(jobID string) string {
	return path.Join("images", jobID+".jpeg")
}

// VideoKey returns the storage key of a job's generated video.
func VideoKey(jobID string) string {
	return path.Join("videos", jobID+".mp4")
}

// UploadKey returns the storage key of a job's original upload audit copy.
func UploadKey(jobID, ext string) string {
	if ext == "" {
		ext = ".jpg"
	}
	return path.Join("uploads", jobID+ext)
}

// QuizKey returns the storage key of a job's quiz result record.
func QuizKey(jobID string) string {
	return path.Join("quiz", jobID+".json")
}

// cleanKey rejects traversal segments and normalizes the key. Keys are
// produced internally, so this is an invariant check rather than input
// validation.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return key, nil
}
