package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher downloads provider-hosted results so they can be re-saved into
// this service's own storage.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. Per-request timeouts are passed to Fetch
// because images and videos warrant very different limits.
func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{}}
}

// Fetch downloads the given URL within the timeout, returning the body and
// the reported content type. The caller must close the body.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (io.ReadCloser, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	contentType := resp.Header.Get("Content-Type")
	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, contentType, nil
}

// cancelReadCloser ties the request context's lifetime to the body so the
// timeout covers the whole download, not just the response headers.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
