package wavespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthemlabs/anthem-api/internal/config"
	"github.com/anthemlabs/anthem-api/internal/domain"
	"github.com/anthemlabs/anthem-api/internal/generation"
	"github.com/anthemlabs/anthem-api/internal/platform/logger"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	log, err := logger.Setup(config.ServerConfig{Port: 8080, LogLevel: "error"})
	require.NoError(t, err)

	c, err := NewClient(config.GenerationConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
	}, log)
	require.NoError(t, err)
	c.pollInterval = time.Millisecond
	return c
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.jpeg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	return path
}

func TestEditImageSuccess(t *testing.T) {
	var polls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, imageEditModel):
			var input map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
			images, ok := input["images"].([]any)
			require.True(t, ok)
			assert.Contains(t, images[0], "data:image/jpeg;base64,")
			assert.Contains(t, input["prompt"], "kandura")

			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"id": "pred-1"},
			})

		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/predictions/pred-1/result"):
			status := "processing"
			outputs := []string{}
			if polls.Add(1) >= 2 {
				status = "completed"
				outputs = []string{"https://cdn.wavespeed.ai/out/edited.jpeg"}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"status": status, "outputs": outputs},
			})

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	url, err := c.EditImage(context.Background(), writeTempImage(t), domain.CategoryMale)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.wavespeed.ai/out/edited.jpeg", url)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestSynthesizeVideoFailedPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"id": "pred-2"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"status": "failed", "error": "nsfw content detected"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.SynthesizeVideo(context.Background(), "https://cdn/img.jpeg", domain.CategoryGirl)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "nsfw content detected")
}

func TestRunPredictionEmptyOutputs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"id": "pred-3"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"status": "completed", "outputs": []string{}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.SynthesizeVideo(context.Background(), "https://cdn/img.jpeg", domain.CategoryBoy)
	assert.ErrorIs(t, err, generation.ErrEmptyResult)
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"invalid api key"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.SynthesizeVideo(context.Background(), "https://cdn/img.jpeg", domain.CategoryBoy)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "401")
}

func TestRunPredictionContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{"id": "pred-4"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"status": "processing"},
		})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := newTestClient(t, srv.URL)
	_, err := c.SynthesizeVideo(ctx, "https://cdn/img.jpeg", domain.CategoryFemale)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientValidation(t *testing.T) {
	log, err := logger.Setup(config.ServerConfig{Port: 8080, LogLevel: "error"})
	require.NoError(t, err)

	_, err = NewClient(config.GenerationConfig{BaseURL: "https://x"}, log)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewClient(config.GenerationConfig{APIKey: "k"}, log)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewClient(config.GenerationConfig{APIKey: "k", BaseURL: "https://x"}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
