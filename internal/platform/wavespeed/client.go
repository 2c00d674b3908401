// Package wavespeed implements generation.Generator against the WaveSpeed
// prediction API: a prediction is submitted, then polled until it reports
// a terminal status and yields an output URL.
package wavespeed

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthemlabs/anthem-api/internal/config"
	"github.com/anthemlabs/anthem-api/internal/domain"
	"github.com/anthemlabs/anthem-api/internal/generation"
)

const (
	imageEditModel = "google/nano-banana/edit"
	videoModel     = "wavespeed-ai/wan-2.2/s2v-480p"

	defaultPollInterval = 3 * time.Second
)

// Client talks to the WaveSpeed prediction API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewClient creates a Client from the generation configuration.
func NewClient(cfg config.GenerationConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key", generation.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: missing base URL", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: missing logger", generation.ErrInvalidConfig)
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		pollInterval: defaultPollInterval,
		logger:       logger,
	}, nil
}

// EditImage submits the uploaded photo for stylization with the category's
// template prompt and waits for the edited image URL.
func (c *Client) EditImage(
	ctx context.Context,
	imagePath string,
	category domain.Category,
) (string, error) {
	dataURI, err := encodeImageFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	input := map[string]any{
		"images":        []string{dataURI},
		"prompt":        imagePrompt(category),
		"output_format": "jpeg",
	}

	return c.runPrediction(ctx, imageEditModel, input)
}

// SynthesizeVideo submits the edited image for video synthesis with the
// category's anthem audio and waits for the finished video URL.
func (c *Client) SynthesizeVideo(
	ctx context.Context,
	imageURL string,
	category domain.Category,
) (string, error) {
	input := map[string]any{
		"image":  imageURL,
		"audio":  anthemAudioURL(category),
		"prompt": videoPrompt(category),
	}

	return c.runPrediction(ctx, videoModel, input)
}

// runPrediction submits a prediction for the given model and polls until it
// reaches a terminal status, returning the first output URL.
func (c *Client) runPrediction(ctx context.Context, model string, input map[string]any) (string, error) {
	id, err := c.submit(ctx, model, input)
	if err != nil {
		return "", err
	}

	c.logger.Debug("prediction submitted", "model", model, "prediction_id", id)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		result, err := c.fetchResult(ctx, id)
		if err != nil {
			return "", err
		}

		switch result.Status {
		case "completed":
			if len(result.Outputs) == 0 || result.Outputs[0] == "" {
				return "", generation.ErrEmptyResult
			}
			return result.Outputs[0], nil
		case "failed":
			return "", fmt.Errorf("%w: %s", generation.ErrGenerationFailed, result.Error)
		}
		// created or processing, keep polling
	}
}

type predictionResult struct {
	Status  string   `json:"status"`
	Outputs []string `json:"outputs"`
	Error   string   `json:"error"`
}

func (c *Client) submit(ctx context.Context, model string, input map[string]any) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to encode prediction input: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("prediction submit failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: submit status %d: %s",
			generation.ErrGenerationFailed, resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if envelope.Data.ID == "" {
		return "", fmt.Errorf("%w: submit response missing prediction id", generation.ErrGenerationFailed)
	}

	return envelope.Data.ID, nil
}

func (c *Client) fetchResult(ctx context.Context, id string) (*predictionResult, error) {
	url := fmt.Sprintf("%s/predictions/%s/result", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction poll failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: poll status %d: %s",
			generation.ErrGenerationFailed, resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Data predictionResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode poll response: %w", err)
	}

	return &envelope.Data, nil
}

// encodeImageFile reads a local image and encodes it as a data URI the
// prediction API accepts in place of a hosted URL.
func encodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	mime := "image/jpeg"
	if strings.EqualFold(filepath.Ext(path), ".png") {
		mime = "image/png"
	}

	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}
