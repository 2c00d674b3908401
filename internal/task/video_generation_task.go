package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anthemlabs/anthem-api/internal/domain"
	"github.com/anthemlabs/anthem-api/internal/generation"
	"github.com/anthemlabs/anthem-api/internal/media"
	"github.com/anthemlabs/anthem-api/internal/store"
)

// Common errors
var (
	ErrNilJobStore   = errors.New("job store cannot be nil")
	ErrNilGenerator  = errors.New("generator cannot be nil")
	ErrNilMediaStore = errors.New("media store cannot be nil")
	ErrNilFetcher    = errors.New("fetcher cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
	ErrEmptyJobID    = errors.New("job ID cannot be empty")
)

// FetchTimeouts bounds the downloads of generated media from the provider.
type FetchTimeouts struct {
	Image time.Duration
	Video time.Duration
}

// VideoGenerationTask implements the Task interface for the photo-to-video
// pipeline: image stylization, video synthesis, persistence into our own
// storage, then registry update. The task exclusively owns the temporary
// upload file and removes it on every exit path.
type VideoGenerationTask struct {
	id         uuid.UUID
	jobID      uuid.UUID
	uploadPath string
	category   domain.Category
	jobs       store.JobStore
	generator  generation.Generator
	mediaStore media.Store
	fetcher    *media.Fetcher
	timeouts   FetchTimeouts
	logger     *slog.Logger
	status     TaskStatus
}

// NewVideoGenerationTask creates a pipeline task for an already registered
// job. uploadPath is the temporary file holding the client's photo; the
// task takes ownership of it.
func NewVideoGenerationTask(
	jobID uuid.UUID,
	uploadPath string,
	category domain.Category,
	jobs store.JobStore,
	generator generation.Generator,
	mediaStore media.Store,
	fetcher *media.Fetcher,
	timeouts FetchTimeouts,
	logger *slog.Logger,
) (*VideoGenerationTask, error) {
	if jobs == nil {
		return nil, ErrNilJobStore
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if mediaStore == nil {
		return nil, ErrNilMediaStore
	}
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if jobID == uuid.Nil {
		return nil, ErrEmptyJobID
	}

	if timeouts.Image <= 0 {
		timeouts.Image = 60 * time.Second
	}
	if timeouts.Video <= 0 {
		timeouts.Video = 300 * time.Second
	}

	return &VideoGenerationTask{
		id:         uuid.New(),
		jobID:      jobID,
		uploadPath: uploadPath,
		category:   category,
		jobs:       jobs,
		generator:  generator,
		mediaStore: mediaStore,
		fetcher:    fetcher,
		timeouts:   timeouts,
		logger:     logger.With("task_type", TaskTypeVideoGeneration, "job_id", jobID),
		status:     TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *VideoGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *VideoGenerationTask) Type() string {
	return TaskTypeVideoGeneration
}

// Status returns the current task status
func (t *VideoGenerationTask) Status() TaskStatus {
	return t.status
}

// Execute runs the pipeline. Every failure path records a failed job with
// a descriptive error; a panic anywhere in the pipeline is recovered and
// recorded the same way instead of crashing the worker. The temporary
// upload is removed exactly once regardless of outcome.
func (t *VideoGenerationTask) Execute(ctx context.Context) (err error) {
	t.status = TaskStatusProcessing

	defer func() {
		// Best-effort cleanup of the temporary input.
		if removeErr := os.Remove(t.uploadPath); removeErr != nil && !os.IsNotExist(removeErr) {
			t.logger.Debug("failed to remove temp upload", "error", removeErr)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panicked: %v", r)
			t.failJob(err.Error())
		}
		if err != nil {
			t.status = TaskStatusFailed
		} else {
			t.status = TaskStatusCompleted
		}
	}()

	t.logger.Info("starting video generation pipeline", "category", t.category)

	// Step 1: image stylization.
	editedImageURL, err := t.generator.EditImage(ctx, t.uploadPath, t.category)
	if err != nil || editedImageURL == "" {
		if err == nil {
			err = generation.ErrEmptyResult
		}
		message := fmt.Sprintf("image generation failed: %v", err)
		t.failJob(message)
		return fmt.Errorf("image generation failed: %w", err)
	}

	if err = t.advanceJob(domain.JobStatusVideo); err != nil {
		return err
	}

	// Step 2: video synthesis from the stylized image.
	remoteVideoURL, err := t.generator.SynthesizeVideo(ctx, editedImageURL, t.category)
	if err != nil || remoteVideoURL == "" {
		if err == nil {
			err = generation.ErrEmptyResult
		}
		message := fmt.Sprintf("video generation failed: %v", err)
		t.failJob(message)
		return fmt.Errorf("video generation failed: %w", err)
	}

	// Step 3: persist everything into our own storage so the returned
	// links outlive the provider's.
	finalVideoURL, finalImageURL, err := t.persistMedia(ctx, editedImageURL, remoteVideoURL)
	if err != nil {
		t.failJob(fmt.Sprintf("media persistence failed: %v", err))
		return err
	}

	// Step 4: mark the job completed with both final URLs.
	err = t.jobs.Update(t.jobID, func(j *domain.Job) error {
		return j.Complete(finalVideoURL, finalImageURL)
	})
	if err != nil {
		t.failJob(fmt.Sprintf("failed to record completion: %v", err))
		return fmt.Errorf("failed to record completion: %w", err)
	}

	t.logger.Info("pipeline completed",
		"video_url_present", finalVideoURL != "",
		"image_url_present", finalImageURL != "")
	return nil
}

// persistMedia keeps an audit copy of the original upload, then fetches
// the provider-hosted results and re-saves them under this service's own
// storage, returning the final video and image URLs.
func (t *VideoGenerationTask) persistMedia(
	ctx context.Context,
	editedImageURL, remoteVideoURL string,
) (videoURL, imageURL string, err error) {
	jobID := t.jobID.String()

	ext := strings.ToLower(strings.TrimSpace(uploadExt(t.uploadPath)))
	if auditErr := t.mediaStore.SaveUploadAudit(
		ctx, t.uploadPath, media.UploadKey(jobID, ext), contentTypeForExt(ext),
	); auditErr != nil {
		return "", "", fmt.Errorf("failed to store upload audit copy: %w", auditErr)
	}

	imgBody, imgContentType, err := t.fetcher.Fetch(ctx, editedImageURL, t.timeouts.Image)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch edited image: %w", err)
	}
	defer func() { _ = imgBody.Close() }()

	if imgContentType == "" {
		imgContentType = "image/jpeg"
	}
	imageURL, err = t.mediaStore.Save(ctx, imgBody, media.ImageKey(jobID), imgContentType)
	if err != nil {
		return "", "", fmt.Errorf("failed to store edited image: %w", err)
	}

	vidBody, _, err := t.fetcher.Fetch(ctx, remoteVideoURL, t.timeouts.Video)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch generated video: %w", err)
	}
	defer func() { _ = vidBody.Close() }()

	videoURL, err = t.mediaStore.Save(ctx, vidBody, media.VideoKey(jobID), "video/mp4")
	if err != nil {
		return "", "", fmt.Errorf("failed to store generated video: %w", err)
	}

	return videoURL, imageURL, nil
}

// advanceJob moves the registry record forward on the success path.
func (t *VideoGenerationTask) advanceJob(status domain.JobStatus) error {
	err := t.jobs.Update(t.jobID, func(j *domain.Job) error {
		return j.Advance(status)
	})
	if err != nil {
		t.failJob(fmt.Sprintf("failed to advance job to %s: %v", status, err))
		return fmt.Errorf("failed to advance job to %s: %w", status, err)
	}
	return nil
}

// failJob records the failure on the job. Errors here are logged and
// dropped: the poller contract only needs the best available status.
func (t *VideoGenerationTask) failJob(message string) {
	err := t.jobs.Update(t.jobID, func(j *domain.Job) error {
		return j.Fail(message)
	})
	if err != nil {
		t.logger.Error("failed to record job failure", "error", err)
	}
}

func uploadExt(path string) string {
	return filepath.Ext(path)
}

func contentTypeForExt(ext string) string {
	if ext == ".png" {
		return "image/png"
	}
	return "image/jpeg"
}
