package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/anthemlabs/anthem-api/internal/api/shared"
	"github.com/anthemlabs/anthem-api/internal/domain"
	"github.com/anthemlabs/anthem-api/internal/store"
	"github.com/anthemlabs/anthem-api/internal/task"
)

// Allowed upload content types.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

const (
	// maxFieldBytes caps non-file multipart fields.
	maxFieldBytes = 1 << 10

	// qrImageSize is the pixel size of rendered QR codes.
	qrImageSize = 256
)

// PipelineStarter creates and enqueues the background pipeline for an
// accepted submission.
type PipelineStarter interface {
	StartPipeline(jobID uuid.UUID, uploadPath string, category domain.Category) error
}

// SubmitJobResponse is returned on successful submission.
type SubmitJobResponse struct {
	JobID string `json:"job_id"`
}

// JobStatusResponse is returned by the status polling endpoint.
type JobStatusResponse struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	QRURL    string `json:"qr_url,omitempty"`
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobs      store.JobStore
	pipeline  PipelineStarter
	uploadDir string
	maxUpload int64
	logger    *slog.Logger
}

// NewJobHandler creates a new JobHandler. uploadDir must exist; maxUpload
// is the upload size limit in bytes.
func NewJobHandler(
	jobs store.JobStore,
	pipeline PipelineStarter,
	uploadDir string,
	maxUpload int64,
	logger *slog.Logger,
) *JobHandler {
	return &JobHandler{
		jobs:      jobs,
		pipeline:  pipeline,
		uploadDir: uploadDir,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// SubmitJob handles POST /api/jobs requests. The upload is streamed to a
// temporary file while the size limit is enforced, so an oversized body is
// rejected mid-stream instead of being buffered.
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Expected multipart form data")
		return
	}

	jobID := uuid.New()

	form, err := h.readSubmission(reader, jobID)
	if err != nil {
		if form.uploadPath != "" {
			_ = os.Remove(form.uploadPath)
		}
		var reject *submitError
		if errors.As(err, &reject) {
			shared.RespondWithErrorAndLog(w, r, reject.status, reject.message, reject.cause)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to read upload", err)
		return
	}

	job, err := domain.NewJob(jobID, domain.Category(form.category), form.phone)
	if err != nil {
		_ = os.Remove(form.uploadPath)
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid submission", err)
		return
	}

	if err := h.jobs.Create(job); err != nil {
		_ = os.Remove(form.uploadPath)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to register job", err)
		return
	}

	if err := h.pipeline.StartPipeline(jobID, form.uploadPath, job.Category); err != nil {
		// The registry record already exists and records never leave the
		// registry, so mark it failed before rejecting the submission.
		_ = os.Remove(form.uploadPath)
		h.failRejectedJob(jobID)

		if errors.Is(err, task.ErrQueueFull) {
			shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
				"Server is busy, try again later", err)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to start processing", err)
		return
	}

	h.logger.Info("job submitted",
		"job_id", jobID,
		"category", job.Category,
		"phone_present", form.phone != "")

	shared.RespondWithJSON(w, r, http.StatusOK, SubmitJobResponse{JobID: jobID.String()})
}

// JobStatus handles GET /api/jobs/{jobID} requests. An unknown id reports
// the queued placeholder status rather than a not-found error; pollers
// cannot distinguish "never existed" from "not yet started".
func (h *JobHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		shared.RespondWithJSON(w, r, http.StatusOK, JobStatusResponse{
			Status: string(domain.JobStatusQueued),
		})
		return
	}

	job, err := h.jobs.Get(jobID)
	if errors.Is(err, store.ErrJobNotFound) {
		shared.RespondWithJSON(w, r, http.StatusOK, JobStatusResponse{
			Status: string(domain.JobStatusQueued),
		})
		return
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to look up job", err)
		return
	}

	resp := JobStatusResponse{
		Status: string(job.Status),
		Error:  job.Error,
	}
	if job.Status == domain.JobStatusCompleted {
		resp.VideoURL = job.VideoURL
		resp.ImageURL = job.ImageURL
		resp.QRURL = fmt.Sprintf("/api/jobs/%s/qr", jobID)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// JobQR handles GET /api/jobs/{jobID}/qr requests. The QR encodes the
// final video URL and is rendered on demand rather than cached.
func (h *JobHandler) JobQR(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "QR not available")
		return
	}

	job, err := h.jobs.Get(jobID)
	if err != nil || job.Status != domain.JobStatusCompleted || job.VideoURL == "" {
		shared.RespondWithError(w, r, http.StatusNotFound, "QR not available")
		return
	}

	png, err := qrcode.Encode(job.VideoURL, qrcode.Medium, qrImageSize)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to render QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.Error("failed to write QR response", "error", err, "job_id", jobID)
	}
}

// submission carries the parsed multipart form.
type submission struct {
	category   string
	phone      string
	uploadPath string
}

// submitError is a client-facing rejection with its HTTP status.
type submitError struct {
	status  int
	message string
	cause   error
}

func (e *submitError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *submitError) Unwrap() error { return e.cause }

// readSubmission walks the multipart stream in order, buffering the small
// form fields and streaming the image part to the upload directory under
// the size limit.
func (h *JobHandler) readSubmission(reader *multipart.Reader, jobID uuid.UUID) (submission, error) {
	var form submission
	seenImage := false

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return form, fmt.Errorf("failed to read multipart stream: %w", err)
		}

		switch part.FormName() {
		case "age_group":
			form.category, err = readField(part)
		case "phone":
			form.phone, err = readField(part)
		case "image":
			form.uploadPath, err = h.streamUpload(part, jobID)
			seenImage = err == nil
		default:
			_, err = io.Copy(io.Discard, part)
		}
		_ = part.Close()

		if err != nil {
			return form, err
		}
	}

	if !domain.ValidCategory(form.category) {
		return form, &submitError{status: http.StatusBadRequest, message: "Invalid age_group"}
	}
	if !seenImage {
		return form, &submitError{status: http.StatusBadRequest, message: "Missing image file"}
	}

	return form, nil
}

// streamUpload copies the image part to a temp file, enforcing the
// configured size limit mid-stream.
func (h *JobHandler) streamUpload(part *multipart.Part, jobID uuid.UUID) (string, error) {
	contentType := part.Header.Get("Content-Type")
	if _, ok := allowedImageTypes[contentType]; !ok {
		return "", &submitError{
			status:  http.StatusBadRequest,
			message: "Only JPEG/PNG images are accepted",
		}
	}

	ext := strings.ToLower(filepath.Ext(part.FileName()))
	if ext == "" {
		ext = allowedImageTypes[contentType]
	}
	uploadPath := filepath.Join(h.uploadDir, jobID.String()+ext)

	f, err := os.Create(uploadPath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer func() { _ = f.Close() }()

	written, err := io.Copy(f, io.LimitReader(part, h.maxUpload+1))
	if err != nil {
		_ = os.Remove(uploadPath)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if written > h.maxUpload {
		_ = os.Remove(uploadPath)
		return "", &submitError{
			status:  http.StatusRequestEntityTooLarge,
			message: fmt.Sprintf("File too large (max %dMB)", h.maxUpload/(1024*1024)),
		}
	}

	return uploadPath, nil
}

// readField reads a small non-file form field.
func readField(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read form field %q: %w", part.FormName(), err)
	}
	return strings.TrimSpace(string(data)), nil
}

// failRejectedJob marks a job that never reached the queue as failed.
func (h *JobHandler) failRejectedJob(jobID uuid.UUID) {
	err := h.jobs.Update(jobID, func(j *domain.Job) error {
		return j.Fail("submission rejected: processing queue full")
	})
	if err != nil {
		h.logger.Error("failed to mark rejected job", "error", err, "job_id", jobID)
	}
}
