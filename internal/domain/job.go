package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the processing state of a video generation job
type JobStatus string

// Possible job status values. A job moves through
// image -> video -> completed on success; failed is terminal and reachable
// from any non-terminal state. Queued is never stored: it is the placeholder
// status reported for ids the registry does not know.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusImage     JobStatus = "image"
	JobStatusVideo     JobStatus = "video"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Common validation errors for Job
var (
	ErrEmptyJobID       = errors.New("job ID cannot be empty")
	ErrInvalidJobStatus = errors.New("invalid job status")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrStatusRegression = errors.New("job status cannot move backwards")
)

// Category selects the generation template used for a job.
type Category string

// The fixed set of subject categories accepted at submission time.
const (
	CategoryMale   Category = "Male"
	CategoryFemale Category = "Female"
	CategoryBoy    Category = "Boy"
	CategoryGirl   Category = "Girl"
)

// ValidCategory reports whether s is one of the accepted subject categories.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryMale, CategoryFemale, CategoryBoy, CategoryGirl:
		return true
	default:
		return false
	}
}

// Job represents one end-to-end request to transform an uploaded photo into
// a generated video. It tracks processing state and the final media URLs.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	Status      JobStatus  `json:"status"`
	Category    Category   `json:"category"`
	VideoURL    string     `json:"video_url,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Error       string     `json:"error,omitempty"`
	Phone       string     `json:"phone,omitempty"` // audit only, never returned to pollers
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
}

// NewJob creates a new Job in the image state with the given id, category
// and optional phone number. Returns an error if validation fails.
func NewJob(id uuid.UUID, category Category, phone string) (*Job, error) {
	job := &Job{
		ID:        id,
		Status:    JobStatusImage,
		Category:  category,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	if !ValidCategory(string(j.Category)) {
		return ErrInvalidCategory
	}

	return nil
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Advance moves the job to the given status, enforcing the monotonic
// transition order. Completed and failed set their timestamps.
func (j *Job) Advance(status JobStatus) error {
	if !isValidJobStatus(status) {
		return ErrInvalidJobStatus
	}

	if statusRank(status) < statusRank(j.Status) || j.Terminal() {
		return ErrStatusRegression
	}

	j.Status = status
	now := time.Now().UTC()
	switch status {
	case JobStatusCompleted:
		j.CompletedAt = &now
	case JobStatusFailed:
		j.FailedAt = &now
	}
	return nil
}

// Fail marks the job failed with the given error description.
func (j *Job) Fail(message string) error {
	if err := j.Advance(JobStatusFailed); err != nil {
		return err
	}
	j.Error = message
	return nil
}

// Complete marks the job completed with both final media URLs. A job is
// never completed with only one of the two URLs set.
func (j *Job) Complete(videoURL, imageURL string) error {
	if videoURL == "" || imageURL == "" {
		return errors.New("completed job requires both video and image URLs")
	}
	if err := j.Advance(JobStatusCompleted); err != nil {
		return err
	}
	j.VideoURL = videoURL
	j.ImageURL = imageURL
	return nil
}

func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusQueued, JobStatusImage, JobStatusVideo,
		JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// statusRank orders statuses for the monotonic transition check. Failed is
// reachable from any non-terminal state, so it ranks above everything.
func statusRank(status JobStatus) int {
	switch status {
	case JobStatusQueued:
		return 0
	case JobStatusImage:
		return 1
	case JobStatusVideo:
		return 2
	case JobStatusCompleted:
		return 3
	case JobStatusFailed:
		return 4
	default:
		return -1
	}
}
