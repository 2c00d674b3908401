package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/anthemlabs/anthem-api/internal/domain"
)

// ErrJobNotFound is returned by Get and Update when no job with the given
// ID exists in the registry. Callers must distinguish this from a job in a
// terminal state.
var ErrJobNotFound = errors.New("job not found")

// JobStore defines the interface for the in-process job registry.
// Implementations must serialize all operations: updates are all-or-nothing
// and pollers never observe a partially mutated job.
// Jobs are never removed; records live for the process lifetime.
type JobStore interface {
	// Create registers a new job. Returns an error if a job with the same
	// ID already exists.
	Create(job *domain.Job) error

	// Get returns a copy of the job with the given ID, or ErrJobNotFound.
	Get(id uuid.UUID) (domain.Job, error)

	// Update applies mutate to the stored job under the registry lock.
	// If mutate returns an error the job is left unchanged.
	Update(id uuid.UUID, mutate func(*domain.Job) error) error

	// ActiveCount returns the number of jobs in a non-terminal state.
	ActiveCount() int
}
