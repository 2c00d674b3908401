package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/anthemlabs/anthem-api/internal/domain"
)

// MemoryJobStore is the in-memory JobStore implementation: a map guarded by
// a single mutex. Operations are O(1) field assignments, so one lock across
// all jobs is an acceptable bottleneck at this scale.
type MemoryJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.Job
}

// NewMemoryJobStore creates an empty in-memory job registry.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: make(map[uuid.UUID]*domain.Job),
	}
}

// Create registers a new job.
func (s *MemoryJobStore) Create(job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

// Get returns a copy of the job with the given ID.
func (s *MemoryJobStore) Get(id uuid.UUID) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}
	return *job, nil
}

// Update applies mutate to the stored job while holding the registry lock.
// The mutator runs against a scratch copy, so a mutator error leaves the
// stored job untouched.
func (s *MemoryJobStore) Update(id uuid.UUID, mutate func(*domain.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}

	scratch := *job
	if err := mutate(&scratch); err != nil {
		return err
	}

	*job = scratch
	return nil
}

// ActiveCount returns the number of jobs in a non-terminal state.
func (s *MemoryJobStore) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, job := range s.jobs {
		if !job.Terminal() {
			count++
		}
	}
	return count
}
