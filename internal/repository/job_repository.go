package repository

import (
	"context"
	"sync"

	"github.com/iconidentify/shortsrelay/internal/domain"
)

// InMemoryJobRepository implements JobRepository using in-memory storage.
// It stores copies so callers can keep mutating their job.
type InMemoryJobRepository struct {
	mu     sync.RWMutex
	jobs   map[domain.JobID]domain.Job
	totals JobStats
}

// NewInMemoryJobRepository creates a new in-memory job repository.
func NewInMemoryJobRepository() *InMemoryJobRepository {
	return &InMemoryJobRepository{
		jobs: make(map[domain.JobID]domain.Job),
	}
}

// Track registers a new job.
func (r *InMemoryJobRepository) Track(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totals.Received++
	r.apply(*job)
	return nil
}

// Update records the job's current stage.
func (r *InMemoryJobRepository) Update(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}
	r.apply(*job)
	return nil
}

// apply stores job or, for a terminal stage, counts it and stops tracking.
// Caller must hold the write lock.
func (r *InMemoryJobRepository) apply(job domain.Job) {
	if !job.Stage.IsTerminal() {
		r.jobs[job.ID] = job
		return
	}

	delete(r.jobs, job.ID)
	switch job.Stage {
	case domain.JobStageRejected:
		r.totals.Rejected++
	case domain.JobStageFetchFailed:
		r.totals.FetchFailed++
	case domain.JobStageDone:
		if job.Uploaded {
			r.totals.Delivered++
		} else {
			r.totals.UploadFailed++
		}
	}
}

// Get retrieves an active job by ID.
func (r *InMemoryJobRepository) Get(ctx context.Context, id domain.JobID) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

// ListActive returns all jobs that have not reached a terminal stage.
func (r *InMemoryJobRepository) ListActive(ctx context.Context) ([]*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		job := job
		result = append(result, &job)
	}
	return result, nil
}

// Stats returns live counters.
func (r *InMemoryJobRepository) Stats(ctx context.Context) (*JobStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := r.totals
	stats.Active = len(r.jobs)
	stats.ByStage = make(map[domain.JobStage]int)
	for _, job := range r.jobs {
		stats.ByStage[job.Stage]++
	}
	return &stats, nil
}

// Clear removes all jobs and counters (useful for testing).
func (r *InMemoryJobRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs = make(map[domain.JobID]domain.Job)
	r.totals = JobStats{}
}
