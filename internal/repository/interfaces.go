package repository

import (
	"context"

	"github.com/iconidentify/shortsrelay/internal/domain"
)

// JobRepository tracks jobs while they run. Finished jobs are folded into
// counters and dropped; no history is kept.
type JobRepository interface {
	// Track registers a new job.
	Track(ctx context.Context, job *domain.Job) error

	// Update records the job's current stage. Terminal stages end tracking.
	Update(ctx context.Context, job *domain.Job) error

	// Get retrieves an active job by ID.
	Get(ctx context.Context, id domain.JobID) (*domain.Job, error)

	// ListActive returns all jobs that have not reached a terminal stage.
	ListActive(ctx context.Context) ([]*domain.Job, error)

	// Stats returns live counters.
	Stats(ctx context.Context) (*JobStats, error)
}

// JobStats contains job counters since process start.
type JobStats struct {
	Received     int                     `json:"received"`
	Active       int                     `json:"active"`
	Rejected     int                     `json:"rejected"`
	FetchFailed  int                     `json:"fetch_failed"`
	Delivered    int                     `json:"delivered"`
	UploadFailed int                     `json:"upload_failed"`
	ByStage      map[domain.JobStage]int `json:"by_stage"`
}
