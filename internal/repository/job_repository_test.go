package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iconidentify/shortsrelay/internal/domain"
)

func newJob(chatID int64) *domain.Job {
	return domain.NewJob(domain.NewInboundEvent(chatID, "https://youtube.com/shorts/abc"))
}

func TestNewInMemoryJobRepository(t *testing.T) {
	repo := NewInMemoryJobRepository()

	if repo == nil {
		t.Fatal("repo should not be nil")
	}
	if repo.jobs == nil {
		t.Error("jobs map should be initialized")
	}
}

func TestInMemoryJobRepository_Track(t *testing.T) {
	repo := NewInMemoryJobRepository()
	ctx := context.Background()

	job := newJob(42)
	if err := repo.Track(ctx, job); err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	retrieved, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.ChatID != 42 {
		t.Errorf("ChatID = %d, want 42", retrieved.ChatID)
	}
}

func TestInMemoryJobRepository_StoresCopies(t *testing.T) {
	repo := NewInMemoryJobRepository()
	ctx := context.Background()

	job := newJob(1)
	repo.Track(ctx, job)
	job.Advance(domain.JobStageFetching)

	retrieved, _ := repo.Get(ctx, job.ID)
	if retrieved.Stage != domain.JobStageClassify {
		t.Errorf("stored stage = %s, want classify until Update", retrieved.Stage)
	}

	repo.Update(ctx, job)
	retrieved, _ = repo.Get(ctx, job.ID)
	if retrieved.Stage != domain.JobStageFetching {
		t.Errorf("stored stage = %s, want fetching", retrieved.Stage)
	}
}

func TestInMemoryJobRepository_Update_NotFound(t *testing.T) {
	repo := NewInMemoryJobRepository()

	err := repo.Update(context.Background(), newJob(1))
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestInMemoryJobRepository_Get_NotFound(t *testing.T) {
	repo := NewInMemoryJobRepository()

	_, err := repo.Get(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestInMemoryJobRepository_TerminalStagesEndTracking(t *testing.T) {
	tests := []struct {
		name     string
		stage    domain.JobStage
		uploaded bool
		check    func(*JobStats) int
	}{
		{"rejected", domain.JobStageRejected, false, func(s *JobStats) int { return s.Rejected }},
		{"fetch failed", domain.JobStageFetchFailed, false, func(s *JobStats) int { return s.FetchFailed }},
		{"delivered", domain.JobStageDone, true, func(s *JobStats) int { return s.Delivered }},
		{"upload failed", domain.JobStageDone, false, func(s *JobStats) int { return s.UploadFailed }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewInMemoryJobRepository()
			ctx := context.Background()

			job := newJob(1)
			repo.Track(ctx, job)
			job.Uploaded = tt.uploaded
			job.Advance(tt.stage)
			if err := repo.Update(ctx, job); err != nil {
				t.Fatalf("Update failed: %v", err)
			}

			if _, err := repo.Get(ctx, job.ID); !errors.Is(err, domain.ErrJobNotFound) {
				t.Errorf("terminal job should no longer be tracked, got %v", err)
			}

			stats, _ := repo.Stats(ctx)
			if got := tt.check(stats); got != 1 {
				t.Errorf("counter = %d, want 1", got)
			}
			if stats.Active != 0 {
				t.Errorf("Active = %d, want 0", stats.Active)
			}
			if stats.Received != 1 {
				t.Errorf("Received = %d, want 1", stats.Received)
			}
		})
	}
}

func TestInMemoryJobRepository_ListActive(t *testing.T) {
	repo := NewInMemoryJobRepository()
	ctx := context.Background()

	a, b, c := newJob(1), newJob(2), newJob(3)
	repo.Track(ctx, a)
	repo.Track(ctx, b)
	repo.Track(ctx, c)

	b.Advance(domain.JobStageDone)
	repo.Update(ctx, b)

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active jobs, got %d", len(active))
	}
	for _, j := range active {
		if j.ID == b.ID {
			t.Error("finished job should not be listed")
		}
	}
}

func TestInMemoryJobRepository_Stats(t *testing.T) {
	repo := NewInMemoryJobRepository()
	ctx := context.Background()

	waiting := newJob(1)
	repo.Track(ctx, waiting)
	waiting.Advance(domain.JobStageWaitingSlot)
	repo.Update(ctx, waiting)

	fetching1, fetching2 := newJob(2), newJob(3)
	for _, j := range []*domain.Job{fetching1, fetching2} {
		repo.Track(ctx, j)
		j.Advance(domain.JobStageFetching)
		repo.Update(ctx, j)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Received != 3 {
		t.Errorf("Received = %d, want 3", stats.Received)
	}
	if stats.Active != 3 {
		t.Errorf("Active = %d, want 3", stats.Active)
	}
	if stats.ByStage[domain.JobStageFetching] != 2 {
		t.Errorf("ByStage[fetching] = %d, want 2", stats.ByStage[domain.JobStageFetching])
	}
	if stats.ByStage[domain.JobStageWaitingSlot] != 1 {
		t.Errorf("ByStage[waiting_slot] = %d, want 1", stats.ByStage[domain.JobStageWaitingSlot])
	}
}

func TestInMemoryJobRepository_Clear(t *testing.T) {
	repo := NewInMemoryJobRepository()
	ctx := context.Background()

	repo.Track(ctx, newJob(1))
	repo.Clear()

	stats, _ := repo.Stats(ctx)
	if stats.Received != 0 || stats.Active != 0 {
		t.Errorf("expected empty stats after Clear, got %+v", stats)
	}
}

func TestInMemoryJobRepository_Concurrent(t *testing.T) {
	repo := NewInMemoryJobRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(chat int64) {
			defer wg.Done()
			job := newJob(chat)
			repo.Track(ctx, job)
			job.Advance(domain.JobStageFetching)
			repo.Update(ctx, job)
			job.Uploaded = true
			job.Advance(domain.JobStageDone)
			repo.Update(ctx, job)
			repo.Stats(ctx)
		}(int64(i + 1))
	}
	wg.Wait()

	stats, _ := repo.Stats(ctx)
	if stats.Delivered != 50 {
		t.Errorf("Delivered = %d, want 50", stats.Delivered)
	}
	if stats.Active != 0 {
		t.Errorf("Active = %d, want 0", stats.Active)
	}
}
