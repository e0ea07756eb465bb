package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/iconidentify/shortsrelay/internal/domain"
	"github.com/iconidentify/shortsrelay/internal/repository"
	"github.com/iconidentify/shortsrelay/internal/worker"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockJobRepository is a test implementation of repository.JobRepository.
type mockJobRepository struct {
	stats    *repository.JobStats
	statsErr error
}

func newMockJobRepository() *mockJobRepository {
	return &mockJobRepository{stats: &repository.JobStats{}}
}

func (m *mockJobRepository) Track(ctx context.Context, job *domain.Job) error  { return nil }
func (m *mockJobRepository) Update(ctx context.Context, job *domain.Job) error { return nil }

func (m *mockJobRepository) Get(ctx context.Context, id domain.JobID) (*domain.Job, error) {
	return nil, domain.ErrJobNotFound
}

func (m *mockJobRepository) ListActive(ctx context.Context) ([]*domain.Job, error) {
	return nil, nil
}

func (m *mockJobRepository) Stats(ctx context.Context) (*repository.JobStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return m.stats, nil
}

// mockSlots is a fixed SlotGauge.
type mockSlots struct {
	inUse, capacity int
}

func (m mockSlots) InUse() int    { return m.inUse }
func (m mockSlots) Capacity() int { return m.capacity }

// mockDispatcher records tasks instead of running them, unless run is set.
type mockDispatcher struct {
	mu      sync.Mutex
	tasks   []worker.Task
	stopped bool
	run     bool
}

func (m *mockDispatcher) Go(name string, task worker.Task) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}
	m.tasks = append(m.tasks, task)
	if m.run {
		task(context.Background())
	}
	return true
}

func (m *mockDispatcher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// mockRelay records processed events.
type mockRelay struct {
	mu     sync.Mutex
	events []domain.InboundEvent
}

func (m *mockRelay) Process(ctx context.Context, event domain.InboundEvent) *domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return domain.NewJob(event)
}

func (m *mockRelay) processed() []domain.InboundEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.InboundEvent(nil), m.events...)
}

// blockingDispatcher runs each task on its own goroutine, which waits on block first.
type blockingDispatcher struct {
	block chan struct{}
}

func (b *blockingDispatcher) Go(name string, task worker.Task) bool {
	go func() {
		<-b.block
		task(context.Background())
	}()
	return true
}
