package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrShutdownTimeout is returned when in-flight tasks don't finish within timeout.
var ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

// Task is a unit of work run by the pool.
type Task func(ctx context.Context)

// Pool dispatches fire-and-forget tasks, each on its own goroutine.
// Callers never wait for a task; the pool only tracks them for shutdown.
type Pool struct {
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	active atomic.Int64

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a new dispatch pool.
func NewPool(logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go starts task in the background and returns immediately.
// It reports false when the pool is already stopping and the task was dropped.
func (p *Pool) Go(name string, task Task) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("pool stopping, task dropped", "task", name)
		return false
	}
	p.wg.Add(1)
	p.mu.Unlock()

	p.active.Add(1)
	go p.run(name, task)
	return true
}

func (p *Pool) run(name string, task Task) {
	defer p.wg.Done()
	defer p.active.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "task", name, "panic", r)
		}
	}()

	task(p.ctx)
}

// Active returns the number of tasks currently running.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Stop refuses new tasks and waits for in-flight ones to finish.
// If they don't finish within timeout, their context is canceled and
// ErrShutdownTimeout is returned.
func (p *Pool) Stop(timeout time.Duration) error {
	p.logger.Info("stopping worker pool", "active", p.Active())

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(timeout):
		p.cancel()
		return ErrShutdownTimeout
	}
}
