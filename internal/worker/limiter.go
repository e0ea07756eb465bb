package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/iconidentify/shortsrelay/internal/domain"
)

// Limiter is a counting semaphore of fixed capacity shared by all jobs.
// Acquisition order carries no fairness guarantee.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int64
}

// NewLimiter creates a limiter with n slots. Values below 1 become 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{
		sem:      semaphore.NewWeighted(int64(n)),
		capacity: n,
	}
}

// Acquire blocks until a slot is free or ctx is done.
// The returned release func is safe to call more than once.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSlotUnavailable, err)
	}
	l.inUse.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.inUse.Add(-1)
			l.sem.Release(1)
		})
	}, nil
}

// InUse returns the number of slots currently held.
func (l *Limiter) InUse() int {
	return int(l.inUse.Load())
}

// Capacity returns the total number of slots.
func (l *Limiter) Capacity() int {
	return l.capacity
}
