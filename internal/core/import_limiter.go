package core

// import_limiter.go bounds how many import batches run at once. A batch
// that cannot get a slot within maxWait fails with ErrTooManyImports;
// rows are never partially processed because of the limiter.

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrentImports is the default limit for parallel batches.
const DefaultMaxConcurrentImports = 5

// DefaultMaxImportWait is how long a batch waits for a slot before rejecting.
const DefaultMaxImportWait = 30 * time.Second

// ImportLimiter controls concurrent import batches.
type ImportLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration
	active  atomic.Int64
}

// NewImportLimiter allows at most maxConcurrent simultaneous batches.
// Non-positive arguments fall back to the defaults.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxImportWait
	}
	return &ImportLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire takes a slot. The caller must Release it when the batch finishes.
// Returns ctx's error if ctx ends first, ErrTooManyImports on timeout.
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: waited %s", ErrTooManyImports, l.maxWait)
	}
	l.active.Add(1)
	return nil
}

// Release returns a slot taken by Acquire.
func (l *ImportLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of batches holding a slot.
func (l *ImportLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// Available returns the number of free slots.
func (l *ImportLimiter) Available() int {
	return l.max - l.ActiveCount()
}

// WaitForDrain blocks until every slot is free or ctx ends. Used on shutdown.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, int64(l.max)); err != nil {
		return err
	}
	l.sem.Release(int64(l.max))
	return nil
}
