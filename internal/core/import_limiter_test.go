package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestImportLimiter_AcquireRelease(t *testing.T) {
	limiter := NewImportLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("full limiter Available = %d, want 0", got)
	}

	limiter.Release()
	if got := limiter.Available(); got != 1 {
		t.Errorf("after Release, Available = %d, want 1", got)
	}
	limiter.Release()
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("after second Release, ActiveCount = %d, want 0", got)
	}
}

func TestImportLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewImportLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	err := limiter.Acquire(ctx)
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("expected ErrTooManyImports, got %v", err)
	}
}

func TestImportLimiter_ContextCancelled(t *testing.T) {
	limiter := NewImportLimiter(1, time.Second)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestImportLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	const totalRequests = 10

	limiter := NewImportLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer limiter.Release()

			mu.Lock()
			if current := limiter.ActiveCount(); current > maxObserved {
				maxObserved = current
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("max observed concurrent = %d, want <= %d", maxObserved, maxConcurrent)
	}
	if err := limiter.WaitForDrain(context.Background()); err != nil {
		t.Errorf("WaitForDrain: %v", err)
	}
}

func TestNewImportLimiter_Defaults(t *testing.T) {
	limiter := NewImportLimiter(0, 0)
	if got := limiter.Available(); got != DefaultMaxConcurrentImports {
		t.Errorf("Available = %d, want %d", got, DefaultMaxConcurrentImports)
	}
	if limiter.maxWait != DefaultMaxImportWait {
		t.Errorf("maxWait = %v, want %v", limiter.maxWait, DefaultMaxImportWait)
	}
}
