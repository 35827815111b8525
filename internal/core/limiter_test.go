package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter_AcquireRelease(t *testing.T) {
	limiter := NewLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	for _, op := range []string{OpMerge, OpCompare} {
		if err := limiter.Acquire(ctx, op); err != nil {
			t.Fatalf("Acquire %s failed: %v", op, err)
		}
	}
	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	limiter.Release(OpMerge)
	limiter.Release(OpCompare)

	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("after Release, ActiveCount = %d, want 0", got)
	}
}

func TestLimiter_RejectsWhenFull(t *testing.T) {
	limiter := NewLimiter(1, 100*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx, OpMerge); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release(OpMerge)

	start := time.Now()
	err := limiter.Acquire(ctx, OpConvert)
	elapsed := time.Since(start)

	if err != ErrTooManyOperations {
		t.Errorf("expected ErrTooManyOperations, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("gave up too early: %v", elapsed)
	}
	if msg := MapError(err); msg.Code != "RATE001" {
		t.Errorf("MapError code = %q, want RATE001", msg.Code)
	}
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	limiter := NewLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background(), OpConvert); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer limiter.Release(OpConvert)

			mu.Lock()
			if c := limiter.ActiveCount(); c > maxObserved {
				maxObserved = c
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("observed %d concurrent operations, max %d", maxObserved, maxConcurrent)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestLimiter_TryAcquire(t *testing.T) {
	limiter := NewLimiter(1, time.Second)

	if !limiter.TryAcquire(OpInspect) {
		t.Fatal("first TryAcquire should succeed")
	}
	if limiter.TryAcquire(OpInspect) {
		t.Error("second TryAcquire should fail")
		limiter.Release(OpInspect)
	}
	limiter.Release(OpInspect)

	if !limiter.TryAcquire(OpInspect) {
		t.Error("TryAcquire after Release should succeed")
	}
	limiter.Release(OpInspect)
}

func TestLimiter_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(1, 5*time.Second)
	if err := limiter.Acquire(context.Background(), OpMerge); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release(OpMerge)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- limiter.Acquire(ctx, OpMerge) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after cancellation")
	}
}

func TestLimiter_WaitForDrain(t *testing.T) {
	limiter := NewLimiter(2, time.Second)
	ctx := context.Background()

	if err := limiter.WaitForDrain(ctx); err != nil {
		t.Fatalf("WaitForDrain on an idle limiter: %v", err)
	}

	limiter.Acquire(ctx, OpMerge)
	limiter.Acquire(ctx, OpDelete)

	drained := make(chan error, 1)
	go func() { drained <- limiter.WaitForDrain(ctx) }()

	limiter.Release(OpMerge)
	select {
	case <-drained:
		t.Error("WaitForDrain returned with one operation running")
	case <-time.After(100 * time.Millisecond):
	}

	limiter.Release(OpDelete)
	select {
	case err := <-drained:
		if err != nil {
			t.Errorf("WaitForDrain returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete")
	}
}

func TestLimiter_WaitForDrainTimeout(t *testing.T) {
	limiter := NewLimiter(1, time.Second)
	limiter.Acquire(context.Background(), OpMerge)
	defer limiter.Release(OpMerge)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.WaitForDrain(ctx); err != context.DeadlineExceeded {
		t.Errorf("WaitForDrain = %v, want context.DeadlineExceeded", err)
	}
}

func TestLimiter_Status(t *testing.T) {
	limiter := NewLimiter(0, 0)
	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrent)
	}

	limiter.Acquire(context.Background(), OpMerge)
	limiter.Acquire(context.Background(), OpMerge)

	status := limiter.Status()
	if status.Active != 2 || status.Available != DefaultMaxConcurrent-2 {
		t.Errorf("Status = %+v", status)
	}
	if got := status.Running[OpMerge]; got != 2 {
		t.Errorf("Running[merge] = %d, want 2", got)
	}

	limiter.Release(OpMerge)
	limiter.Release(OpMerge)
	if status := limiter.Status(); len(status.Running) != 0 {
		t.Errorf("Running after release = %v, want empty", status.Running)
	}
}
