package core

// limiter.go bounds how many batch operations run at once.
//
// Operations stream whole files and hold several file handles each, so the
// server admits at most maxConcurrent of them. A caller that cannot get a slot
// within maxWait fails with ErrTooManyOperations. Slots are tagged with the
// operation name so the health endpoint can say what is running, and
// WaitForDrain lets shutdown block until the last one finishes.

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"
)

// ErrTooManyOperations is returned when every slot stays occupied for the
// whole wait period. Clients should retry after a short delay.
var ErrTooManyOperations = errors.New("too many concurrent operations, please try again later")

// DefaultMaxConcurrent is the default number of parallel operations.
const DefaultMaxConcurrent = 2

// DefaultMaxWait is how long to wait for a slot before rejecting.
const DefaultMaxWait = 30 * time.Second

// Limiter is a counting semaphore over operation slots.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	running map[string]int // operation name → slots held
	active  int
	idle    []chan struct{} // closed when active drops to zero
}

// NewLimiter allows at most maxConcurrent simultaneous operations. Values
// <= 0 select the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		running: make(map[string]int),
	}
}

// Acquire waits up to maxWait for a slot for op. The caller must Release it.
func (l *Limiter) Acquire(ctx context.Context, op string) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.track(op, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyOperations
	}
}

// TryAcquire takes a slot for op only if one is free right now.
func (l *Limiter) TryAcquire(op string) bool {
	select {
	case l.slots <- struct{}{}:
		l.track(op, 1)
		return true
	default:
		return false
	}
}

// Release returns the slot op took with Acquire or TryAcquire.
func (l *Limiter) Release(op string) {
	l.track(op, -1)
	<-l.slots
}

func (l *Limiter) track(op string, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active += delta
	if n := l.running[op] + delta; n > 0 {
		l.running[op] = n
	} else {
		delete(l.running, op)
	}

	if l.active == 0 {
		for _, ch := range l.idle {
			close(ch)
		}
		l.idle = nil
	}
}

// ActiveCount returns the number of running operations.
func (l *Limiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *Limiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no operation is running or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	if l.active == 0 {
		l.mu.Unlock()
		return nil
	}
	idle := make(chan struct{})
	l.idle = append(l.idle, idle)
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot for the health endpoint.
type LimiterStatus struct {
	Active        int            `json:"active"`
	Available     int            `json:"available"`
	MaxConcurrent int            `json:"max_concurrent"`
	Running       map[string]int `json:"running,omitempty"`
}

// Status returns the current limiter state.
func (l *Limiter) Status() LimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	return LimiterStatus{
		Active:        l.active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
		Running:       maps.Clone(l.running),
	}
}
