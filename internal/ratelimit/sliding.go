package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	window    = time.Second
	minWait   = 10 * time.Millisecond
	minPerSec = 1
)

var _ Limiter = (*SlidingWindow)(nil)

// SlidingWindow is an in-process sliding-window rate limiter. All workers of a
// batch share one instance, so the ceiling is global rather than per worker.
// The check-and-record step runs under a single mutex; waiters re-enter the
// lock in FIFO arrival order with no further fairness guarantee.
type SlidingWindow struct {
	perSec int

	mu         sync.Mutex
	timestamps []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSlidingWindow(perSec int) *SlidingWindow {
	return newSlidingWindow(perSec, time.Now, sleepWithContext)
}

func newSlidingWindow(
	perSec int,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) *SlidingWindow {
	if perSec < minPerSec {
		perSec = minPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &SlidingWindow{
		perSec: perSec,
		now:    nowFn,
		sleep:  sleepFn,
	}
}

func (l *SlidingWindow) Acquire(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := l.tryAcquire()
		if ok {
			return nil
		}

		if wait < minWait {
			wait = minWait
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAcquire evicts expired timestamps, then records the acquisition if the
// window has capacity. On failure it returns how long until the oldest
// recorded timestamp leaves the window.
func (l *SlidingWindow) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	evicted := 0
	for evicted < len(l.timestamps) && now.Sub(l.timestamps[evicted]) >= window {
		evicted++
	}
	if evicted > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[evicted:]...)
	}

	if len(l.timestamps) < l.perSec {
		l.timestamps = append(l.timestamps, now)
		return 0, true
	}

	return window - now.Sub(l.timestamps[0]), false
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
