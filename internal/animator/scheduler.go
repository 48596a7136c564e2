// File: internal/animator/scheduler.go
package animator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// FrameScheduler is the host's frame loop. NextFrame suspends until the next frame is
// due and reports its timestamp; animations do their work between calls. Implementations
// must honour context cancellation, which stops the host loop but never the animation.
type FrameScheduler interface {
	NextFrame(ctx context.Context) (time.Time, error)
	Now() time.Time
}

// RateScheduler paces frames against the wall clock using a token bucket, so a slow
// frame never causes a burst of catch-up frames.
type RateScheduler struct {
	limiter *rate.Limiter
}

// NewRateScheduler creates a wall-clock scheduler emitting at most one frame per interval.
func NewRateScheduler(interval time.Duration) *RateScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &RateScheduler{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// NextFrame blocks until the limiter releases the next frame.
func (s *RateScheduler) NextFrame(ctx context.Context) (time.Time, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return time.Time{}, err
	}
	return time.Now(), nil
}

// Now returns the wall-clock time.
func (s *RateScheduler) Now() time.Time { return time.Now() }

// SteppedScheduler is a virtual clock that moves forward by a fixed step on every frame
// without sleeping. Headless players and tests use it to replay animations instantly.
type SteppedScheduler struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewSteppedScheduler creates a virtual clock starting at start.
func NewSteppedScheduler(start time.Time, step time.Duration) *SteppedScheduler {
	if step <= 0 {
		step = DefaultFrameInterval
	}
	return &SteppedScheduler{now: start, step: step}
}

// NextFrame advances the virtual clock by one step.
func (s *SteppedScheduler) NextFrame(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(s.step)
	return s.now, nil
}

// Now returns the current virtual time.
func (s *SteppedScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}
