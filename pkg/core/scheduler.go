// Package core runs periodic background jobs.
package core

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTick is used when the scheduler is given no interval.
const DefaultTick = time.Minute

// Scheduler manages the central heartbeat and scheduled jobs.
type Scheduler struct {
	interval time.Duration
	now      func() time.Time
	jobs     []Job
	wg       sync.WaitGroup
}

// NewScheduler creates a new Scheduler. A nil clock means time.Now.
func NewScheduler(interval time.Duration, now func() time.Time) *Scheduler {
	if interval <= 0 {
		interval = DefaultTick
	}
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		interval: interval,
		now:      now,
		jobs:     []Job{},
	}
}

// AddJob registers a job.
func (s *Scheduler) AddJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start runs the main loop. It evaluates jobs once immediately, then on
// every tick, and blocks until ctx is cancelled and running jobs return.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Scheduler started", "interval", s.interval, "jobs", len(s.jobs))
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates every job against the scheduler clock and starts the
// ones that are due.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()
	for _, job := range s.jobs {
		if job.ShouldFire(now) {
			s.wg.Add(1)
			go func(j Job) {
				defer s.wg.Done()
				j.Run(ctx, now)
			}(job)
		}
	}
}

// Wait blocks until jobs started by Tick have returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
