package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestBaseJob_LockUnlock tests the atomic lock behavior.
func TestBaseJob_LockUnlock(t *testing.T) {
	b := NewBaseJob("test")

	if !b.TryLock() {
		t.Fatal("First TryLock should succeed")
	}
	if !b.Running() {
		t.Error("Running() should be true while locked")
	}
	if b.TryLock() {
		t.Error("Second TryLock should fail when already locked")
	}
	b.Unlock()
	if b.Running() {
		t.Error("Running() should be false after Unlock")
	}
	if !b.TryLock() {
		t.Error("TryLock should succeed after Unlock")
	}
}

// TestBaseJob_Name tests the Name method.
func TestBaseJob_Name(t *testing.T) {
	tests := []struct {
		name     string
		jobName  string
		wantName string
	}{
		{"Simple name", "CacheSweep", "CacheSweep"},
		{"Empty name", "", ""},
		{"Unicode name", "作业", "作业"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBaseJob(tt.jobName)
			if got := b.Name(); got != tt.wantName {
				t.Errorf("Name() = %v, want %v", got, tt.wantName)
			}
		})
	}
}

// TestTimeJob_ShouldFire tests the time-based trigger logic.
func TestTimeJob_ShouldFire(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		threshold time.Duration
		elapsed   time.Duration
		wantFire  bool
	}{
		{"Below threshold - no fire", time.Hour, 59 * time.Minute, false},
		{"At threshold - fires", time.Hour, time.Hour, true},
		{"Above threshold - fires", time.Hour, 2 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewTimeJob("test", tt.threshold, func(ctx context.Context, now time.Time) {})

			if !job.ShouldFire(start) {
				t.Fatal("First run should always fire")
			}
			job.Run(context.Background(), start)

			if got := job.ShouldFire(start.Add(tt.elapsed)); got != tt.wantFire {
				t.Errorf("ShouldFire() = %v, want %v", got, tt.wantFire)
			}
		})
	}
}

func TestTimeJob_DisabledThreshold(t *testing.T) {
	job := NewTimeJob("off", 0, func(ctx context.Context, now time.Time) {
		t.Error("disabled job must not run its action via the scheduler")
	})
	if job.ShouldFire(time.Now()) {
		t.Error("ShouldFire should be false for a zero threshold")
	}
}

// TestTimeJob_Running tests that job doesn't fire while running.
func TestTimeJob_Running(t *testing.T) {
	var wg sync.WaitGroup
	started := make(chan struct{})
	finish := make(chan struct{})

	job := NewTimeJob("test", time.Nanosecond, func(ctx context.Context, now time.Time) {
		close(started)
		<-finish
	})

	now := time.Now()
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run(context.Background(), now)
	}()
	<-started

	if job.ShouldFire(now.Add(time.Hour)) {
		t.Error("ShouldFire should return false while job is running")
	}

	close(finish)
	wg.Wait()

	if !job.ShouldFire(now.Add(time.Hour)) {
		t.Error("ShouldFire should return true after job finishes")
	}
}
