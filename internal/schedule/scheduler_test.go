package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentmesh/core/pkg/models"
)

type fakeRunner struct {
	calls atomic.Int32
	fail  bool
}

func (f *fakeRunner) Invoke(ctx context.Context, workflowID string, initial map[string]any) (*models.ExecutionResult, error) {
	f.calls.Add(1)
	if f.fail {
		return nil, fmt.Errorf("boom")
	}
	return &models.ExecutionResult{Status: models.StatusCompleted, State: initial}, nil
}

func TestNextRunComputesFromCronExpression(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	next, err := nextRun("0 * * * *", "", base)
	if err != nil {
		t.Fatalf("nextRun: %v", err)
	}
	if next.Minute() != 0 || !next.After(base) {
		t.Fatalf("expected next top-of-hour after base, got %v", next)
	}
}

func TestNextRunOnceSchedulesOnceThenZero(t *testing.T) {
	base := time.Now()
	next, err := nextRun("@once", "", base)
	if err != nil {
		t.Fatalf("nextRun: %v", err)
	}
	if !next.IsZero() {
		t.Fatalf("expected zero time for @once, got %v", next)
	}
}

func TestNextRunAtFutureTimestamp(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	future := base.Add(time.Hour).Format(time.RFC3339)
	next, err := nextRun("@at "+future, "", base)
	if err != nil {
		t.Fatalf("nextRun: %v", err)
	}
	if next.IsZero() {
		t.Fatalf("expected non-zero next run for a future @at timestamp")
	}
}

func TestNextRunAtPastTimestampReturnsZero(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	past := base.Add(-time.Hour).Format(time.RFC3339)
	next, err := nextRun("@at "+past, "", base)
	if err != nil {
		t.Fatalf("nextRun: %v", err)
	}
	if !next.IsZero() {
		t.Fatalf("expected zero time once an @at schedule is past due, got %v", next)
	}
}

func TestNextRunRejectsInvalidExpression(t *testing.T) {
	if _, err := nextRun("not a cron expr !!!", "", time.Now()); err == nil {
		t.Fatal("expected error for malformed cron expression")
	}
}

func TestSchedulerRunsDueOnceJobAndDisablesIt(t *testing.T) {
	store := NewMemoryStore()
	runner := &fakeRunner{}
	sched := New(store, Config{PollInterval: 20 * time.Millisecond, MaxConcurrency: 2})
	sched.RegisterGraph("demo", runner)

	job := &Job{Name: "demo-job", Schedule: "@once", WorkflowID: "demo", Input: map[string]any{"x": 1}}
	if err := sched.Schedule(context.Background(), job); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	// force immediately due
	job.NextRunAt = time.Now().Add(-time.Millisecond)
	store.Update(context.Background(), job)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	deadline := time.After(400 * time.Millisecond)
	for runner.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for scheduled job to run")
		case <-time.After(10 * time.Millisecond):
		}
	}

	stored, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != JobDisabled {
		t.Fatalf("expected @once job to be disabled after running, got %v", stored.Status)
	}
}

func TestSchedulerDisablesJobWithUnknownGraph(t *testing.T) {
	store := NewMemoryStore()
	sched := New(store, Config{PollInterval: 20 * time.Millisecond})

	job := &Job{Name: "orphan", Schedule: "@once", WorkflowID: "missing"}
	sched.Schedule(context.Background(), job)
	job.NextRunAt = time.Now().Add(-time.Millisecond)
	store.Update(context.Background(), job)

	sched.runJob(context.Background(), job, time.Now())

	stored, _ := store.Get(context.Background(), job.ID)
	if stored.Status != JobDisabled {
		t.Fatalf("expected job with unregistered graph to be disabled, got %v", stored.Status)
	}
}

func TestMemoryStoreDueJobsFiltersByStatusAndTime(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	due := &Job{ID: "due", Status: JobActive, NextRunAt: now.Add(-time.Minute)}
	future := &Job{ID: "future", Status: JobActive, NextRunAt: now.Add(time.Hour)}
	disabled := &Job{ID: "disabled", Status: JobDisabled, NextRunAt: now.Add(-time.Minute)}
	for _, j := range []*Job{due, future, disabled} {
		store.Create(ctx, j)
	}

	jobs, err := store.DueJobs(ctx, now, 10)
	if err != nil {
		t.Fatalf("DueJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "due" {
		t.Fatalf("expected only the due job, got %+v", jobs)
	}
}
