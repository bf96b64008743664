package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/agentmesh/core/internal/telemetry"
	"github.com/agentmesh/core/pkg/models"
)

// cronParser accepts standard 5-field expressions plus an optional leading
// seconds field, matching what operators paste in from other cron tooling.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// GraphRunner is the subset of graph.CompiledGraph the scheduler depends on.
// Declared locally (rather than imported) so this package doesn't need to
// import internal/graph just to name the method it calls.
type GraphRunner interface {
	Invoke(ctx context.Context, workflowID string, initial map[string]any) (*models.ExecutionResult, error)
}

// Config configures Scheduler behavior.
type Config struct {
	// PollInterval is how often due jobs are checked. Defaults to 10s.
	PollInterval time.Duration
	// MaxConcurrency bounds simultaneous job invocations. Defaults to 5.
	MaxConcurrency int
	Logger         *slog.Logger
	Metrics        *telemetry.Metrics
}

// Scheduler polls a Store for due jobs and invokes the registered graph for
// each, rescheduling via the job's cron expression afterward.
type Scheduler struct {
	store  Store
	graphs map[string]GraphRunner
	config Config
	logger *slog.Logger

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	sem     chan struct{}
}

// New builds a Scheduler backed by store, applying config defaults.
func New(store Store, config Config) *Scheduler {
	if config.PollInterval <= 0 {
		config.PollInterval = 10 * time.Second
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:  store,
		graphs: make(map[string]GraphRunner),
		config: config,
		logger: logger.With("component", "scheduler"),
		sem:    make(chan struct{}, config.MaxConcurrency),
	}
}

// RegisterGraph makes a compiled graph invokable by scheduled jobs whose
// WorkflowID matches name.
func (s *Scheduler) RegisterGraph(name string, graph GraphRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[name] = graph
}

// Schedule creates a job and computes its first NextRunAt.
func (s *Scheduler) Schedule(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = JobActive
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	next, err := nextRun(job.Schedule, job.Timezone, now)
	if err != nil {
		return fmt.Errorf("schedule: invalid cron expression %q: %w", job.Schedule, err)
	}
	job.NextRunAt = next
	return s.store.Create(ctx, job)
}

// Start begins the poll loop. It returns immediately; call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.pollLoop(ctx)
}

// Stop cancels the poll loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.pollDue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollDue(ctx)
		}
	}
}

func (s *Scheduler) pollDue(ctx context.Context) {
	now := time.Now()
	due, err := s.store.DueJobs(ctx, now, 100)
	if err != nil {
		s.logger.Error("failed to list due jobs", "error", err)
		return
	}
	for _, job := range due {
		job := job
		select {
		case s.sem <- struct{}{}:
		default:
			s.logger.Warn("scheduler at max concurrency, deferring job to next poll", "job_id", job.ID)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			s.runJob(ctx, job, now)
		}()
	}
}

func (s *Scheduler) runJob(ctx context.Context, job *Job, scheduledAt time.Time) {
	s.mu.RLock()
	runner, ok := s.graphs[job.WorkflowID]
	s.mu.RUnlock()
	if !ok {
		s.logger.Error("no graph registered for job", "job_id", job.ID, "workflow_id", job.WorkflowID)
		s.disable(ctx, job)
		return
	}

	runID := fmt.Sprintf("%s-%d", job.ID, scheduledAt.UnixNano())
	s.logger.Info("running scheduled job", "job_id", job.ID, "run_id", runID)

	result, err := runner.Invoke(ctx, runID, job.Input)
	status := "success"
	if err != nil || (result != nil && result.Status != models.StatusCompleted) {
		status = "error"
		s.logger.Error("scheduled job run failed", "job_id", job.ID, "run_id", runID, "error", err)
	}
	if s.config.Metrics != nil {
		s.config.Metrics.RecordScheduleRun(job.Name, status)
	}

	job.LastRunAt = scheduledAt
	next, err := nextRun(job.Schedule, job.Timezone, scheduledAt)
	if err != nil {
		s.logger.Error("disabling job with invalid schedule", "job_id", job.ID, "error", err)
		s.disable(ctx, job)
		return
	}
	if next.IsZero() {
		s.disable(ctx, job)
		return
	}
	job.NextRunAt = next
	job.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, job); err != nil {
		s.logger.Error("failed to persist job reschedule", "job_id", job.ID, "error", err)
	}
}

func (s *Scheduler) disable(ctx context.Context, job *Job) {
	job.Status = JobDisabled
	job.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, job); err != nil {
		s.logger.Error("failed to disable job", "job_id", job.ID, "error", err)
	}
}

// nextRun computes the next execution time for a schedule expression after
// the given time. "@once" and "@at <RFC3339>" schedules return the zero
// time once consumed, signaling the job should be disabled rather than
// rescheduled.
func nextRun(schedule, timezone string, after time.Time) (time.Time, error) {
	if schedule == "@once" {
		return time.Time{}, nil
	}
	if strings.HasPrefix(schedule, "@at ") {
		ts := strings.TrimPrefix(schedule, "@at ")
		at, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse @at timestamp: %w", err)
		}
		if at.After(after) {
			return at, nil
		}
		return time.Time{}, nil
	}

	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	return sched.Next(after.In(loc)), nil
}
