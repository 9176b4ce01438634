// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package scheduler runs named background jobs at fixed intervals on top of
// robfig/cron. Overlapping runs of the same job are skipped and panics are
// recovered and logged.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/oops"

	"github.com/inkwell/inkwell/pkg/errutil"
)

// Job is a unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means the run lives as long as the
	// scheduler.
	Timeout time.Duration
	// RunOnStart fires the job once as soon as the scheduler starts.
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Scheduler owns a cron instance and the context handed to running jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	chain cron.Chain

	mu      sync.Mutex
	jobs    []scheduled
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// New creates a stopped scheduler. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger.With("component", "scheduler")}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl)),
		chain:  cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		logger: logger,
	}
}

// scheduled pairs a job with its wrapped runner so the start-up run and
// the ticks share one overlap guard.
type scheduled struct {
	job    Job
	runner cron.Job
}

// Add registers job. Jobs can only be added before Start.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" {
		return oops.Code("JOB_INVALID").Errorf("job name is required")
	}
	if job.Run == nil {
		return oops.Code("JOB_INVALID").With("job", job.Name).Errorf("job function is required")
	}
	if job.Interval < time.Second {
		return oops.Code("JOB_INVALID").
			With("job", job.Name).
			With("interval", job.Interval.String()).
			Errorf("job interval must be at least one second")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return oops.Code("SCHEDULER_RUNNING").With("job", job.Name).Errorf("cannot add job to running scheduler")
	}

	runner := s.chain.Then(cron.FuncJob(func() { s.run(job) }))
	s.cron.Schedule(cron.Every(job.Interval), runner)
	s.jobs = append(s.jobs, scheduled{job: job, runner: runner})
	return nil
}

// Start begins scheduling. Jobs receive a context derived from ctx that is
// cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return oops.Code("SCHEDULER_RUNNING").Errorf("scheduler already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, sj := range s.jobs {
		if sj.job.RunOnStart {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				sj.runner.Run()
			}()
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop cancels running jobs and waits for them to return or for ctx to
// expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return oops.Code("SCHEDULER_STOP_TIMEOUT").Wrap(ctx.Err())
	}
}

func (s *Scheduler) run(job Job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	logger := s.logger.With("job", job.Name)
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		RecordJobRun(job.Name, OutcomeError, elapsed)
		errutil.LogErrorContext(ctx, logger, "scheduled job failed", err)
		return
	}
	RecordJobRun(job.Name, OutcomeSuccess, elapsed)
	logger.DebugContext(ctx, "scheduled job finished", "duration", elapsed)
}

// cronLogger adapts slog to cron.Logger. Cron's chatter goes to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
