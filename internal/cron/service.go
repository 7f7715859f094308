package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/globelconnect/esim-backend/pkg/logger"
	"github.com/globelconnect/esim-backend/pkg/metrics"
)

const (
	DefaultSchedule = "0 */6 * * *"
	cycleJobName    = "cron-cycle"
)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	// Schedule is a five-field cron expression.
	Schedule string
}

// Service runs every registered job once at start and then on the cron
// schedule. Cycles of one Service never overlap: a tick that fires while a
// cycle is still running is dropped, and each cycle must also acquire the
// Lock. Services in other processes are not coordinated.
type Service struct {
	logg      *logger.Logger
	registry  *Registry
	lock      Lock
	metrics   *metrics.CronJobMetrics
	schedule  string
	scheduler gocron.Scheduler
	runCtx    context.Context
}

// NewService builds a cron service and validates the schedule.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	schedule := strings.TrimSpace(params.Schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}

	s := &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		schedule: schedule,
		runCtx:   context.Background(),
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(s.tick),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(cycleJobName),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule %q: %w", schedule, err)
	}
	s.scheduler = scheduler
	return s, nil
}

// Schedule returns the effective cron expression.
func (s *Service) Schedule() string {
	return s.schedule
}

// Run starts the scheduler and blocks until the context is canceled, then
// waits for an in-flight cycle to finish.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.runCtx = ctx
	s.scheduler.Start()
	s.logg.Info(s.logg.WithField(ctx, "schedule", s.schedule), "cron service started")

	<-ctx.Done()
	s.logg.Info(ctx, "cron service context canceled")
	if err := s.scheduler.Shutdown(); err != nil && !errors.Is(err, gocron.ErrStopSchedulerTimedOut) {
		s.logg.Error(ctx, "cron scheduler shutdown failed", err)
	}
	return ctx.Err()
}

func (s *Service) tick() {
	ctx := s.runCtx
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "previous cycle still running; skipping this cycle")
		for _, job := range s.registry.Jobs() {
			s.recordSkipped(job.Name())
		}
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	s.logg.Info(ctx, "scheduled run starting")
	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	s.logg.Info(ctx, "scheduled run complete")
	return nil
}

// runJob never propagates a job failure; it is logged and counted.
func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.observeDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.recordFailure(job.Name())
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.recordSuccess(job.Name())
}

func (s *Service) observeDuration(job string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(job, duration)
}

func (s *Service) recordSuccess(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(job)
}

func (s *Service) recordFailure(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(job)
}

func (s *Service) recordSkipped(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSkipped(job)
}
