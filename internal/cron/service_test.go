package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/globelconnect/esim-backend/internal/plans"
	"github.com/globelconnect/esim-backend/pkg/logger"
	"github.com/globelconnect/esim-backend/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	err      error
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type signalJob struct {
	ran chan struct{}
}

func (s *signalJob) Name() string { return "signal" }

func (s *signalJob) Run(context.Context) error {
	select {
	case s.ran <- struct{}{}:
	default:
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	reg := prometheus.NewRegistry()
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(success, failure),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if success.runs != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failure job to run once, ran %d", failure.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
	if got, err := testutil.GatherAndCount(reg, "globelconnect_job_failure_total"); err != nil || got != 1 {
		t.Fatalf("expected one failure series, got %d (%v)", got, err)
	}
	if got, err := testutil.GatherAndCount(reg, "globelconnect_job_success_total"); err != nil || got != 1 {
		t.Fatalf("expected one success series, got %d (%v)", got, err)
	}
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "plan_sync"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
}

func TestServiceRunCycleReturnsLockError(t *testing.T) {
	job := &testJob{name: "plan_sync"}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{err: errors.New("lock backend unavailable")},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err == nil {
		t.Fatal("expected lock error")
	}
	if job.runs != 0 {
		t.Fatalf("expected job not to run, ran %d", job.runs)
	}
}

func TestServiceRunStartsWithImmediateCycle(t *testing.T) {
	job := &signalJob{ran: make(chan struct{}, 1)}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     NewMutexLock(),
		Schedule: "0 0 1 1 *",
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	select {
	case <-job.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("expected an immediate cycle on start")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after cancel")
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: NewMutexLock()}); err == nil {
		t.Fatal("expected missing logger to fail")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatal("expected missing lock to fail")
	}
	if _, err := NewService(ServiceParams{Logger: testLogger(), Lock: NewMutexLock(), Schedule: "every now and then"}); err == nil {
		t.Fatal("expected invalid schedule to fail")
	}
	service, err := NewService(ServiceParams{Logger: testLogger(), Lock: NewMutexLock()})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if service.Schedule() != DefaultSchedule {
		t.Fatalf("expected default schedule, got %q", service.Schedule())
	}
}

type blockingLister struct {
	started chan struct{}
	release chan struct{}
	plans   []plans.Plan
}

func (b *blockingLister) ListPackages(ctx context.Context) ([]plans.Plan, error) {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.plans, nil
}

func newReplica(t *testing.T, vendor packageLister) (*Service, *plans.Store) {
	t.Helper()
	store := plans.NewStore()
	job, err := NewPlanSyncJob(PlanSyncJobParams{Logger: testLogger(), Store: store, Vendor: vendor})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     NewMutexLock(),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service, store
}

func TestReplicasSyncTheirOwnCatalogs(t *testing.T) {
	slow := &blockingLister{
		started: make(chan struct{}),
		release: make(chan struct{}),
		plans:   []plans.Plan{{PackageCode: "A1"}},
	}
	replicaA, storeA := newReplica(t, slow)
	replicaB, storeB := newReplica(t, &fakeLister{plans: []plans.Plan{{PackageCode: "B1"}, {PackageCode: "B2"}}})

	done := make(chan error, 1)
	go func() { done <- replicaA.runCycle(context.Background()) }()
	<-slow.started

	// replica A is mid-sync; B must still fill its own catalog on cold start
	if err := replicaB.runCycle(context.Background()); err != nil {
		t.Fatalf("replica B cycle: %v", err)
	}
	if got := storeB.Len(); got != 2 {
		t.Fatalf("expected replica B to load 2 plans, got %d", got)
	}

	close(slow.release)
	if err := <-done; err != nil {
		t.Fatalf("replica A cycle: %v", err)
	}
	if got := storeA.Len(); got != 1 {
		t.Fatalf("expected replica A to load 1 plan, got %d", got)
	}
}

type contextRecordingLock struct {
	releaseErr error
}

func (c *contextRecordingLock) Acquire(context.Context) (bool, error) { return true, nil }

func (c *contextRecordingLock) Release(ctx context.Context) error {
	c.releaseErr = ctx.Err()
	return nil
}

func TestServiceReleasesLockAfterCancel(t *testing.T) {
	lock := &contextRecordingLock{}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(&testJob{name: "plan_sync"}),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.runCycle(ctx); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if lock.releaseErr != nil {
		t.Fatalf("expected release with a live context, got %v", lock.releaseErr)
	}
}
