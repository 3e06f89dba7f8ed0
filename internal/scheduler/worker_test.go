package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"poolroute_backend/internal/events"
	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/internal/visits/repository/repositorytest"
	"poolroute_backend/internal/visits/service"
	"poolroute_backend/platform/apperr"
	"poolroute_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	fmtUnexpectedErr = "unexpected error: %v"
	fmtExpectedCount = "expected %d, got %d"
)

type testWindows struct{}

func (testWindows) GetGenerationHorizonDays() int  { return 28 }
func (testWindows) GetReconcileLookaheadDays() int { return 14 }

type runCall struct {
	tenant   uuid.UUID
	from, to time.Time
}

type fakeRunner struct {
	generated  []runCall
	reconciled []runCall
	genErr     error
}

func (r *fakeRunner) GeneratePeriod(_ context.Context, tenantID uuid.UUID, from, to time.Time) (*service.GenerationResult, error) {
	r.generated = append(r.generated, runCall{tenantID, from, to})
	result := &service.GenerationResult{Created: []uuid.UUID{}, Skipped: []uuid.UUID{}, Failed: []service.GenerationFailure{}}
	if r.genErr != nil {
		result.Failed = append(result.Failed, service.GenerationFailure{Error: r.genErr.Error()})
	}
	return result, r.genErr
}

func (r *fakeRunner) Reconcile(_ context.Context, tenantID uuid.UUID, from, to time.Time) (*service.ReconcileResult, error) {
	r.reconciled = append(r.reconciled, runCall{tenantID, from, to})
	return &service.ReconcileResult{}, nil
}

type fakeQueue struct {
	generate  map[uuid.UUID]domain.DateRange
	reconcile map[uuid.UUID]domain.DateRange
	fresh     map[uuid.UUID]domain.DateRange
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		generate:  map[uuid.UUID]domain.DateRange{},
		reconcile: map[uuid.UUID]domain.DateRange{},
		fresh:     map[uuid.UUID]domain.DateRange{},
	}
}

func (q *fakeQueue) EnqueueGenerate(_ context.Context, tenantID uuid.UUID, period domain.DateRange) error {
	q.generate[tenantID] = period
	return nil
}

func (q *fakeQueue) EnqueueReconcile(_ context.Context, tenantID uuid.UUID, period domain.DateRange) error {
	q.reconcile[tenantID] = period
	return nil
}

func (q *fakeQueue) EnqueueFreshReconcile(_ context.Context, tenantID uuid.UUID, period domain.DateRange) error {
	q.fresh[tenantID] = period
	return nil
}

type heldLock struct{ held bool }

func (l *heldLock) Acquire(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, !l.held, nil
}

func periodTask(t *testing.T, taskType string, payload PeriodPayload) *asynq.Task {
	t.Helper()
	task, err := newPeriodTask(taskType, payload)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	return task
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	return d
}

func TestGenerateTaskRunsThePayloadPeriod(t *testing.T) {
	runner := &fakeRunner{}
	h := NewHandlers(runner, repositorytest.NewMemory(), newFakeQueue(), &heldLock{}, testWindows{}, logger.Discard())
	tenant := uuid.New()

	task := periodTask(t, TaskGenerateVisits, PeriodPayload{TenantID: tenant.String(), From: "2026-03-01", To: "2026-03-28"})
	if err := h.handleGenerate(context.Background(), task); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if len(runner.generated) != 1 {
		t.Fatalf(fmtExpectedCount, 1, len(runner.generated))
	}
	got := runner.generated[0]
	if got.tenant != tenant || !got.from.Equal(day(t, "2026-03-01")) || !got.to.Equal(day(t, "2026-03-28")) {
		t.Fatalf("unexpected run %+v", got)
	}
}

func TestGeneratePartialFailureIsNotRetried(t *testing.T) {
	runner := &fakeRunner{genErr: apperr.PartialFailure("1 of 3 visits could not be generated")}
	h := NewHandlers(runner, repositorytest.NewMemory(), newFakeQueue(), nil, testWindows{}, logger.Discard())

	task := periodTask(t, TaskGenerateVisits, PeriodPayload{TenantID: uuid.NewString(), From: "2026-03-01", To: "2026-03-07"})
	if err := h.handleGenerate(context.Background(), task); err != nil {
		t.Fatalf("expected partial failure to be absorbed, got %v", err)
	}
}

func TestInvalidPayloadSkipsRetry(t *testing.T) {
	h := NewHandlers(&fakeRunner{}, repositorytest.NewMemory(), newFakeQueue(), nil, testWindows{}, logger.Discard())

	tests := []PeriodPayload{
		{TenantID: "nope", From: "2026-03-01", To: "2026-03-07"},
		{TenantID: uuid.NewString(), From: "03/01/2026", To: "2026-03-07"},
	}
	for _, p := range tests {
		err := h.handleReconcile(context.Background(), periodTask(t, TaskReconcileVisits, p))
		if !errors.Is(err, asynq.SkipRetry) {
			t.Fatalf("expected SkipRetry for %+v, got %v", p, err)
		}
	}
}

func TestHeldLockRequeuesRun(t *testing.T) {
	runner := &fakeRunner{}
	lock := &heldLock{held: true}
	h := NewHandlers(runner, repositorytest.NewMemory(), newFakeQueue(), lock, testWindows{}, logger.Discard())

	task := periodTask(t, TaskReconcileVisits, PeriodPayload{TenantID: uuid.NewString(), From: "2026-03-01", To: "2026-03-07"})
	err := h.handleReconcile(context.Background(), task)
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected the task to stay retryable")
	}
	if isFailure(err) {
		t.Fatalf("expected lock contention not to count as a failure")
	}
	if got := retryDelay(1, err, task); got != lockRetryDelay {
		t.Fatalf("expected retry after %s, got %s", lockRetryDelay, got)
	}
	if len(runner.reconciled) != 0 {
		t.Fatalf("expected no run while the lock is held")
	}

	lock.held = false
	if err := h.handleReconcile(context.Background(), task); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if len(runner.reconciled) != 1 {
		t.Fatalf(fmtExpectedCount, 1, len(runner.reconciled))
	}
}

func TestRunErrorsCountAsFailures(t *testing.T) {
	err := errors.New("database unavailable")
	if !isFailure(err) {
		t.Fatalf("expected ordinary errors to count as failures")
	}
	if got := retryDelay(5, err, nil); got <= lockRetryDelay {
		t.Fatalf("expected the default backoff for ordinary errors")
	}
}

func TestFanOutUsesTenantLocalToday(t *testing.T) {
	store := repositorytest.NewMemory()
	utc, auckland, inactive := uuid.New(), uuid.New(), uuid.New()
	store.AddTenant(repository.Tenant{ID: utc, Name: "A", Timezone: "UTC", Active: true})
	store.AddTenant(repository.Tenant{ID: auckland, Name: "B", Timezone: "Pacific/Auckland", Active: true})
	store.AddTenant(repository.Tenant{ID: inactive, Name: "C", Timezone: "UTC", Active: false})

	queue := newFakeQueue()
	h := NewHandlers(&fakeRunner{}, store, queue, nil, testWindows{}, logger.Discard())
	h.now = func() time.Time { return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC) }

	if err := h.handleGenerateAll(context.Background(), asynq.NewTask(TaskGenerateAll, nil)); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if len(queue.generate) != 2 {
		t.Fatalf(fmtExpectedCount, 2, len(queue.generate))
	}
	if got := queue.generate[utc]; !got.Start.Equal(day(t, "2026-03-01")) || got.Days() != 28 {
		t.Fatalf("unexpected UTC window %+v", got)
	}
	if got := queue.generate[auckland]; !got.Start.Equal(day(t, "2026-03-02")) {
		t.Fatalf("expected Auckland to be a day ahead, got %+v", got)
	}

	if err := h.handleReconcileAll(context.Background(), asynq.NewTask(TaskReconcileAll, nil)); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if got := queue.reconcile[utc]; got.Days() != 15 {
		t.Fatalf("expected today plus 14 days, got %d", got.Days())
	}
}

func TestAvailabilityTriggerClipsToFuture(t *testing.T) {
	store := repositorytest.NewMemory()
	tenant := uuid.New()
	store.AddTenant(repository.Tenant{ID: tenant, Name: "A", Timezone: "UTC", Active: true})

	tests := []struct {
		name       string
		start, end string
		wantQueued bool
		wantFrom   string
		wantTo     string
	}{
		{"future absence", "2026-03-09", "2026-03-13", true, "2026-03-09", "2026-03-13"},
		{"started yesterday", "2026-02-28", "2026-03-03", true, "2026-03-01", "2026-03-03"},
		{"entirely past", "2026-02-01", "2026-02-05", false, "", ""},
		{"very long", "2026-03-01", "2027-12-31", true, "2026-03-01", "2027-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := newFakeQueue()
			trigger := NewAvailabilityTrigger(queue, store, logger.Discard())
			trigger.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

			err := trigger.Handle(context.Background(), events.AvailabilityChanged{
				TenantID: tenant, TechnicianID: uuid.New(), StartDate: day(t, tt.start), EndDate: day(t, tt.end),
			})
			if err != nil {
				t.Fatalf(fmtUnexpectedErr, err)
			}
			if len(queue.reconcile) != 0 {
				t.Fatalf("expected triggered runs to bypass task dedupe")
			}
			got, queued := queue.fresh[tenant]
			if queued != tt.wantQueued {
				t.Fatalf("expected queued=%v, got %v", tt.wantQueued, queued)
			}
			if !queued {
				return
			}
			if !got.Start.Equal(day(t, tt.wantFrom)) || !got.End.Equal(day(t, tt.wantTo)) {
				t.Fatalf("unexpected window %s..%s", got.Start.Format(domain.DateLayout), got.End.Format(domain.DateLayout))
			}
		})
	}
}
