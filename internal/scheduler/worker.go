package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/internal/visits/repository"
	"poolroute_backend/internal/visits/service"
	"poolroute_backend/platform/apperr"
	"poolroute_backend/platform/config"
	"poolroute_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	runLockTTL     = 10 * time.Minute
	lockRetryDelay = 30 * time.Second
)

// ErrRunInProgress is returned while another worker holds the run-lock. The
// task goes back to the queue and runs once the lock is free.
var ErrRunInProgress = errors.New("scheduled run already in progress")

// Runner executes scheduling runs for one tenant.
type Runner interface {
	GeneratePeriod(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) (*service.GenerationResult, error)
	Reconcile(ctx context.Context, tenantID uuid.UUID, periodStart, periodEnd time.Time) (*service.ReconcileResult, error)
}

// TenantLister lists the tenants scheduled runs fan out to.
type TenantLister interface {
	ListActiveTenants(ctx context.Context) ([]repository.Tenant, error)
}

// Handlers holds the task handlers independent of the asynq server.
type Handlers struct {
	runner  Runner
	tenants TenantLister
	queue   Enqueuer
	lock    Locker
	windows config.GenerationConfig
	log     *logger.Logger
	now     func() time.Time
}

func NewHandlers(runner Runner, tenants TenantLister, queue Enqueuer, lock Locker, windows config.GenerationConfig, log *logger.Logger) *Handlers {
	return &Handlers{
		runner:  runner,
		tenants: tenants,
		queue:   queue,
		lock:    lock,
		windows: windows,
		log:     log,
		now:     time.Now,
	}
}

// Register mounts every task handler on mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskGenerateVisits, h.handleGenerate)
	mux.HandleFunc(TaskReconcileVisits, h.handleReconcile)
	mux.HandleFunc(TaskGenerateAll, h.handleGenerateAll)
	mux.HandleFunc(TaskReconcileAll, h.handleReconcileAll)
}

func (h *Handlers) handleGenerate(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePeriodPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	tenantID, from, to, err := payload.Parse()
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return h.locked(ctx, "generate:"+payload.TenantID, func() error {
		result, err := h.runner.GeneratePeriod(ctx, tenantID, from, to)
		if apperr.Is(err, apperr.KindPartialFailure) {
			// Failed items are retried by the next scheduled run.
			h.log.Warn("generation partially failed", "tenant_id", tenantID, "failed", len(result.Failed), "created", len(result.Created))
			return nil
		}
		return skipRetryOnClientError(err)
	})
}

func (h *Handlers) handleReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePeriodPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	tenantID, from, to, err := payload.Parse()
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return h.locked(ctx, "reconcile:"+payload.TenantID, func() error {
		_, err := h.runner.Reconcile(ctx, tenantID, from, to)
		return skipRetryOnClientError(err)
	})
}

func (h *Handlers) handleGenerateAll(ctx context.Context, _ *asynq.Task) error {
	return h.fanOut(ctx, h.windows.GetGenerationHorizonDays(), domain.MaxGenerationDays, h.queue.EnqueueGenerate)
}

func (h *Handlers) handleReconcileAll(ctx context.Context, _ *asynq.Task) error {
	return h.fanOut(ctx, h.windows.GetReconcileLookaheadDays()+1, domain.MaxReconcileDays, h.queue.EnqueueReconcile)
}

func (h *Handlers) fanOut(ctx context.Context, days, maxDays int, enqueue func(context.Context, uuid.UUID, domain.DateRange) error) error {
	tenants, err := h.tenants.ListActiveTenants(ctx)
	if err != nil {
		return err
	}
	now := h.now()
	var failed int
	for _, t := range tenants {
		if err := enqueue(ctx, t.ID, rollingWindow(now, t.Location(), days, maxDays)); err != nil {
			failed++
			h.log.Error("failed to enqueue tenant run", "tenant_id", t.ID, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tenant runs could not be enqueued", failed, len(tenants))
	}
	return nil
}

// locked runs fn under the tenant run-lock. A held lock fails the task with
// ErrRunInProgress so asynq retries it after the current run.
func (h *Handlers) locked(ctx context.Context, key string, fn func() error) error {
	if h.lock == nil {
		return fn()
	}
	release, ok, err := h.lock.Acquire(ctx, key, runLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		h.log.Info("scheduled run already in progress, retrying later", "lock", key)
		return fmt.Errorf("%s: %w", key, ErrRunInProgress)
	}
	defer release()
	return fn()
}

// isFailure keeps lock contention out of the retry budget and queue stats.
func isFailure(err error) bool {
	return !errors.Is(err, ErrRunInProgress)
}

func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	if errors.Is(err, ErrRunInProgress) {
		return lockRetryDelay
	}
	return asynq.DefaultRetryDelayFunc(n, err, task)
}

func skipRetryOnClientError(err error) error {
	if err == nil {
		return nil
	}
	switch apperr.GetKind(err) {
	case apperr.KindValidation, apperr.KindNotFound:
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// Worker is the asynq server processing scheduling tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, handlers *Handlers, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
		IsFailure:      isFailure,
		RetryDelayFunc: retryDelay,
	})

	mux := asynq.NewServeMux()
	handlers.Register(mux)

	return &Worker{server: server, mux: mux, log: log}, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
