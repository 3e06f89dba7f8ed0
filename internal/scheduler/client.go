package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"poolroute_backend/internal/visits/domain"
	"poolroute_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Enqueuer queues per-tenant scheduling runs.
type Enqueuer interface {
	EnqueueGenerate(ctx context.Context, tenantID uuid.UUID, period domain.DateRange) error
	EnqueueReconcile(ctx context.Context, tenantID uuid.UUID, period domain.DateRange) error
	// EnqueueFreshReconcile never merges with an existing task, so a run
	// already in flight cannot swallow it.
	EnqueueFreshReconcile(ctx context.Context, tenantID uuid.UUID, period domain.DateRange) error
}

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueGenerate(ctx context.Context, tenantID uuid.UUID, period domain.DateRange) error {
	payload := NewPeriodPayload(tenantID, period)
	task, err := NewGenerateVisitsTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, payload.taskID(TaskGenerateVisits))
}

func (c *Client) EnqueueReconcile(ctx context.Context, tenantID uuid.UUID, period domain.DateRange) error {
	payload := NewPeriodPayload(tenantID, period)
	task, err := NewReconcileVisitsTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, payload.taskID(TaskReconcileVisits))
}

func (c *Client) EnqueueFreshReconcile(ctx context.Context, tenantID uuid.UUID, period domain.DateRange) error {
	task, err := NewReconcileVisitsTask(NewPeriodPayload(tenantID, period))
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, "")
}

// enqueue treats an identical task still in the queue as success. An empty
// id disables deduplication.
func (c *Client) enqueue(ctx context.Context, task *asynq.Task, id string) error {
	if c == nil || c.client == nil {
		return nil
	}
	opts := []asynq.Option{asynq.Queue(c.queue), asynq.MaxRetry(3)}
	if id != "" {
		opts = append(opts, asynq.TaskID(id))
	}
	_, err := c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redisOptions(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

func redisOptions(redisURL string, tlsInsecure bool) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		opt.TLSConfig = clone
	} else if tlsInsecure {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return opt, nil
}
