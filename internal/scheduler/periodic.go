package scheduler

import (
	"fmt"

	"poolroute_backend/platform/config"
	"poolroute_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the fan-out tasks on their cron specs.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Error("periodic task enqueue failed", "error", err)
				return
			}
			log.Info("periodic task enqueued", "task", info.Type, "task_id", info.ID)
		},
	})

	queue := asynq.Queue(queueName(cfg))
	entries := []struct {
		spec     string
		taskType string
	}{
		{cfg.GetGenerateCron(), TaskGenerateAll},
		{cfg.GetReconcileCron(), TaskReconcileAll},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		if _, err := s.Register(e.spec, asynq.NewTask(e.taskType, nil), queue); err != nil {
			return nil, fmt.Errorf("register %s (%s): %w", e.taskType, e.spec, err)
		}
	}

	return &Periodic{scheduler: s, log: log}, nil
}

// Start runs the cron loop in the background until Shutdown.
func (p *Periodic) Start() error {
	return p.scheduler.Start()
}

func (p *Periodic) Shutdown() {
	p.scheduler.Shutdown()
}
