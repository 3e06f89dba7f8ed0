package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"poolroute_backend/internal/visits/domain"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskGenerateVisits = "visits.generate"

const TaskReconcileVisits = "visits.reconcile"

// The *.all tasks fan out one tenant task per active tenant.
const (
	TaskGenerateAll  = "visits.generate.all"
	TaskReconcileAll = "visits.reconcile.all"
)

// PeriodPayload addresses one tenant and an inclusive date window.
type PeriodPayload struct {
	TenantID string `json:"tenantId"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// NewPeriodPayload formats the window as calendar dates.
func NewPeriodPayload(tenantID uuid.UUID, period domain.DateRange) PeriodPayload {
	return PeriodPayload{
		TenantID: tenantID.String(),
		From:     period.Start.Format(domain.DateLayout),
		To:       period.End.Format(domain.DateLayout),
	}
}

// Parse validates the payload fields.
func (p PeriodPayload) Parse() (uuid.UUID, time.Time, time.Time, error) {
	tenantID, err := uuid.Parse(p.TenantID)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, fmt.Errorf("tenant id: %w", err)
	}
	from, err := domain.ParseDate(p.From)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}
	to, err := domain.ParseDate(p.To)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}
	return tenantID, from, to, nil
}

// taskID dedupes identical pending tasks in the queue.
func (p PeriodPayload) taskID(taskType string) string {
	return fmt.Sprintf("%s:%s:%s:%s", taskType, p.TenantID, p.From, p.To)
}

func NewGenerateVisitsTask(payload PeriodPayload) (*asynq.Task, error) {
	return newPeriodTask(TaskGenerateVisits, payload)
}

func NewReconcileVisitsTask(payload PeriodPayload) (*asynq.Task, error) {
	return newPeriodTask(TaskReconcileVisits, payload)
}

func ParsePeriodPayload(task *asynq.Task) (PeriodPayload, error) {
	var payload PeriodPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PeriodPayload{}, err
	}
	return payload, nil
}

func newPeriodTask(taskType string, payload PeriodPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}
