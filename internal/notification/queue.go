// Package notification sends order mails through the jobs table and its worker.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/metrics"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"
)

const (
	DefaultQueue = "notifications"

	//注文確認メール
	JobOrderConfirmation = "order.confirmation"

	defaultMaxAttempts = 3
)

// idだけ持つ。注文はハンドラ側で読み直す
type OrderConfirmationPayload struct {
	OrderID int64 `json:"order_id"`
}

type Queue struct {
	jobs        repo.JobRepository
	name        string
	maxAttempts int
	now         func() time.Time
}

func NewQueue(jobs repo.JobRepository, maxAttempts int) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Queue{
		jobs:        jobs,
		name:        DefaultQueue,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (q *Queue) Name() string {
	return q.name
}

// すぐ実行可能なジョブとして保存する
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload any) (model.Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		metrics.JobsEnqueued.WithLabelValues(jobType, "error").Inc()
		return model.Job{}, fmt.Errorf("marshal %s payload: %w", jobType, err)
	}

	job, err := q.jobs.Enqueue(ctx, model.Job{
		Queue:       q.name,
		Type:        jobType,
		Payload:     string(raw),
		MaxAttempts: q.maxAttempts,
		AvailableAt: q.now(),
	})
	if err != nil {
		metrics.JobsEnqueued.WithLabelValues(jobType, "error").Inc()
		return model.Job{}, fmt.Errorf("enqueue %s: %w", jobType, err)
	}

	metrics.JobsEnqueued.WithLabelValues(jobType, "ok").Inc()
	return job, nil
}

func (q *Queue) EnqueueOrderConfirmation(ctx context.Context, orderID int64) error {
	_, err := q.Enqueue(ctx, JobOrderConfirmation, OrderConfirmationPayload{OrderID: orderID})
	return err
}
