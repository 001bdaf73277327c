package repository

import (
	"context"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
)

// DBキュー
type JobRepository interface {
	Enqueue(ctx context.Context, job model.Job) (model.Job, error)

	// 実行可能なジョブを予約して返す（予約済みは他のワーカーに渡さない）
	Reserve(ctx context.Context, queue string, now time.Time, limit int) ([]model.Job, error)

	// 成功したジョブを消す
	Delete(ctx context.Context, jobID int64) error

	// 予約を外してavailableAtに再投入
	Release(ctx context.Context, jobID int64, attempts int, availableAt time.Time, lastErr string) error

	// failed_jobsへ移す
	Fail(ctx context.Context, job model.Job, errMsg string, failedAt time.Time) error

	// 処理中のまま放置されたジョブを戻す（ワーカー停止時など）
	ReleaseStale(ctx context.Context, queue string, reservedBefore time.Time) (int64, error)

	Pending(ctx context.Context, queue string) (int64, error)
}
