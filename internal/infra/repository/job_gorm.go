package repository

import (
	"context"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobGormRepository struct {
	db *gorm.DB
}

var _ repo.JobRepository = (*JobGormRepository)(nil)

func NewJobGormRepository(db *gorm.DB) *JobGormRepository {
	return &JobGormRepository{db: db}
}

func (r *JobGormRepository) Enqueue(ctx context.Context, job model.Job) (model.Job, error) {
	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return model.Job{}, err
	}
	return job, nil
}

// 実行可能なジョブを取り出してreserved_atを入れる。
// PostgresではFOR UPDATE SKIP LOCKEDで複数ワーカーの取り合いを避ける。
func (r *JobGormRepository) Reserve(ctx context.Context, queue string, now time.Time, limit int) ([]model.Job, error) {
	var jobs []model.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("queue = ? AND reserved_at IS NULL AND available_at <= ?", queue, now).
			Order("id asc").
			Limit(limit)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&jobs).Error; err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(jobs))
		for i := range jobs {
			ids = append(ids, jobs[i].ID)
			jobs[i].ReservedAt = &now
		}
		return tx.Model(&model.Job{}).
			Where("id IN ? AND reserved_at IS NULL", ids).
			Update("reserved_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobGormRepository) Delete(ctx context.Context, jobID int64) error {
	return r.db.WithContext(ctx).Delete(&model.Job{}, jobID).Error
}

func (r *JobGormRepository) Release(ctx context.Context, jobID int64, attempts int, availableAt time.Time, lastErr string) error {
	res := r.db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"attempts":     attempts,
			"available_at": availableAt,
			"reserved_at":  nil,
			"last_error":   lastErr,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// failed_jobsへの記録とjobsからの削除を1つのTxで行う
func (r *JobGormRepository) Fail(ctx context.Context, job model.Job, errMsg string, failedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		failed := model.FailedJob{
			JobID:    job.ID,
			Queue:    job.Queue,
			Type:     job.Type,
			Payload:  job.Payload,
			Error:    errMsg,
			FailedAt: failedAt,
		}
		if err := tx.Create(&failed).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Job{}, job.ID).Error
	})
}

func (r *JobGormRepository) ReleaseStale(ctx context.Context, queue string, reservedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Job{}).
		Where("queue = ? AND reserved_at IS NOT NULL AND reserved_at < ?", queue, reservedBefore).
		Update("reserved_at", nil)
	return res.RowsAffected, res.Error
}

func (r *JobGormRepository) Pending(ctx context.Context, queue string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Job{}).
		Where("queue = ? AND reserved_at IS NULL", queue).
		Count(&n).Error
	return n, err
}
