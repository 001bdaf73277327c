package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cache_entriesテーブルを使うストア。タグには対応しない。
type DBStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*DBStore)(nil)

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

func (s *DBStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e model.CacheEntry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !s.now().Before(e.ExpiresAt) {
		//期限切れはここで消す
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (s *DBStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	e := model.CacheEntry{Key: key, Value: value, ExpiresAt: s.now().Add(ttl)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&e).Error
}

func (s *DBStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("cache_key IN ?", keys).Delete(&model.CacheEntry{}).Error
}

// 期限切れの行をまとめて消す
func (s *DBStore) Prune(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&model.CacheEntry{})
	return res.RowsAffected, res.Error
}
