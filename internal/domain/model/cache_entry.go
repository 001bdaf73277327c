package model

import "time"

// DBキャッシュ（タグ非対応ドライバ）の1エントリ
type CacheEntry struct {
	Key       string    `gorm:"column:cache_key;primaryKey;type:varchar(255)"`
	Value     []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
