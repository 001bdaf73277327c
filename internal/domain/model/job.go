package model

import "time"

// 非同期ジョブ（DBキュー）。ReservedAtが入っている間はワーカーが処理中。
type Job struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Queue       string     `gorm:"type:varchar(100);not null;index" json:"queue"`
	Type        string     `gorm:"type:varchar(100);not null" json:"type"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int        `gorm:"not null" json:"max_attempts"`
	AvailableAt time.Time  `gorm:"not null;index" json:"available_at"`
	ReservedAt  *time.Time `gorm:"index" json:"reserved_at"`
	LastError   string     `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

// リトライを使い切ったジョブの記録
type FailedJob struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID    int64     `gorm:"not null;index" json:"job_id"`
	Queue    string    `gorm:"type:varchar(100);not null" json:"queue"`
	Type     string    `gorm:"type:varchar(100);not null" json:"type"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text;not null" json:"error"`
	FailedAt time.Time `gorm:"not null;index" json:"failed_at"`
}
