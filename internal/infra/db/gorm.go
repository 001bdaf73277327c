package db

import (
	"github.com/rs-labo46/ec-backoffice/internal/config"
	"github.com/rs-labo46/ec-backoffice/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN()), Options(cfg))
}

// 一意制約などをgormのエラーに変換させる
func Options(cfg config.Config) *gorm.Config {
	level := logger.Warn
	if cfg.GoEnv == "dev" && cfg.LogLevel == "debug" {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}
}

// テーブル作成
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.All()...)
}
