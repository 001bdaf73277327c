package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/cache"
	"github.com/rs-labo46/ec-backoffice/internal/config"
	"github.com/rs-labo46/ec-backoffice/internal/handler"
	"github.com/rs-labo46/ec-backoffice/internal/infra/db"
	infraRepo "github.com/rs-labo46/ec-backoffice/internal/infra/repository"
	"github.com/rs-labo46/ec-backoffice/internal/logger"
	"github.com/rs-labo46/ec-backoffice/internal/notification"
	"github.com/rs-labo46/ec-backoffice/internal/server"
	"github.com/rs-labo46/ec-backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// コマンド共通の依存
type app struct {
	cfg     config.Config
	logger  *log.Logger
	db      *gorm.DB
	cache   *cache.Cache
	dbStore *cache.DBStore
}

func newApp() (*app, error) {
	config.LoadDotenv(envFile)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	l := logger.New(cfg)
	//パッケージのデフォルトロガー（log.WithField）にも同じ設定を使う
	log.SetLevel(l.GetLevel())
	log.SetFormatter(l.Formatter)

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	a := &app{cfg: cfg, logger: l, db: gormDB}

	//キャッシュのバックエンドはCACHE_DRIVERで選ぶ
	switch cfg.CacheDriver {
	case "database":
		a.dbStore = cache.NewDBStore(gormDB)
		a.cache = cache.New(a.dbStore, l.WithField("component", "cache"))
	default:
		a.cache = cache.New(cache.NewMemoryStore(cfg.CacheSize, maxTTL(cfg)), l.WithField("component", "cache"))
	}
	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) queue() *notification.Queue {
	return notification.NewQueue(infraRepo.NewJobGormRepository(a.db), a.cfg.QueueMaxAttempts)
}

func (a *app) httpServer() (*echo.Echo, error) {
	ttl := usecase.CacheTTLFromConfig(a.cfg)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(a.db)
	productRepo := infraRepo.NewProductGormRepository(a.db)
	orderRepo := infraRepo.NewOrderGormRepository(a.db)
	addressRepo := infraRepo.NewAddressGormRepository(a.db)
	txm := infraRepo.NewTxManagerGorm(a.db)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, a.cache, ttl)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, addressRepo, productUC, a.cache, a.queue(), ttl)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	authUC := usecase.NewAuthUsecase(a.cfg, userRepo)

	sqlDB, err := a.db.DB()
	if err != nil {
		return nil, err
	}

	//Handler生成
	return server.New(server.Handlers{
		Auth:     handler.NewAuthHandler(authUC),
		Products: handler.NewProductHandler(productUC),
		Orders:   handler.NewOrderHandler(orderUC),
		Address:  handler.NewAddressHandler(addressUC),
		System:   handler.NewSystemHandler(sqlDB),
	}, server.Options{
		JWTSecret: a.cfg.JWTSecret,
		Users:     userRepo,
		Logger:    a.logger.WithField("component", "http"),
	}), nil
}

func (a *app) worker() *notification.Worker {
	jobs := infraRepo.NewJobGormRepository(a.db)
	orders := infraRepo.NewOrderGormRepository(a.db)

	w := notification.NewWorker(jobs,
		notification.WithLogger(a.logger.WithField("component", "queue-worker")),
		notification.WithPollInterval(a.cfg.QueuePollInterval),
		notification.WithBatchSize(a.cfg.QueueBatchSize),
		notification.WithBackoff(a.cfg.QueueBackoff),
	)

	mailer := notification.NewMailer(a.cfg, a.logger.WithField("component", "mailer"))
	w.Register(notification.JobOrderConfirmation, notification.NewOrderConfirmationHandler(orders, mailer, a.cfg.AppName))
	return w
}

// DBキャッシュの期限切れ行を定期的に消す（memoryなら何もしない）
func (a *app) pruneCache(ctx context.Context) error {
	if a.dbStore == nil {
		return nil
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := a.dbStore.Prune(ctx)
			if err != nil {
				a.logger.WithError(err).Warn("cache prune failed")
				continue
			}
			if n > 0 {
				a.logger.WithField("count", n).Debug("pruned expired cache entries")
			}
		}
	}
}

func maxTTL(cfg config.Config) time.Duration {
	m := cfg.ProductListTTL
	for _, d := range []time.Duration{cfg.ProductDetailTTL, cfg.OrderTTL, cfg.OrderStatsTTL} {
		if d > m {
			m = d
		}
	}
	return m
}
