package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	AppName string
	Port    string // サーバーポート（8080）
	GoEnv   string // dev/prod/test

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel  string
	LogFormat string // text/json

	CacheDriver      string // memory/database
	CacheSize        int
	ProductListTTL   time.Duration
	ProductDetailTTL time.Duration
	OrderTTL         time.Duration
	OrderStatsTTL    time.Duration

	QueuePollInterval time.Duration
	QueueBatchSize    int
	QueueMaxAttempts  int
	QueueBackoff      time.Duration

	MailDriver   string // log/smtp
	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
	MailFrom     string
}

// .envがあれば読み込む（無くてもエラーにしない）
func LoadDotenv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Loadは環境変数から設定を作る
func Load() (Config, error) {
	var err error
	cfg := Config{
		AppName: getenv("APP_NAME", "EC Backoffice"),
		Port:    getenv("PORT", "8080"),
		GoEnv:   getenv("GO_ENV", "dev"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "app"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),

		CacheDriver: getenv("CACHE_DRIVER", "memory"),

		MailDriver:   getenv("MAIL_DRIVER", "log"),
		MailHost:     os.Getenv("MAIL_HOST"),
		MailUsername: os.Getenv("MAIL_USERNAME"),
		MailPassword: os.Getenv("MAIL_PASSWORD"),
		MailFrom:     getenv("MAIL_FROM", "no-reply@example.com"),
	}

	if cfg.PostgresPort, err = intEnv("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.CacheSize, err = intEnv("CACHE_SIZE", 4096); err != nil {
		return Config{}, err
	}
	if cfg.QueueBatchSize, err = intEnv("QUEUE_BATCH_SIZE", 50); err != nil {
		return Config{}, err
	}
	if cfg.QueueMaxAttempts, err = intEnv("QUEUE_MAX_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.MailPort, err = intEnv("MAIL_PORT", 587); err != nil {
		return Config{}, err
	}

	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ProductListTTL, err = durationEnv("PRODUCT_LIST_TTL", 300*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ProductDetailTTL, err = durationEnv("PRODUCT_DETAIL_TTL", 600*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.OrderTTL, err = durationEnv("ORDER_TTL", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.OrderStatsTTL, err = durationEnv("ORDER_STATS_TTL", 300*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.QueuePollInterval, err = durationEnv("QUEUE_POLL_INTERVAL", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.QueueBackoff, err = durationEnv("QUEUE_BACKOFF", 2*time.Second); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.CacheDriver {
	case "memory", "database":
	default:
		return Config{}, fmt.Errorf("CACHE_DRIVER must be memory or database")
	}
	switch cfg.MailDriver {
	case "log":
	case "smtp":
		if cfg.MailHost == "" {
			return Config{}, fmt.Errorf("MAIL_HOST is required when MAIL_DRIVER=smtp")
		}
	default:
		return Config{}, fmt.Errorf("MAIL_DRIVER must be log or smtp")
	}
	if cfg.QueueMaxAttempts < 1 {
		return Config{}, fmt.Errorf("QUEUE_MAX_ATTEMPTS must be >= 1")
	}

	return cfg, nil
}

// PostgresのDSN
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
