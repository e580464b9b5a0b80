package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	DBDriver    string
	DBDSN       string
	ResetDB     bool
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	BcryptCost  int
	SwaggerHost string

	DefaultPageSize int
	MaxPageSize     int

	// AllowConfirmedEdits lets finance staff change amount, type or date of
	// records that are already confirmed.
	AllowConfirmedEdits bool

	Log       LogConfig
	RateLimit RateLimitConfig
	Notify    NotifyConfig
	Archive   ArchiveConfig
}

// LogConfig controls the logrus output.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// RateLimitConfig configures the Redis token bucket used on the auth endpoints.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// NotifyConfig points the domain event publisher at a RabbitMQ broker.
// An empty URL disables publishing.
type NotifyConfig struct {
	URL        string
	Queue      string
	BufferSize int
}

// ArchiveConfig names the S3 location financial reports are archived to.
// An empty bucket disables archiving.
type ArchiveConfig struct {
	Bucket string
	Prefix string
	Region string
}

// Load builds Config from environment with sensible defaults. A .env file in the
// working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		DBDriver:            strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:               getEnv("DB_DSN", getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/church?charset=utf8mb4&parseTime=True&loc=Local")),
		ResetDB:             getEnvBool("RESET_DB", false),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RedisPass:           os.Getenv("REDIS_PASSWORD"),
		JWTSecret:           getEnv("JWT_SECRET", "change-me"),
		AccessTTL:           getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:          getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:          getEnvInt("BCRYPT_COST", 10),
		SwaggerHost:         os.Getenv("SWAGGER_HOST"),
		DefaultPageSize:     getEnvInt("DEFAULT_PAGE_SIZE", 15),
		MaxPageSize:         getEnvInt("MAX_PAGE_SIZE", 100),
		AllowConfirmedEdits: getEnvBool("FINANCE_ALLOW_CONFIRMED_EDITS", false),
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "text"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 7),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
			Capacity:       getEnvInt("RATE_LIMIT_CAPACITY", 20),
			RefillTokens:   getEnvInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: getEnvDuration("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
			TTL:            getEnvDuration("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl"),
		},
		Notify: NotifyConfig{
			URL:        getEnv("AMQP_URL", os.Getenv("RABBITMQ_URL")),
			Queue:      getEnv("NOTIFY_QUEUE", "church.notifications"),
			BufferSize: getEnvInt("NOTIFY_BUFFER", 100),
		},
		Archive: ArchiveConfig{
			Bucket: os.Getenv("REPORTS_S3_BUCKET"),
			Prefix: getEnv("REPORTS_S3_PREFIX", "reports/"),
			Region: getEnv("AWS_REGION", "us-east-1"),
		},
	}

	if cfg.DefaultPageSize < 1 {
		cfg.DefaultPageSize = 15
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	if cfg.RateLimit.Capacity < 1 {
		cfg.RateLimit.Capacity = 1
	}
	if cfg.RateLimit.RefillTokens < 1 {
		cfg.RateLimit.RefillTokens = 1
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if parsed, err := strconv.ParseBool(v); err == nil {
		return parsed
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
