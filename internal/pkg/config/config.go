package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	CORS   CORSConfig
	Log    LogConfig
	Order  OrderConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string        `envconfig:"REDIS_PASSWORD" default:""`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	Timeout  time.Duration `envconfig:"REDIS_TIMEOUT" default:"2s"`
}

type KafkaConfig struct {
	Brokers   []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	MailTopic string   `envconfig:"KAFKA_MAIL_TOPIC" default:"order.mail"`
	MailGroup string   `envconfig:"KAFKA_MAIL_GROUP" default:"order-mailer"`
	// Buffered jobs waiting to be written; enqueue fails fast once full.
	MailBuffer int `envconfig:"KAFKA_MAIL_BUFFER" default:"1024"`
	Workers    int `envconfig:"KAFKA_MAIL_WORKERS" default:"4"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Idempotency-Key,X-Tenant-ID"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length,Idempotent-Replayed,Retry-After"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

// OrderConfig bounds the order pipeline. TxTimeout covers number assignment
// and the transaction together, so the lock must outlive it, and a processing
// idempotency record must outlive the lock.
type OrderConfig struct {
	LockTTL                  time.Duration `envconfig:"ORDER_LOCK_TTL" default:"30s"`
	IdempotencyProcessingTTL time.Duration `envconfig:"ORDER_IDEMPOTENCY_PROCESSING_TTL" default:"120s"`
	IdempotencyCompletedTTL  time.Duration `envconfig:"ORDER_IDEMPOTENCY_COMPLETED_TTL" default:"1h"`
	IdempotencyFailedTTL     time.Duration `envconfig:"ORDER_IDEMPOTENCY_FAILED_TTL" default:"10m"`
	TxTimeout                time.Duration `envconfig:"ORDER_TX_TIMEOUT" default:"20s"`
	CleanupTimeout           time.Duration `envconfig:"ORDER_CLEANUP_TIMEOUT" default:"3s"`
}

func (c OrderConfig) Validate() error {
	if c.TxTimeout <= 0 || c.LockTTL <= 0 {
		return fmt.Errorf("order timeouts must be positive (lock=%s, tx=%s)", c.LockTTL, c.TxTimeout)
	}
	if c.LockTTL <= c.TxTimeout {
		return fmt.Errorf("ORDER_LOCK_TTL (%s) must exceed ORDER_TX_TIMEOUT (%s)", c.LockTTL, c.TxTimeout)
	}
	if c.IdempotencyProcessingTTL <= c.LockTTL {
		return fmt.Errorf("ORDER_IDEMPOTENCY_PROCESSING_TTL (%s) must exceed ORDER_LOCK_TTL (%s)",
			c.IdempotencyProcessingTTL, c.LockTTL)
	}
	if c.IdempotencyCompletedTTL <= 0 || c.IdempotencyFailedTTL <= 0 {
		return fmt.Errorf("idempotency TTLs must be positive")
	}
	if c.CleanupTimeout <= 0 {
		return fmt.Errorf("ORDER_CLEANUP_TIMEOUT must be positive (got %s)", c.CleanupTimeout)
	}
	return nil
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	// .env is optional; real environments inject variables directly
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Order.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid order config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 20,
		},
		Redis: RedisConfig{
			Addr:    "localhost:16379",
			Timeout: 2 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    []string{"localhost:19092"},
			MailTopic:  "order.mail.test",
			MailGroup:  "order-mailer-test",
			MailBuffer: 16,
			Workers:    1,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		Order: OrderConfig{
			LockTTL:                  30 * time.Second,
			IdempotencyProcessingTTL: 120 * time.Second,
			IdempotencyCompletedTTL:  time.Hour,
			IdempotencyFailedTTL:     10 * time.Minute,
			TxTimeout:                20 * time.Second,
			CleanupTimeout:           3 * time.Second,
		},
	}
}
