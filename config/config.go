package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP       HTTP
		Log        Log
		PG         PG
		S3         S3
		Kafka      Kafka
		Frames     Frames
		Auth       Auth
		Processor  Processor
		Dispatcher Dispatcher
		Reconcile  Reconcile
		Metrics    Metrics
		Swagger    Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		BodyLimit      int    `env:"HTTP_BODY_LIMIT" envDefault:"33554432"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT"`
		Region         string        `env:"S3_REGION" envDefault:"auto"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		Bucket         string        `env:"S3_BUCKET,required"`
		UsePathStyle   bool          `env:"S3_USE_PATH_STYLE" envDefault:"true"`
		RetryAttempts  int           `env:"S3_RETRY_ATTEMPTS" envDefault:"3"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Kafka struct {
		Brokers         []string `env:"KAFKA_BROKERS,required"`
		GroupID         string   `env:"KAFKA_GROUP_ID,required"`
		Topic           string   `env:"KAFKA_TOPIC,required"`
		DeadLetterTopic string   `env:"KAFKA_DEAD_LETTER_TOPIC"` // <topic>.dlq when empty
	}

	Frames struct {
		Prefix   string `env:"FRAME_PREFIX" envDefault:"frames"`
		Timezone string `env:"FRAME_TIMEZONE" envDefault:"America/New_York"`
	}

	// Auth reads the shared secret from SecretFile when set, otherwise from
	// the environment variable named by SecretEnv.
	Auth struct {
		SecretEnv  string `env:"AUTH_SECRET_ENV" envDefault:"AUTH_SECRET"`
		SecretFile string `env:"AUTH_SECRET_FILE"`
	}

	Processor struct {
		Endpoint  string        `env:"PROCESSOR_ENDPOINT,required"`
		Timeout   time.Duration `env:"PROCESSOR_TIMEOUT" envDefault:"10s"`
		RateLimit float64       `env:"PROCESSOR_RATE_LIMIT" envDefault:"0"`
		Burst     int           `env:"PROCESSOR_BURST" envDefault:"1"`
	}

	Dispatcher struct {
		Enabled              bool          `env:"DISPATCHER_ENABLED" envDefault:"true"`
		BatchSize            int           `env:"DISPATCHER_BATCH_SIZE" envDefault:"10"`
		BatchLinger          time.Duration `env:"DISPATCHER_BATCH_LINGER" envDefault:"500ms"`
		ProcessTimeout       time.Duration `env:"DISPATCHER_PROCESS_TIMEOUT" envDefault:"15s"`
		CommitTimeout        time.Duration `env:"DISPATCHER_COMMIT_TIMEOUT" envDefault:"2s"`
		ShutdownTimeout      time.Duration `env:"DISPATCHER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		MaxAttempts          int           `env:"DISPATCHER_MAX_ATTEMPTS" envDefault:"5"`
		RetryInitialInterval time.Duration `env:"DISPATCHER_RETRY_INITIAL_INTERVAL" envDefault:"1s"`
		RetryMaxInterval     time.Duration `env:"DISPATCHER_RETRY_MAX_INTERVAL" envDefault:"5m"`
	}

	Reconcile struct {
		Enabled             bool          `env:"RECONCILE_ENABLED" envDefault:"true"`
		PollInterval        time.Duration `env:"RECONCILE_POLL_INTERVAL" envDefault:"5s"`
		MarkFailedInterval  time.Duration `env:"RECONCILE_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"RECONCILE_CLEANUP_INTERVAL" envDefault:"24h"`
		ProcessBatchTimeout time.Duration `env:"RECONCILE_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"RECONCILE_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"RECONCILE_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"RECONCILE_MAX_RETRIES" envDefault:"5"`
		Retention           time.Duration `env:"RECONCILE_RETENTION" envDefault:"168h"`
		StaleAfter          time.Duration `env:"RECONCILE_STALE_AFTER" envDefault:"5m"`
	}

	Metrics struct {
		Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
		Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
