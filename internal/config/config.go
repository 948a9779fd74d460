// Package config provides configuration structures and validation for the billing services.
// Both binaries share one Config; each section maps to a subsystem (HTTP server, Postgres,
// Kafka, MongoDB, object storage, rent accrual) and is validated during startup.
//
// Every leaf field carries the environment key it is read from in its `env` tag and its
// constraints in a `validate` tag.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Config holds the complete application configuration with settings for all components.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Storage     StorageConfig
	Rent        RentConfig
	Uploads     UploadsConfig

	// Source is the config file that was read, empty when only env and defaults applied.
	Source string
}

type ApplicationConfig struct {
	Env  string `env:"APP_ENV"`
	Name string `env:"APP_NAME"`
}

type LoggingConfig struct {
	Level string `env:"LOG_LEVEL"`
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int           `env:"SERVER_PORT" validate:"gt=0"`
	ShutdownTimeout    time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" validate:"gt=0"`
	ReadTimeout        time.Duration `env:"SERVER_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout       time.Duration `env:"SERVER_WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout        time.Duration `env:"SERVER_IDLE_TIMEOUT" validate:"gt=0"`
	CORSAllowedOrigins []string      `env:"SERVER_CORS_ALLOWED_ORIGINS"`
}

// KafkaConfig covers the ledger topic, its DLQ and the activity consumer.
type KafkaConfig struct {
	Brokers           string        `env:"KAFKA_BROKERS" validate:"required"`
	LedgerTopic       string        `env:"KAFKA_LEDGER_TOPIC" validate:"required"`
	NumPartitions     int           `env:"KAFKA_NUM_PARTITIONS"`
	ReplicationFactor int           `env:"KAFKA_REPLICATION_FACTOR"`
	ConsumerGroup     string        `env:"KAFKA_CONSUMER_GROUP" validate:"required"`
	MinBytes          int           `env:"KAFKA_CONSUMER_MIN_BYTES" validate:"gt=0"`
	MaxBytes          int           `env:"KAFKA_CONSUMER_MAX_BYTES" validate:"gt=0"`
	MaxWait           time.Duration `env:"KAFKA_CONSUMER_MAX_WAIT" validate:"gt=0"`
	StartOffset       int64         `env:"KAFKA_CONSUMER_START_OFFSET"`
	DLQTopic          string        `env:"KAFKA_DLQ_TOPIC"` // empty disables dead-lettering
}

type PostgresConfig struct {
	URL             string        `env:"POSTGRES_URL" validate:"required"`
	MaxConns        int32         `env:"POSTGRES_MAX_CONNS" validate:"gt=0"`
	MinConns        int32         `env:"POSTGRES_MIN_CONNS" validate:"gt=0"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" validate:"gt=0"`
	ConnMaxIdleTime time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" validate:"gt=0"`
	MigrationsPath  string        `env:"POSTGRES_MIGRATIONS_PATH"`
}

type MongoDBConfig struct {
	URI             string        `env:"MONGO_URI" validate:"required"`
	Database        string        `env:"MONGO_DATABASE" validate:"required"`
	Timeout         time.Duration `env:"MONGO_TIMEOUT" validate:"gt=0"`
	MaxPoolSize     uint64        `env:"MONGO_MAX_POOL_SIZE" validate:"gt=0"`
	MinPoolSize     uint64        `env:"MONGO_MIN_POOL_SIZE" validate:"gt=0"`
	MaxConnIdleTime time.Duration `env:"MONGO_MAX_CONN_IDLE_TIME" validate:"gt=0"`
}

// OutboxConfig drives the ledger outbox poller.
type OutboxConfig struct {
	PollingInterval  time.Duration `env:"OUTBOX_POLLING_INTERVAL" validate:"gt=0"`
	BatchSize        int           `env:"OUTBOX_BATCH_SIZE" validate:"gt=0"`
	MaxRetryAttempts int           `env:"OUTBOX_MAX_RETRY_ATTEMPTS" validate:"gt=0"`
}

// WorkerPoolConfig bounds the rent accrual fan-out.
type WorkerPoolConfig struct {
	Size int `env:"WORKER_POOL_SIZE" validate:"gt=0"`
}

// StorageConfig points at the Supabase Storage REST API holding receipts and expense files.
type StorageConfig struct {
	URL            string        `env:"STORAGE_URL"`
	ServiceKey     string        `env:"STORAGE_SERVICE_KEY"`
	ReceiptsBucket string        `env:"STORAGE_RECEIPTS_BUCKET" validate:"required"`
	ExpensesBucket string        `env:"STORAGE_EXPENSES_BUCKET" validate:"required"`
	SignedURLTTL   time.Duration `env:"STORAGE_SIGNED_URL_TTL" validate:"gt=0"`
	RequestTimeout time.Duration `env:"STORAGE_REQUEST_TIMEOUT" validate:"gt=0"`
}

// RentConfig controls the automatic rent accrual job.
type RentConfig struct {
	AccrualCron    string        `env:"RENT_ACCRUAL_CRON" validate:"cron"`
	AccrualTimeout time.Duration `env:"RENT_ACCRUAL_TIMEOUT" validate:"gt=0"`
	RunOnStartup   bool          `env:"RENT_ACCRUAL_RUN_ON_STARTUP"`
}

// UploadsConfig limits expense attachments.
type UploadsConfig struct {
	MaxRequestBytes   int64    `env:"UPLOADS_MAX_REQUEST_BYTES" validate:"gt=0"`
	AllowedExtensions []string `env:"UPLOADS_ALLOWED_EXTENSIONS" validate:"min=1"`
}

func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
	return v
}

// validate reports every invalid setting at once, named by its environment key.
func (c *Config) validate() error {
	err := newConfigValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return errors.New(strings.Join(problems, ", "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return fe.Field() + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "cron":
		return fe.Field() + " must be a valid cron spec"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
