// Package config holds the process configuration of the kplan CLI, read from
// environment variables.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	klog "github.com/birdayz/kplan/pkg/log"
	"github.com/caarlos0/env/v10"
)

type Config struct {
	LogLevel string `env:"KPLAN_LOG_LEVEL" envDefault:"info"`
	// OperatorCodec persists operator instances: json or msgpack.
	OperatorCodec string `env:"KPLAN_OPERATOR_CODEC" envDefault:"msgpack"`

	Store StoreConfig
	Kafka KafkaConfig
}

// StoreConfig selects and configures the plan catalog backend.
type StoreConfig struct {
	// Backend is one of memory, file, pebble, s3 or redis.
	Backend string `env:"KPLAN_STORE" envDefault:"file"`
	Dir     string `env:"KPLAN_STORE_DIR" envDefault:".kplan"`

	S3Endpoint  string `env:"KPLAN_S3_ENDPOINT" envDefault:"localhost:9000"`
	S3AccessKey string `env:"KPLAN_S3_ACCESS_KEY"`
	S3SecretKey string `env:"KPLAN_S3_SECRET_KEY"`
	S3Bucket    string `env:"KPLAN_S3_BUCKET" envDefault:"kplan"`
	S3Prefix    string `env:"KPLAN_S3_PREFIX"`
	S3Secure    bool   `env:"KPLAN_S3_SECURE" envDefault:"false"`

	RedisAddr      string `env:"KPLAN_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"KPLAN_REDIS_PASSWORD"`
	RedisDB        int    `env:"KPLAN_REDIS_DB" envDefault:"0"`
	RedisNamespace string `env:"KPLAN_REDIS_NAMESPACE" envDefault:"kplan"`
}

type KafkaConfig struct {
	Brokers           []string `env:"KPLAN_KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	Topic             string   `env:"KPLAN_KAFKA_TOPIC" envDefault:"kplan-plans"`
	Partitions        int32    `env:"KPLAN_KAFKA_PARTITIONS" envDefault:"1"`
	ReplicationFactor int16    `env:"KPLAN_KAFKA_REPLICATION_FACTOR" envDefault:"1"`
}

var backends = []string{"memory", "file", "pebble", "s3", "redis"}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := klog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	switch c.OperatorCodec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("unsupported operator codec: %s", c.OperatorCodec)
	}

	if !slices.Contains(backends, c.Store.Backend) {
		return fmt.Errorf("unsupported store backend: %s (one of %s)", c.Store.Backend, strings.Join(backends, ", "))
	}
	if (c.Store.Backend == "file" || c.Store.Backend == "pebble") && c.Store.Dir == "" {
		return fmt.Errorf("store directory is required for the %s backend", c.Store.Backend)
	}
	if c.Store.Backend == "s3" && c.Store.S3Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}

	if c.Kafka.Partitions < 1 {
		return fmt.Errorf("kafka partitions must be at least 1")
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() slog.Level {
	level, _ := klog.ParseLevel(c.LogLevel)
	return level
}
