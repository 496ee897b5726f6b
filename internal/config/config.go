package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	AWS        AWSConfig        `mapstructure:"aws"`
	Kinesis    KinesisConfig    `mapstructure:"kinesis"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion"`
	Producer   ProducerConfig   `mapstructure:"producer"`
	Consumer   ConsumerConfig   `mapstructure:"consumer"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type KinesisConfig struct {
	// Backend selects the stream transport: "kinesis" or "memory"
	// (in-process, for local development).
	Backend       string `mapstructure:"backend"`
	StreamName    string `mapstructure:"stream_name"`
	DLQStreamName string `mapstructure:"dlq_stream_name"`
	// MemoryShards sizes the in-process transport.
	MemoryShards int `mapstructure:"memory_shards"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type DatabaseConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	RunMigrations bool   `mapstructure:"run_migrations"`
}

type EncryptionConfig struct {
	Secret string `mapstructure:"secret"`
	Salt   string `mapstructure:"salt"`
	KeyID  string `mapstructure:"key_id"`
}

type IngestionConfig struct {
	QueueSize      int `mapstructure:"queue_size"`
	PublishWorkers int `mapstructure:"publish_workers"`
}

type ProducerConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
}

type ConsumerConfig struct {
	BatchLimit int           `mapstructure:"batch_limit"`
	IdleDelay  time.Duration `mapstructure:"idle_delay"`
	ErrorDelay time.Duration `mapstructure:"error_delay"`
}

type APIKey struct {
	Key        string   `mapstructure:"key"`
	Name       string   `mapstructure:"name"`
	ProviderID string   `mapstructure:"provider_id"`
	Scopes     []string `mapstructure:"scopes"`
}

type AuthConfig struct {
	Keys []APIKey `mapstructure:"keys"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("kinesis.backend", "kinesis")
	v.SetDefault("kinesis.stream_name", "healthcare-events")
	v.SetDefault("kinesis.dlq_stream_name", "healthcare-events-dlq")
	v.SetDefault("kinesis.memory_shards", 4)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "postgres://localhost:5432/healthcare_analytics?sslmode=disable")
	v.SetDefault("database.run_migrations", true)
	v.SetDefault("encryption.secret", "dev-secret-key-change-in-production")
	v.SetDefault("encryption.salt", "dev-salt-change-in-production")
	v.SetDefault("encryption.key_id", "alias/healthcare-analytics-key")
	v.SetDefault("ingestion.queue_size", 10000)
	v.SetDefault("ingestion.publish_workers", 4)
	v.SetDefault("producer.max_attempts", 3)
	v.SetDefault("producer.base_delay", "100ms")
	v.SetDefault("consumer.batch_limit", 100)
	v.SetDefault("consumer.idle_delay", "1s")
	v.SetDefault("consumer.error_delay", "5s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/healthcare-platform")
	}

	// Environment variables override
	v.SetEnvPrefix("HAP")
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
