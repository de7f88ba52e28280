package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the service. Values are loaded from
// environment variables, with an optional .env file for local development.
type Config struct {
	ServerPort         string `mapstructure:"SERVER_PORT"`
	Env                string `mapstructure:"ENVIRONMENT"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
	WorkerCount        int    `mapstructure:"WORKER_COUNT"`
	SyncWaitTimeoutMS  int    `mapstructure:"SYNC_WAIT_TIMEOUT_MS"`
	QueueIdleBackoffMS int    `mapstructure:"QUEUE_IDLE_BACKOFF_MS"`
}

// SyncWaitTimeout is how long a synchronous submission blocks for its result.
func (c Config) SyncWaitTimeout() time.Duration {
	return time.Duration(c.SyncWaitTimeoutMS) * time.Millisecond
}

// QueueIdleBackoff is the dispatcher's fallback wake interval on an empty queue.
func (c Config) QueueIdleBackoff() time.Duration {
	return time.Duration(c.QueueIdleBackoffMS) * time.Millisecond
}

// Load reads configuration from the environment, looking in path for an
// optional .env file.
func Load(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("WORKER_COUNT", 5)
	viper.SetDefault("SYNC_WAIT_TIMEOUT_MS", 20000)
	viper.SetDefault("QUEUE_IDLE_BACKOFF_MS", 10)

	if err := viper.ReadInConfig(); err != nil {
		// A missing .env file is fine; the environment is authoritative.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.WorkerCount <= 0 {
		return Config{}, errors.New("WORKER_COUNT must be positive")
	}
	if cfg.SyncWaitTimeoutMS <= 0 {
		return Config{}, errors.New("SYNC_WAIT_TIMEOUT_MS must be positive")
	}

	return cfg, nil
}
