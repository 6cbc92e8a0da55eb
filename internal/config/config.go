package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	GRPC    GRPCConfig
	Worker  WorkerConfig
	Remote  RemoteConfig
	DB      DatabaseConfig
	Logging LoggingConfig
	Paging  PagingConfig
	Alerts  AlertsConfig
	Kafka   KafkaConfig
}

type GRPCConfig struct {
	Port int
}

type ServerConfig struct {
	Host      string
	Port      int
	RateLimit float64 // requests per second, global
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

// RemoteConfig points at the QuakeScope backend.
type RemoteConfig struct {
	BaseURL      string
	Timeout      time.Duration
	PollEnabled  bool
	PollInterval time.Duration
	FetchLimit   int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level      string
	File       string // empty logs to stdout only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type PagingConfig struct {
	PageSize int
}

type AlertsConfig struct {
	MaxHistory int
}

// KafkaConfig enables the alert topic when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvInt("SERVER_PORT", 8080),
			RateLimit: getEnvFloat("RATE_LIMIT_RPS", 5),
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 100),
		},
		Remote: RemoteConfig{
			BaseURL:      getEnv("REMOTE_BASE_URL", "http://localhost:5000"),
			Timeout:      getEnvDuration("REMOTE_TIMEOUT", 15*time.Second),
			PollEnabled:  getEnvBool("REMOTE_POLL_ENABLED", true),
			PollInterval: getEnvDuration("REMOTE_POLL_INTERVAL", 5*time.Minute),
			FetchLimit:   getEnvInt("REMOTE_FETCH_LIMIT", 100),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/quakescope.db"),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
		Paging: PagingConfig{
			PageSize: getEnvInt("PAGE_SIZE", 20),
		},
		Alerts: AlertsConfig{
			MaxHistory: getEnvInt("ALERT_MAX_HISTORY", 100),
		},
		Kafka: KafkaConfig{
			Brokers: parseList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_ALERT_TOPIC", "quake-alerts"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive: %v", c.Server.RateLimit)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid remote base URL: %q", c.Remote.BaseURL)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote timeout must be positive")
	}
	if c.Remote.PollInterval < time.Minute {
		return fmt.Errorf("remote poll interval must be at least 1 minute")
	}
	if c.Remote.FetchLimit < 1 {
		return fmt.Errorf("remote fetch limit must be at least 1")
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Paging.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1")
	}
	if c.Alerts.MaxHistory < 1 {
		return fmt.Errorf("alert history size must be at least 1")
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_ALERT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
