package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50051, cfg.GRPC.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Remote.PollInterval)
	assert.Equal(t, 20, cfg.Paging.PageSize)
	assert.Equal(t, 100, cfg.Alerts.MaxHistory)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REMOTE_BASE_URL", "https://quakes.example.com/")
	t.Setenv("REMOTE_POLL_INTERVAL", "2m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("LOG_FILE", "/tmp/quakescope.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://quakes.example.com/", cfg.Remote.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Remote.PollInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "/tmp/quakescope.log", cfg.Logging.File)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("REMOTE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Remote.Timeout)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"grpc port out of range", "GRPC_PORT", "0"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"poll interval too short", "REMOTE_POLL_INTERVAL", "30s"},
		{"relative base URL", "REMOTE_BASE_URL", "quakes.example.com"},
		{"zero page size", "PAGE_SIZE", "0"},
		{"zero history", "ALERT_MAX_HISTORY", "0"},
		{"negative rate limit", "RATE_LIMIT_RPS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
