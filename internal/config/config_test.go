package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadKeepsDefaultsForUnsetFields(t *testing.T) {
	t.Setenv("GOSIGHT_KEY", "pk_live_123456789")
	path := writeConfig(t, `
api_key: ${GOSIGHT_KEY}
endpoint: https://collect.example/v1/events
track_keystrokes: true
track_rage_clicks: false
debounce_ms: 250
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pk_live_123456789", cfg.APIKey)
	assert.Equal(t, "https://collect.example/v1/events", cfg.Endpoint)
	assert.True(t, cfg.TrackKeystrokes)
	assert.False(t, cfg.TrackRageClicks)
	assert.True(t, cfg.TrackClicks, "unset toggles keep their default")
	assert.False(t, cfg.TrackMouseMovements)
	assert.EqualValues(t, 250, cfg.DebounceMs)
	assert.EqualValues(t, 30000, cfg.IdleTimeoutMs)
	assert.Equal(t, []int{25, 50, 75, 100}, cfg.ScrollDepthThresholds)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Config) { c.APIKey = "k" }},
		{name: "missing key", mutate: func(c *Config) {}, wantErr: ErrMissingAPIKey},
		{
			name:    "relative endpoint",
			mutate:  func(c *Config) { c.APIKey = "k"; c.Endpoint = "/v1/events" },
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "kafka without brokers",
			mutate:  func(c *Config) { c.APIKey = "k"; c.Transport = TransportKafka },
			wantErr: ErrInvalidKafka,
		},
		{
			name: "kafka",
			mutate: func(c *Config) {
				c.APIKey = "k"
				c.Transport = TransportKafka
				c.Kafka = KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "gosight.events.raw"}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.ScrollDepthThresholds[0] = 10
	assert.Equal(t, 25, cfg.ScrollDepthThresholds[0])
}

func TestWithDefaultsFillsZeroTunables(t *testing.T) {
	cfg := Config{APIKey: "k"}.WithDefaults()
	assert.Equal(t, 50, cfg.BatchSize)
	assert.EqualValues(t, 5000, cfg.BatchFlushIntervalMs)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.False(t, cfg.TrackClicks, "toggles are not defaulted on a zero config")
}

func TestLoadCollector(t *testing.T) {
	t.Setenv("KAFKA_BROKER", "kafka:9092")
	path := writeConfig(t, `
server:
  http_port: 9090
project_keys: [pk_a, pk_b]
kafka:
  enabled: true
  brokers: [${KAFKA_BROKER}]
`)

	cfg, err := LoadCollector(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.EqualValues(t, 1<<20, cfg.Server.MaxBodySize)
	assert.Equal(t, []string{"pk_a", "pk_b"}, cfg.ProjectKeys)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "gosight.events.raw", cfg.Kafka.Topic)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}
