package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingAPIKey   = errors.New("api key is required")
	ErrInvalidEndpoint = errors.New("endpoint must be an absolute http(s) URL")
	ErrInvalidKafka    = errors.New("kafka transport needs brokers and a topic")
)

const (
	DefaultEndpoint = "http://localhost:8080/v1/events"
	TransportHTTP   = "http"
	TransportKafka  = "kafka"
)

// Config is the tracker configuration: one capture toggle per event family
// plus tunables.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`

	TrackClicks          bool `yaml:"track_clicks"`
	TrackScrolls         bool `yaml:"track_scrolls"`
	TrackPageViews       bool `yaml:"track_page_views"`
	TrackFormSubmits     bool `yaml:"track_form_submits"`
	TrackInputChanges    bool `yaml:"track_input_changes"`
	TrackKeystrokes      bool `yaml:"track_keystrokes"`
	TrackMouseMovements  bool `yaml:"track_mouse_movements"`
	TrackResize          bool `yaml:"track_resize"`
	TrackVisibility      bool `yaml:"track_visibility"`
	TrackErrors          bool `yaml:"track_errors"`
	TrackSessions        bool `yaml:"track_sessions"`
	TrackRageClicks      bool `yaml:"track_rage_clicks"`
	TrackDeadClicks      bool `yaml:"track_dead_clicks"`
	TrackErrorClicks     bool `yaml:"track_error_clicks"`
	TrackSearch          bool `yaml:"track_search"`
	TrackShares          bool `yaml:"track_shares"`
	TrackOutboundLinks   bool `yaml:"track_outbound_links"`
	TrackDownloads       bool `yaml:"track_downloads"`
	TrackPrint           bool `yaml:"track_print"`
	TrackCopy            bool `yaml:"track_copy"`
	TrackScrollDepth     bool `yaml:"track_scroll_depth"`
	TrackIdle            bool `yaml:"track_idle"`
	TrackFormAbandonment bool `yaml:"track_form_abandonment"`
	TrackMedia           bool `yaml:"track_media"`

	DebounceMs              int64 `yaml:"debounce_ms"`
	IdleTimeoutMs           int64 `yaml:"idle_timeout_ms"`
	ScrollDepthThresholds   []int `yaml:"scroll_depth_thresholds"`
	MediaProgressThresholds []int `yaml:"media_progress_thresholds"`
	MouseMoveThrottleMs     int64 `yaml:"mouse_move_throttle_ms"`
	MaxTextLength           int   `yaml:"max_text_length"`

	BatchSize            int   `yaml:"batch_size"`
	BatchFlushIntervalMs int64 `yaml:"batch_flush_interval_ms"`
	AutoFlushIntervalMs  int64 `yaml:"auto_flush_interval_ms"`
	MaxBufferSize        int   `yaml:"max_buffer_size"`
	SendTimeoutMs        int64 `yaml:"send_timeout_ms"`

	Transport string        `yaml:"transport"`
	Kafka     KafkaConfig   `yaml:"kafka"`
	Storage   StorageConfig `yaml:"storage"`
	Log       LogConfig     `yaml:"log"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type StorageConfig struct {
	Driver string      `yaml:"driver"`
	Path   string      `yaml:"path"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type LogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// Default returns the low-noise, privacy-safe defaults. Keystrokes, mouse
// movement, input changes, resize and copy are off.
func Default() Config {
	return Config{
		Endpoint: DefaultEndpoint,

		TrackClicks:          true,
		TrackScrolls:         true,
		TrackPageViews:       true,
		TrackFormSubmits:     true,
		TrackVisibility:      true,
		TrackErrors:          true,
		TrackSessions:        true,
		TrackRageClicks:      true,
		TrackDeadClicks:      true,
		TrackErrorClicks:     true,
		TrackSearch:          true,
		TrackShares:          true,
		TrackOutboundLinks:   true,
		TrackDownloads:       true,
		TrackPrint:           true,
		TrackScrollDepth:     true,
		TrackIdle:            true,
		TrackFormAbandonment: true,
		TrackMedia:           true,

		DebounceMs:              100,
		IdleTimeoutMs:           30000,
		ScrollDepthThresholds:   []int{25, 50, 75, 100},
		MediaProgressThresholds: []int{25, 50, 75, 90},
		MouseMoveThrottleMs:     100,
		MaxTextLength:           100,

		BatchSize:            50,
		BatchFlushIntervalMs: 5000,
		AutoFlushIntervalMs:  10000,
		MaxBufferSize:        1000,
		SendTimeoutMs:        10000,

		Transport: TransportHTTP,
		Storage:   StorageConfig{Driver: "memory", Redis: RedisConfig{Prefix: "gosight:"}},
		Log:       LogConfig{Enabled: true, Level: "info"},
	}
}

// Load reads a YAML file over the defaults. Environment variables in the file
// are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	return &cfg, nil
}

// WithDefaults returns c with every zero tunable replaced by its default.
func (c Config) WithDefaults() Config {
	out := c.Clone()
	out.fillDefaults()
	return out
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.DebounceMs == 0 {
		c.DebounceMs = d.DebounceMs
	}
	if c.IdleTimeoutMs == 0 {
		c.IdleTimeoutMs = d.IdleTimeoutMs
	}
	if len(c.ScrollDepthThresholds) == 0 {
		c.ScrollDepthThresholds = d.ScrollDepthThresholds
	}
	if len(c.MediaProgressThresholds) == 0 {
		c.MediaProgressThresholds = d.MediaProgressThresholds
	}
	if c.MouseMoveThrottleMs == 0 {
		c.MouseMoveThrottleMs = d.MouseMoveThrottleMs
	}
	if c.MaxTextLength == 0 {
		c.MaxTextLength = d.MaxTextLength
	}
	if c.BatchSize == 0 {
		c.BatchSize = d.BatchSize
	}
	if c.BatchFlushIntervalMs == 0 {
		c.BatchFlushIntervalMs = d.BatchFlushIntervalMs
	}
	if c.AutoFlushIntervalMs == 0 {
		c.AutoFlushIntervalMs = d.AutoFlushIntervalMs
	}
	if c.MaxBufferSize == 0 {
		c.MaxBufferSize = d.MaxBufferSize
	}
	if c.SendTimeoutMs == 0 {
		c.SendTimeoutMs = d.SendTimeoutMs
	}
	if c.Transport == "" {
		c.Transport = d.Transport
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = d.Storage.Driver
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate reports configuration errors that make a tracker unusable.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	switch c.Transport {
	case TransportHTTP:
		u, err := url.Parse(c.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.Endpoint)
		}
	case TransportKafka:
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
			return ErrInvalidKafka
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	return nil
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.ScrollDepthThresholds = append([]int(nil), c.ScrollDepthThresholds...)
	out.MediaProgressThresholds = append([]int(nil), c.MediaProgressThresholds...)
	out.Kafka.Brokers = append([]string(nil), c.Kafka.Brokers...)
	return out
}

func (c Config) Debounce() time.Duration      { return ms(c.DebounceMs) }
func (c Config) IdleTimeout() time.Duration   { return ms(c.IdleTimeoutMs) }
func (c Config) MouseThrottle() time.Duration { return ms(c.MouseMoveThrottleMs) }
func (c Config) BatchFlushInterval() time.Duration {
	return ms(c.BatchFlushIntervalMs)
}
func (c Config) AutoFlushInterval() time.Duration { return ms(c.AutoFlushIntervalMs) }
func (c Config) SendTimeout() time.Duration       { return ms(c.SendTimeoutMs) }

func ms(v int64) time.Duration { return time.Duration(v) * time.Millisecond }
