package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// CollectorConfig configures the development collector.
type CollectorConfig struct {
	Server      ServerConfig   `yaml:"server"`
	ProjectKeys []string       `yaml:"project_keys"`
	Kafka       CollectorKafka `yaml:"kafka"`
	Storage     StorageConfig  `yaml:"storage"`
	Log         LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	HTTPPort    int   `yaml:"http_port"`
	MaxBodySize int64 `yaml:"max_body_size"`
}

// CollectorKafka enables tailing the topic the kafka transport writes to.
type CollectorKafka struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

// DefaultCollector listens on the port the tracker's default endpoint uses.
func DefaultCollector() CollectorConfig {
	return CollectorConfig{
		Server: ServerConfig{HTTPPort: 8080, MaxBodySize: 1 << 20},
		Kafka: CollectorKafka{
			Topic:         "gosight.events.raw",
			ConsumerGroup: "gosight-devcollector",
		},
		Storage: StorageConfig{Driver: "memory", Redis: RedisConfig{Prefix: "gosight:collector:"}},
		Log:     LogConfig{Enabled: true, Level: "info"},
	}
}

// LoadCollector reads a collector YAML file over DefaultCollector.
func LoadCollector(path string) (*CollectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := DefaultCollector()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
