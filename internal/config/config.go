package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Feed     FeedConfig     `yaml:"feed"`
	Sync     SyncConfig     `yaml:"sync"`
	Notify   NotifyConfig   `yaml:"notify"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type FeedConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// NotifyConfig selects the alert delivery channel. An empty AMQP URL
// means no native channel is configured and alerts fall back to the log.
type NotifyConfig struct {
	DedupWindow time.Duration `yaml:"dedup_window"`
	AMQP        AMQPConfig    `yaml:"amqp"`
}

type AMQPConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "newshelper.db"
	}
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "http://newshelper.g0v.tw/index/data"
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 30 * time.Second
	}
	if c.Feed.Retry.MaxAttempts == 0 {
		c.Feed.Retry.MaxAttempts = 3
	}
	if c.Feed.Retry.InitialBackoff == 0 {
		c.Feed.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Feed.Retry.MaxBackoff == 0 {
		c.Feed.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 15 * time.Minute
	}
	if c.Notify.DedupWindow == 0 {
		c.Notify.DedupWindow = 24 * time.Hour
	}
	if c.Notify.AMQP.Exchange == "" {
		c.Notify.AMQP.Exchange = "newshelper"
	}
	if c.Notify.AMQP.RoutingKey == "" {
		c.Notify.AMQP.RoutingKey = "alerts"
	}
	if c.Notify.AMQP.QueueName == "" {
		c.Notify.AMQP.QueueName = "newshelper_alerts"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8391"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
