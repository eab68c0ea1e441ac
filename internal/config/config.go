package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env                 string `mapstructure:"env"`
	Port                string `mapstructure:"port"`
	ShutdownTimeoutSecs int    `mapstructure:"shutdown_timeout_seconds"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type KafkaConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Brokers        []string `mapstructure:"brokers"`
	TopicEvents    string   `mapstructure:"topic_events"`
	GroupID        string   `mapstructure:"group_id"`
	DLQTopic       string   `mapstructure:"dlq_topic"`
	MaxRetries     int      `mapstructure:"max_retries"`
	RetryBackoffMs int      `mapstructure:"retry_backoff_ms"`
}

type SSEConfig struct {
	PingIntervalSeconds  int `mapstructure:"ping_interval_seconds"`
	SendBufferSize       int `mapstructure:"send_buffer_size"`
	WriteDeadlineSeconds int `mapstructure:"write_deadline_seconds"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	SSE     SSEConfig     `mapstructure:"sse"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived values
	ShutdownTimeout time.Duration
	PingInterval    time.Duration
	WriteDeadline   time.Duration
	RetryBackoff    time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.App.Port == "" {
		cfg.App.Port = "8085"
	}
	if cfg.App.ShutdownTimeoutSecs == 0 {
		cfg.App.ShutdownTimeoutSecs = 15
	}
	if cfg.SSE.PingIntervalSeconds == 0 {
		cfg.SSE.PingIntervalSeconds = 25
	}
	if cfg.SSE.SendBufferSize == 0 {
		cfg.SSE.SendBufferSize = 64
	}
	if cfg.SSE.WriteDeadlineSeconds == 0 {
		cfg.SSE.WriteDeadlineSeconds = 10
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 5
	}
	if cfg.Kafka.RetryBackoffMs == 0 {
		cfg.Kafka.RetryBackoffMs = 500
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "notify:global"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}

	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownTimeoutSecs) * time.Second
	cfg.PingInterval = time.Duration(cfg.SSE.PingIntervalSeconds) * time.Second
	cfg.WriteDeadline = time.Duration(cfg.SSE.WriteDeadlineSeconds) * time.Second
	cfg.RetryBackoff = time.Duration(cfg.Kafka.RetryBackoffMs) * time.Millisecond
	return &cfg, nil
}
