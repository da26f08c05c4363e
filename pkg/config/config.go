package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"ratelimit"`
	Prediction struct {
		Timezone      string  `yaml:"timezone"`
		Benchmark     string  `yaml:"benchmark"`
		HistoryStart  string  `yaml:"history_start"`
		BlackoutDays  int     `yaml:"blackout_days"`
		Threshold     float64 `yaml:"threshold"`
		EarningsLimit int     `yaml:"earnings_limit"`
		DefaultTicker string  `yaml:"default_ticker"`
	} `yaml:"prediction"`
	Model struct {
		Backend      string        `yaml:"backend"` // ensemble | http
		ArtifactPath string        `yaml:"artifact_path"`
		ServiceURL   string        `yaml:"service_url"`
		Timeout      time.Duration `yaml:"timeout"`
		Attempts     int           `yaml:"attempts"`
	} `yaml:"model"`
	Yahoo struct {
		ChartURL   string        `yaml:"chart_url"`
		SummaryURL string        `yaml:"summary_url"`
		UserAgent  string        `yaml:"user_agent"`
		Timeout    time.Duration `yaml:"timeout"`
		RPS        float64       `yaml:"rps"`
		Burst      int           `yaml:"burst"`
	} `yaml:"yahoo"`
	Finnhub struct {
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		Timeout      time.Duration `yaml:"timeout"`
		LookbackDays int           `yaml:"lookback_days"`
	} `yaml:"finnhub"`
	Cache struct {
		Enabled    bool          `yaml:"enabled"`
		ProfileTTL time.Duration `yaml:"profile_ttl"`
		MemorySize int           `yaml:"memory_size"`
		Redis      struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Recorder struct {
		Backend    string `yaml:"backend"` // none | kafka | clickhouse
		BufferSize int    `yaml:"buffer_size"`
	} `yaml:"recorder"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration usable without a file.
func Default() *Config {
	c := &Config{Environment: "development"}
	c.Server.Port = 5000
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.SlowThreshold = 5 * time.Second
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Log.Output = "stdout"
	c.RateLimit.RPS = 2
	c.RateLimit.Burst = 10
	c.Prediction.Timezone = "America/New_York"
	c.Prediction.Benchmark = "SPY"
	c.Prediction.HistoryStart = "2013-01-01"
	c.Prediction.BlackoutDays = 7
	c.Prediction.Threshold = 0.57
	c.Prediction.EarningsLimit = 40
	c.Prediction.DefaultTicker = "NKE"
	c.Model.Backend = "ensemble"
	c.Model.ArtifactPath = "models/earnings_beat.json"
	c.Model.Timeout = 5 * time.Second
	c.Model.Attempts = 2
	c.Yahoo.ChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	c.Yahoo.SummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	c.Yahoo.UserAgent = "Mozilla/5.0 (compatible; EarnPulse/1.0)"
	c.Yahoo.Timeout = 15 * time.Second
	c.Yahoo.RPS = 4
	c.Yahoo.Burst = 4
	c.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	c.Finnhub.Timeout = 10 * time.Second
	c.Finnhub.LookbackDays = 3650
	c.Cache.ProfileTTL = 6 * time.Hour
	c.Cache.MemorySize = 1000
	c.Cache.Redis.Host = "localhost"
	c.Cache.Redis.Port = 6379
	c.Cache.Redis.Prefix = "earnpulse"
	c.Recorder.Backend = "none"
	c.Recorder.BufferSize = 1000
	c.Kafka.Topic = "earnpulse.predictions"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "snappy"
	c.Kafka.Producer.MaxAttempts = 3
	c.Kafka.Producer.Linger = 200 * time.Millisecond
	c.Kafka.Producer.BatchSize = 100
	c.Kafka.Producer.WriteTimeout = 10 * time.Second
	c.Kafka.Consumer.GroupID = "earnpulse-recorder"
	c.Kafka.Consumer.Workers = 2
	c.Kafka.Consumer.BufferSize = 100
	c.Kafka.Consumer.RetryMax = 3
	c.Kafka.Consumer.BackoffMin = 50 * time.Millisecond
	c.Kafka.Consumer.BackoffMax = 2 * time.Second
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "earnpulse"
	c.ClickHouse.Table = "prediction_events"
	c.ClickHouse.DialTimeout = 5 * time.Second
	c.ClickHouse.ReadTimeout = 10 * time.Second
	return c
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MODEL_BACKEND"); v != "" {
		c.Model.Backend = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.ArtifactPath = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Model.ServiceURL = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Host = host
		if p, err := strconv.Atoi(port); ok && err == nil {
			c.Cache.Redis.Port = p
		}
	}
	if v := os.Getenv("RECORDER_BACKEND"); v != "" {
		c.Recorder.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
}

// Location resolves the timezone used to decide "today".
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Prediction.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HistoryStart parses prediction.history_start.
func (c *Config) HistoryStart() time.Time {
	t, err := time.Parse("2006-01-02", c.Prediction.HistoryStart)
	if err != nil {
		return time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Prediction.Threshold <= 0 || c.Prediction.Threshold >= 1 {
		return fmt.Errorf("prediction.threshold must be in (0,1), got %v", c.Prediction.Threshold)
	}
	if c.Prediction.BlackoutDays < 0 {
		return fmt.Errorf("prediction.blackout_days cannot be negative")
	}
	if _, err := time.Parse("2006-01-02", c.Prediction.HistoryStart); err != nil {
		return fmt.Errorf("prediction.history_start: %w", err)
	}
	if _, err := time.LoadLocation(c.Prediction.Timezone); err != nil {
		return fmt.Errorf("prediction.timezone: %w", err)
	}
	switch c.Model.Backend {
	case "ensemble":
		if c.Model.ArtifactPath == "" {
			return fmt.Errorf("model.artifact_path is required for the ensemble backend")
		}
	case "http":
		if c.Model.ServiceURL == "" {
			return fmt.Errorf("model.service_url is required for the http backend")
		}
	default:
		return fmt.Errorf("model.backend must be 'ensemble' or 'http', got '%s'", c.Model.Backend)
	}
	switch c.Recorder.Backend {
	case "none", "":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when recorder.backend is kafka")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when recorder.backend is clickhouse")
		}
	default:
		return fmt.Errorf("recorder.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Recorder.Backend)
	}
	if c.Kafka.Consumer.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("kafka.consumer requires clickhouse.host")
	}
	return nil
}
