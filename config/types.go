package config

import (
	"time"
)

// Config aggregates all service configuration blocks.
type Config struct {
	Server      ServerConfig     `json:"server"`
	Generation  GenerationConfig `json:"generation"`
	Scheduler   SchedulerConfig  `json:"scheduler"`
	State       StateConfig      `json:"state"`
	Sink        SinkConfig       `json:"sink"`
	Fetch       FetchConfig      `json:"fetch"`
	Retry       RetryConfig      `json:"retry"`
	DLQ         DLQConfig        `json:"dlq"`
	Logging     LoggingConfig    `json:"logging"`
	OTel        OTelConfig       `json:"otel"`
	Metrics     MetricsConfig    `json:"metrics"`
	SourcesFile string           `json:"sources_file" env:"SOURCES_FILE" default:"sources.yaml"`
}

type ServerConfig struct {
	Port            int           `json:"port" env:"SERVER_PORT" default:"9300"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"30s"`
}

type GenerationConfig struct {
	Enabled           bool          `json:"enabled" env:"GENERATION_ENABLED" default:"true"`
	Host              string        `json:"host" env:"GENERATION_HOST" default:"http://localhost:11434"`
	APIPath           string        `json:"api_path" env:"GENERATION_API_PATH" default:"/api/generate"`
	Model             string        `json:"model" env:"GENERATION_MODEL" default:"gemma3:4b"`
	Timeout           time.Duration `json:"timeout" env:"GENERATION_TIMEOUT" default:"120s"`
	MaxRetries        int           `json:"max_retries" env:"GENERATION_MAX_RETRIES" default:"2"`
	Temperature       float64       `json:"temperature" env:"GENERATION_TEMPERATURE" default:"0.4"`
	MaxTokens         int           `json:"max_tokens" env:"GENERATION_MAX_TOKENS" default:"1200"`
	RequestsPerSecond float64       `json:"requests_per_second" env:"GENERATION_REQUESTS_PER_SECOND" default:"0.5"`
	BreakerThreshold  int           `json:"breaker_threshold" env:"GENERATION_BREAKER_THRESHOLD" default:"5"`
	BreakerTimeout    time.Duration `json:"breaker_timeout" env:"GENERATION_BREAKER_TIMEOUT" default:"60s"`
	SocialEnabled     bool          `json:"social_enabled" env:"GENERATION_SOCIAL_ENABLED" default:"false"`
}

type SchedulerConfig struct {
	ItemDelay        time.Duration `json:"item_delay" env:"SCHEDULER_ITEM_DELAY" default:"2s"`
	BatchDelay       time.Duration `json:"batch_delay" env:"SCHEDULER_BATCH_DELAY" default:"10s"`
	SourceDelay      time.Duration `json:"source_delay" env:"SCHEDULER_SOURCE_DELAY" default:"30s"`
	BatchSize        int           `json:"batch_size" env:"SCHEDULER_BATCH_SIZE" default:"5"`
	Interval         time.Duration `json:"interval" env:"SCHEDULER_INTERVAL" default:"1h"`
	MinContentLength int           `json:"min_content_length" env:"SCHEDULER_MIN_CONTENT_LENGTH" default:"50"`
}

type StateConfig struct {
	Backend        string `json:"backend" env:"STATE_BACKEND" default:"file"`
	Dir            string `json:"dir" env:"STATE_DIR" default:"./state"`
	RedisURL       string `json:"redis_url" env:"STATE_REDIS_URL" default:"redis://localhost:6379/0"`
	RedisKeyPrefix string `json:"redis_key_prefix" env:"STATE_REDIS_KEY_PREFIX" default:"feed-enricher:state:"`
	SQLitePath     string `json:"sqlite_path" env:"STATE_SQLITE_PATH" default:"./state/state.db"`
}

type SinkConfig struct {
	Backend           string        `json:"backend" env:"SINK_BACKEND" default:"log"`
	DatabaseURL       string        `json:"database_url" env:"SINK_DATABASE_URL"`
	Table             string        `json:"table" env:"SINK_TABLE" default:"enriched_records"`
	APIURL            string        `json:"api_url" env:"SINK_API_URL"`
	APIToken          string        `json:"-" env:"SINK_API_TOKEN"`
	Timeout           time.Duration `json:"timeout" env:"SINK_TIMEOUT" default:"15s"`
	RequestsPerSecond float64       `json:"requests_per_second" env:"SINK_REQUESTS_PER_SECOND" default:"4"`
}

type FetchConfig struct {
	Timeout       time.Duration `json:"timeout" env:"FETCH_TIMEOUT" default:"30s"`
	UserAgent     string        `json:"user_agent" env:"FETCH_USER_AGENT" default:"Mozilla/5.0 (compatible; FeedEnricher/1.0)"`
	RespectRobots bool          `json:"respect_robots" env:"FETCH_RESPECT_ROBOTS" default:"true"`
	HostInterval  time.Duration `json:"host_interval" env:"FETCH_HOST_INTERVAL" default:"1s"`
	MaxBodyBytes  int64         `json:"max_body_bytes" env:"FETCH_MAX_BODY_BYTES" default:"5242880"`
}

type RetryConfig struct {
	BaseDelay     time.Duration `json:"base_delay" env:"RETRY_BASE_DELAY" default:"1s"`
	MaxDelay      time.Duration `json:"max_delay" env:"RETRY_MAX_DELAY" default:"30s"`
	BackoffFactor float64       `json:"backoff_factor" env:"RETRY_BACKOFF_FACTOR" default:"2.0"`
	JitterFactor  float64       `json:"jitter_factor" env:"RETRY_JITTER_FACTOR" default:"0.1"`
}

type DLQConfig struct {
	Enabled   bool          `json:"enabled" env:"DLQ_ENABLED" default:"true"`
	Dir       string        `json:"dir" env:"DLQ_DIR" default:"./dlq"`
	Retention time.Duration `json:"retention" env:"DLQ_RETENTION" default:"720h"`
}

type LoggingConfig struct {
	Level       string `json:"level" env:"LOG_LEVEL" default:"info"`
	ServiceName string `json:"service_name" env:"SERVICE_NAME" default:"feed-enricher"`
}

type OTelConfig struct {
	Enabled        bool   `json:"enabled" env:"OTEL_ENABLED" default:"false"`
	Endpoint       string `json:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"http://localhost:4318"`
	ServiceVersion string `json:"service_version" env:"SERVICE_VERSION" default:"dev"`
	Environment    string `json:"environment" env:"DEPLOYMENT_ENV" default:"development"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" env:"METRICS_ENABLED" default:"true"`
	Path    string `json:"path" env:"METRICS_PATH" default:"/metrics"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            9300,
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
		},
		Generation: GenerationConfig{
			Enabled:           true,
			Host:              "http://localhost:11434",
			APIPath:           "/api/generate",
			Model:             "gemma3:4b",
			Timeout:           120 * time.Second,
			MaxRetries:        2,
			Temperature:       0.4,
			MaxTokens:         1200,
			RequestsPerSecond: 0.5,
			BreakerThreshold:  5,
			BreakerTimeout:    60 * time.Second,
		},
		Scheduler: SchedulerConfig{
			ItemDelay:        2 * time.Second,
			BatchDelay:       10 * time.Second,
			SourceDelay:      30 * time.Second,
			BatchSize:        5,
			Interval:         time.Hour,
			MinContentLength: 50,
		},
		State: StateConfig{
			Backend:        "file",
			Dir:            "./state",
			RedisURL:       "redis://localhost:6379/0",
			RedisKeyPrefix: "feed-enricher:state:",
			SQLitePath:     "./state/state.db",
		},
		Sink: SinkConfig{
			Backend:           "log",
			Table:             "enriched_records",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 4,
		},
		Fetch: FetchConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Mozilla/5.0 (compatible; FeedEnricher/1.0)",
			RespectRobots: true,
			HostInterval:  time.Second,
			MaxBodyBytes:  5 << 20,
		},
		Retry: RetryConfig{
			BaseDelay:     time.Second,
			MaxDelay:      30 * time.Second,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		},
		DLQ: DLQConfig{
			Enabled:   true,
			Dir:       "./dlq",
			Retention: 720 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:       "info",
			ServiceName: "feed-enricher",
		},
		OTel: OTelConfig{
			Endpoint:       "http://localhost:4318",
			ServiceVersion: "dev",
			Environment:    "development",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		SourcesFile: "sources.yaml",
	}
}
