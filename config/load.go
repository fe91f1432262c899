// ABOUTME: Loads service configuration from defaults and environment variables
// ABOUTME: Each section has its own loader; parse helpers report the offending key
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfig builds the configuration from defaults and overrides provided via environment variables.
func LoadConfig() (*Config, error) {
	config := defaultConfig()

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func loadFromEnv(config *Config) error {
	if err := loadServerConfig(&config.Server); err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}

	if err := loadGenerationConfig(&config.Generation); err != nil {
		return fmt.Errorf("failed to load generation config: %w", err)
	}

	if err := loadSchedulerConfig(&config.Scheduler); err != nil {
		return fmt.Errorf("failed to load scheduler config: %w", err)
	}

	loadStateConfig(&config.State)

	if err := loadSinkConfig(&config.Sink); err != nil {
		return fmt.Errorf("failed to load sink config: %w", err)
	}

	if err := loadFetchConfig(&config.Fetch); err != nil {
		return fmt.Errorf("failed to load fetch config: %w", err)
	}

	if err := loadRetryConfig(&config.Retry); err != nil {
		return fmt.Errorf("failed to load retry config: %w", err)
	}

	if err := loadDLQConfig(&config.DLQ); err != nil {
		return fmt.Errorf("failed to load DLQ config: %w", err)
	}

	if err := loadTelemetryConfig(config); err != nil {
		return fmt.Errorf("failed to load telemetry config: %w", err)
	}

	config.SourcesFile = stringEnv("SOURCES_FILE", config.SourcesFile)

	return nil
}

func loadServerConfig(cfg *ServerConfig) error {
	var err error

	if cfg.Port, err = parseIntEnv("SERVER_PORT", cfg.Port); err != nil {
		return err
	}

	if cfg.ShutdownTimeout, err = parseDurationEnv("SERVER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}

	if cfg.ReadTimeout, err = parseDurationEnv("SERVER_READ_TIMEOUT", cfg.ReadTimeout); err != nil {
		return err
	}

	if cfg.WriteTimeout, err = parseDurationEnv("SERVER_WRITE_TIMEOUT", cfg.WriteTimeout); err != nil {
		return err
	}

	return nil
}

func loadGenerationConfig(cfg *GenerationConfig) error {
	var err error

	if cfg.Enabled, err = parseBoolEnv("GENERATION_ENABLED", cfg.Enabled); err != nil {
		return err
	}

	cfg.Host = stringEnv("GENERATION_HOST", cfg.Host)
	cfg.APIPath = stringEnv("GENERATION_API_PATH", cfg.APIPath)
	cfg.Model = stringEnv("GENERATION_MODEL", cfg.Model)

	if cfg.Timeout, err = parseDurationEnv("GENERATION_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	if cfg.MaxRetries, err = parseIntEnv("GENERATION_MAX_RETRIES", cfg.MaxRetries); err != nil {
		return err
	}

	if cfg.Temperature, err = parseFloatEnv("GENERATION_TEMPERATURE", cfg.Temperature); err != nil {
		return err
	}

	if cfg.MaxTokens, err = parseIntEnv("GENERATION_MAX_TOKENS", cfg.MaxTokens); err != nil {
		return err
	}

	if cfg.RequestsPerSecond, err = parseFloatEnv("GENERATION_REQUESTS_PER_SECOND", cfg.RequestsPerSecond); err != nil {
		return err
	}

	if cfg.BreakerThreshold, err = parseIntEnv("GENERATION_BREAKER_THRESHOLD", cfg.BreakerThreshold); err != nil {
		return err
	}

	if cfg.BreakerTimeout, err = parseDurationEnv("GENERATION_BREAKER_TIMEOUT", cfg.BreakerTimeout); err != nil {
		return err
	}

	if cfg.SocialEnabled, err = parseBoolEnv("GENERATION_SOCIAL_ENABLED", cfg.SocialEnabled); err != nil {
		return err
	}

	return nil
}

func loadSchedulerConfig(cfg *SchedulerConfig) error {
	var err error

	if cfg.ItemDelay, err = parseDurationEnv("SCHEDULER_ITEM_DELAY", cfg.ItemDelay); err != nil {
		return err
	}

	if cfg.BatchDelay, err = parseDurationEnv("SCHEDULER_BATCH_DELAY", cfg.BatchDelay); err != nil {
		return err
	}

	if cfg.SourceDelay, err = parseDurationEnv("SCHEDULER_SOURCE_DELAY", cfg.SourceDelay); err != nil {
		return err
	}

	if cfg.BatchSize, err = parseIntEnv("SCHEDULER_BATCH_SIZE", cfg.BatchSize); err != nil {
		return err
	}

	if cfg.Interval, err = parseDurationEnv("SCHEDULER_INTERVAL", cfg.Interval); err != nil {
		return err
	}

	if cfg.MinContentLength, err = parseIntEnv("SCHEDULER_MIN_CONTENT_LENGTH", cfg.MinContentLength); err != nil {
		return err
	}

	return nil
}

func loadStateConfig(cfg *StateConfig) {
	cfg.Backend = strings.ToLower(stringEnv("STATE_BACKEND", cfg.Backend))
	cfg.Dir = stringEnv("STATE_DIR", cfg.Dir)
	cfg.RedisURL = stringEnv("STATE_REDIS_URL", cfg.RedisURL)
	cfg.RedisKeyPrefix = stringEnv("STATE_REDIS_KEY_PREFIX", cfg.RedisKeyPrefix)
	cfg.SQLitePath = stringEnv("STATE_SQLITE_PATH", cfg.SQLitePath)
}

func loadSinkConfig(cfg *SinkConfig) error {
	var err error

	cfg.Backend = strings.ToLower(stringEnv("SINK_BACKEND", cfg.Backend))
	cfg.DatabaseURL = stringEnv("SINK_DATABASE_URL", cfg.DatabaseURL)
	cfg.Table = stringEnv("SINK_TABLE", cfg.Table)
	cfg.APIURL = stringEnv("SINK_API_URL", cfg.APIURL)
	cfg.APIToken = stringEnv("SINK_API_TOKEN", cfg.APIToken)

	if cfg.Timeout, err = parseDurationEnv("SINK_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	if cfg.RequestsPerSecond, err = parseFloatEnv("SINK_REQUESTS_PER_SECOND", cfg.RequestsPerSecond); err != nil {
		return err
	}

	return nil
}

func loadFetchConfig(cfg *FetchConfig) error {
	var err error

	if cfg.Timeout, err = parseDurationEnv("FETCH_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	cfg.UserAgent = stringEnv("FETCH_USER_AGENT", cfg.UserAgent)

	if cfg.RespectRobots, err = parseBoolEnv("FETCH_RESPECT_ROBOTS", cfg.RespectRobots); err != nil {
		return err
	}

	if cfg.HostInterval, err = parseDurationEnv("FETCH_HOST_INTERVAL", cfg.HostInterval); err != nil {
		return err
	}

	maxBody, err := parseIntEnv("FETCH_MAX_BODY_BYTES", int(cfg.MaxBodyBytes))
	if err != nil {
		return err
	}
	cfg.MaxBodyBytes = int64(maxBody)

	return nil
}

func loadRetryConfig(cfg *RetryConfig) error {
	var err error

	if cfg.BaseDelay, err = parseDurationEnv("RETRY_BASE_DELAY", cfg.BaseDelay); err != nil {
		return err
	}

	if cfg.MaxDelay, err = parseDurationEnv("RETRY_MAX_DELAY", cfg.MaxDelay); err != nil {
		return err
	}

	if cfg.BackoffFactor, err = parseFloatEnv("RETRY_BACKOFF_FACTOR", cfg.BackoffFactor); err != nil {
		return err
	}

	if cfg.JitterFactor, err = parseFloatEnv("RETRY_JITTER_FACTOR", cfg.JitterFactor); err != nil {
		return err
	}

	return nil
}

func loadDLQConfig(cfg *DLQConfig) error {
	var err error

	if cfg.Enabled, err = parseBoolEnv("DLQ_ENABLED", cfg.Enabled); err != nil {
		return err
	}

	cfg.Dir = stringEnv("DLQ_DIR", cfg.Dir)

	if cfg.Retention, err = parseDurationEnv("DLQ_RETENTION", cfg.Retention); err != nil {
		return err
	}

	return nil
}

func loadTelemetryConfig(config *Config) error {
	var err error

	config.Logging.Level = strings.ToLower(stringEnv("LOG_LEVEL", config.Logging.Level))
	config.Logging.ServiceName = stringEnv("SERVICE_NAME", config.Logging.ServiceName)

	if config.OTel.Enabled, err = parseBoolEnv("OTEL_ENABLED", config.OTel.Enabled); err != nil {
		return err
	}
	config.OTel.Endpoint = stringEnv("OTEL_EXPORTER_OTLP_ENDPOINT", config.OTel.Endpoint)
	config.OTel.ServiceVersion = stringEnv("SERVICE_VERSION", config.OTel.ServiceVersion)
	config.OTel.Environment = stringEnv("DEPLOYMENT_ENV", config.OTel.Environment)

	if config.Metrics.Enabled, err = parseBoolEnv("METRICS_ENABLED", config.Metrics.Enabled); err != nil {
		return err
	}
	config.Metrics.Path = stringEnv("METRICS_PATH", config.Metrics.Path)

	return nil
}

func stringEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return d, nil
	}
	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return i, nil
	}
	return defaultValue, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return b, nil
	}
	return defaultValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		return f, nil
	}
	return defaultValue, nil
}
