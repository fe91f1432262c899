package config

import (
	"fmt"
)

var (
	stateBackends = map[string]bool{"file": true, "redis": true, "sqlite": true}
	sinkBackends  = map[string]bool{"log": true, "postgres": true, "api": true}
	logLevels     = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate checks the configuration after flag or file overrides were applied.
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Generation.Enabled {
		if config.Generation.Host == "" {
			return fmt.Errorf("generation host cannot be empty")
		}
		if config.Generation.Timeout <= 0 {
			return fmt.Errorf("generation timeout must be positive: %v", config.Generation.Timeout)
		}
	}

	if config.Generation.MaxRetries < 0 {
		return fmt.Errorf("generation max retries must be non-negative: %d", config.Generation.MaxRetries)
	}

	if config.Generation.Temperature < 0 || config.Generation.Temperature > 2 {
		return fmt.Errorf("generation temperature must be within [0,2]: %v", config.Generation.Temperature)
	}

	if config.Generation.MaxTokens <= 0 {
		return fmt.Errorf("generation max tokens must be positive: %d", config.Generation.MaxTokens)
	}

	if config.Generation.RequestsPerSecond <= 0 {
		return fmt.Errorf("generation requests per second must be positive: %v", config.Generation.RequestsPerSecond)
	}

	if config.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("scheduler batch size must be positive: %d", config.Scheduler.BatchSize)
	}

	if config.Scheduler.ItemDelay < 0 || config.Scheduler.BatchDelay < 0 || config.Scheduler.SourceDelay < 0 {
		return fmt.Errorf("scheduler delays must be non-negative")
	}

	if config.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive: %v", config.Scheduler.Interval)
	}

	if config.Scheduler.MinContentLength < 0 {
		return fmt.Errorf("min content length must be non-negative: %d", config.Scheduler.MinContentLength)
	}

	if !stateBackends[config.State.Backend] {
		return fmt.Errorf("unknown state backend: %q", config.State.Backend)
	}

	if !sinkBackends[config.Sink.Backend] {
		return fmt.Errorf("unknown sink backend: %q", config.Sink.Backend)
	}

	if config.Sink.Backend == "postgres" && config.Sink.DatabaseURL == "" {
		return fmt.Errorf("sink database URL cannot be empty when SINK_BACKEND is postgres")
	}

	if config.Sink.Backend == "api" && config.Sink.APIURL == "" {
		return fmt.Errorf("sink API URL cannot be empty when SINK_BACKEND is api")
	}

	if config.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive: %v", config.Fetch.Timeout)
	}

	if config.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch max body bytes must be positive: %d", config.Fetch.MaxBodyBytes)
	}

	if config.Retry.BackoffFactor <= 1.0 {
		return fmt.Errorf("backoff factor must be greater than 1.0: %f", config.Retry.BackoffFactor)
	}

	if config.Retry.JitterFactor < 0 || config.Retry.JitterFactor > 1 {
		return fmt.Errorf("jitter factor must be within [0,1]: %f", config.Retry.JitterFactor)
	}

	if !logLevels[config.Logging.Level] {
		return fmt.Errorf("unknown log level: %q", config.Logging.Level)
	}

	return nil
}
