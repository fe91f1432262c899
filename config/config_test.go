// ABOUTME: This file tests configuration management and environment variable loading
// ABOUTME: Tests config validation, defaults, and error handling
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := map[string]struct {
		envVars     map[string]string
		expectError bool
		validate    func(*testing.T, *Config)
	}{
		"default values": {
			envVars: map[string]string{},
			validate: func(t *testing.T, c *Config) {
				assert.Equal(t, 9300, c.Server.Port)
				assert.Equal(t, 2*time.Second, c.Scheduler.ItemDelay)
				assert.Equal(t, 10*time.Second, c.Scheduler.BatchDelay)
				assert.Equal(t, 30*time.Second, c.Scheduler.SourceDelay)
				assert.Equal(t, 5, c.Scheduler.BatchSize)
				assert.Equal(t, 50, c.Scheduler.MinContentLength)
				assert.Equal(t, "file", c.State.Backend)
				assert.Equal(t, "log", c.Sink.Backend)
				assert.True(t, c.Generation.Enabled)
				assert.True(t, c.Metrics.Enabled)
			},
		},
		"custom values": {
			envVars: map[string]string{
				"SERVER_PORT":            "8080",
				"SCHEDULER_ITEM_DELAY":   "500ms",
				"SCHEDULER_BATCH_SIZE":   "10",
				"GENERATION_ENABLED":     "false",
				"GENERATION_MAX_RETRIES": "4",
				"STATE_BACKEND":          "Redis",
				"SINK_BACKEND":           "postgres",
				"SINK_DATABASE_URL":      "postgres://u:p@localhost:5432/db",
				"LOG_LEVEL":              "DEBUG",
			},
			validate: func(t *testing.T, c *Config) {
				assert.Equal(t, 8080, c.Server.Port)
				assert.Equal(t, 500*time.Millisecond, c.Scheduler.ItemDelay)
				assert.Equal(t, 10, c.Scheduler.BatchSize)
				assert.False(t, c.Generation.Enabled)
				assert.Equal(t, 4, c.Generation.MaxRetries)
				assert.Equal(t, "redis", c.State.Backend)
				assert.Equal(t, "postgres", c.Sink.Backend)
				assert.Equal(t, "debug", c.Logging.Level)
			},
		},
		"invalid port": {
			envVars:     map[string]string{"SERVER_PORT": "70000"},
			expectError: true,
		},
		"invalid delay": {
			envVars:     map[string]string{"SCHEDULER_BATCH_DELAY": "soon"},
			expectError: true,
		},
		"zero batch size": {
			envVars:     map[string]string{"SCHEDULER_BATCH_SIZE": "0"},
			expectError: true,
		},
		"unknown state backend": {
			envVars:     map[string]string{"STATE_BACKEND": "etcd"},
			expectError: true,
		},
		"postgres sink without dsn": {
			envVars:     map[string]string{"SINK_BACKEND": "postgres"},
			expectError: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for key, value := range tc.envVars {
				t.Setenv(key, value)
			}

			config, err := LoadConfig()

			if tc.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, config)
			tc.validate(t, config)
		})
	}
}

func TestValidateConfig(t *testing.T) {
	tests := map[string]struct {
		mutate   func(*Config)
		errorMsg string
	}{
		"valid defaults": {
			mutate: func(*Config) {},
		},
		"negative retries": {
			mutate:   func(c *Config) { c.Generation.MaxRetries = -1 },
			errorMsg: "generation max retries must be non-negative",
		},
		"temperature out of range": {
			mutate:   func(c *Config) { c.Generation.Temperature = 3 },
			errorMsg: "generation temperature",
		},
		"empty host when enabled": {
			mutate:   func(c *Config) { c.Generation.Host = "" },
			errorMsg: "generation host cannot be empty",
		},
		"empty host when disabled": {
			mutate: func(c *Config) {
				c.Generation.Enabled = false
				c.Generation.Host = ""
			},
		},
		"negative delay": {
			mutate:   func(c *Config) { c.Scheduler.SourceDelay = -time.Second },
			errorMsg: "scheduler delays must be non-negative",
		},
		"api sink without url": {
			mutate:   func(c *Config) { c.Sink.Backend = "api" },
			errorMsg: "sink API URL cannot be empty",
		},
		"invalid backoff factor": {
			mutate:   func(c *Config) { c.Retry.BackoffFactor = 0.5 },
			errorMsg: "backoff factor must be greater than 1.0",
		},
		"unknown log level": {
			mutate:   func(c *Config) { c.Logging.Level = "verbose" },
			errorMsg: "unknown log level",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()

			if tc.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errorMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
