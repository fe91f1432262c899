package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed-enricher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scheduler:
  item_delay: 250ms
  batch_size: 3
state:
  backend: sqlite
  sqlite_path: /tmp/state.db
generation:
  enabled: false
sources_file: /etc/feed-enricher/sources.yaml
`), 0o600))

	t.Setenv("SCHEDULER_BATCH_SIZE", "7")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Scheduler.ItemDelay)
	assert.Equal(t, 7, cfg.Scheduler.BatchSize, "environment overrides the file")
	assert.Equal(t, 10*time.Second, cfg.Scheduler.BatchDelay, "unset keys keep defaults")
	assert.Equal(t, "sqlite", cfg.State.Backend)
	assert.Equal(t, "/tmp/state.db", cfg.State.SQLitePath)
	assert.False(t, cfg.Generation.Enabled)
	assert.Equal(t, "/etc/feed-enricher/sources.yaml", cfg.SourcesFile)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("state:\n  backend: etcd\n"), 0o600))

	tests := map[string]struct {
		path string
	}{
		"missing file":    {path: filepath.Join(dir, "missing.yaml")},
		"invalid backend": {path: invalid},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfigFile(tc.path)
			assert.Error(t, err)
		})
	}
}
