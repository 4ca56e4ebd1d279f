package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Point at a directory with no config file so only defaults apply.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
	assert.Equal(t, "database/workflows.db", cfg.Database.Path)
	assert.Equal(t, "workflows", cfg.Workflows.Root)
	assert.False(t, cfg.Workflows.Watch)
	assert.Equal(t, 2*time.Second, cfg.Workflows.Debounce)
	assert.Equal(t, 1000, cfg.Search.CacheSize)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.True(t, cfg.RateLimit.Enable)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 0.0.0.0
  port: 9090
workflows:
  root: /srv/workflows
  watch: true
  debounce: 500ms
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
	assert.Equal(t, "/srv/workflows", cfg.Workflows.Root)
	assert.True(t, cfg.Workflows.Watch)
	assert.Equal(t, 500*time.Millisecond, cfg.Workflows.Debounce)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "database/workflows.db", cfg.Database.Path)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FLOWDEX_SERVER_PORT", "8123")
	t.Setenv("FLOWDEX_DATABASE_PATH", "/tmp/idx.db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, "/tmp/idx.db", cfg.Database.Path)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"bad port":     "server:\n  port: 70000\n",
		"empty root":   "workflows:\n  root: \"\"\n",
		"bad level":    "log:\n  level: chatty\n",
		"bad debounce": "workflows:\n  debounce: -1s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
