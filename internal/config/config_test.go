package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edkuperman/pipelinedag/internal/config"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipelinedag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PIPELINEDAG_ADDR", "")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PIPELINEDAG_ADDR", "")

	path := writeFile(t, `
http:
  port: 9090
  read_timeout: 5s
  allowed_origins: ["https://editor.example.com"]
limits:
  max_nodes: 500
database:
  url: postgres://localhost/pipelines
audit:
  cron: "0 */5 * * * *"
log:
  format: json
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, []string{"https://editor.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 500, cfg.Limits.MaxNodes)
	assert.Equal(t, int64(10<<20), cfg.Limits.MaxBodyBytes)
	assert.Equal(t, "0 */5 * * * *", cfg.Audit.Cron)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("PIPELINEDAG_ADDR", "127.0.0.1:7000")

	cfg, err := config.Load(writeFile(t, "database:\n  url: postgres://file/db\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", cfg.Database.URL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr())
}

func TestLoad_BadInput(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "http: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("addr", func(t *testing.T) {
		t.Setenv("PIPELINEDAG_ADDR", "no-port")
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "PIPELINEDAG_ADDR")
	})
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Port = 70000
	cfg.Limits.MaxEdges = -1
	cfg.Audit.Cron = "not a cron"
	cfg.Audit.Concurrency = 0
	cfg.Log.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	// port, limits, cron parse, cron without database, concurrency, level
	assert.Len(t, merr.Errors, 6)
	assert.ErrorContains(t, err, "audit.cron requires database.url")
}
