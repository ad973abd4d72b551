package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir for the duration of the test so Load does not
// pick up a stray jasp.yaml from the checkout.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"qstat"}, cfg.Queue.StatusCommand)
	assert.Equal(t, []string{"qsub"}, cfg.Queue.SubmitCommand)
	assert.Equal(t, "run.sh", cfg.Queue.Script)
	assert.Equal(t, 5.0, cfg.Queue.StatusRatePerSec)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Archive.Enabled)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, "jasp.job.finished", cfg.Events.Subject)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `queue:
  status_command: ["squeue", "-j"]
  submit_command: ["sbatch"]
  script: job.slurm
server:
  port: 9090
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jasp.yaml"), []byte(content), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"squeue", "-j"}, cfg.Queue.StatusCommand)
	assert.Equal(t, []string{"sbatch"}, cfg.Queue.SubmitCommand)
	assert.Equal(t, "job.slurm", cfg.Queue.Script)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep defaults.
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JASP_LOGGING_LEVEL", "warn")
	t.Setenv("JASP_QUEUE_SCRIPT", "submit.sh")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "submit.sh", cfg.Queue.Script)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jasp.yaml"), []byte("queue: [unterminated\n"), 0o644))
	chdir(t, dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestGetConfigAfterLoad(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, GetConfig())
}
