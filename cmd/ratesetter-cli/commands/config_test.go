package commands

import (
	"os"
	"path/filepath"
	"ratesetter-client/internal/components/telemetry"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(envEmail, "")
	t.Setenv(envPassword, "")

	config, err := loadConfig(filepath.Join(t.TempDir(), "config.json5"), false)
	require.NoError(t, err)
	require.Equal(t, defaultDatabase, config.Database)
	require.Equal(t, defaultSchedule, config.Schedule)
	require.False(t, config.hasCredentials())

	_, err = config.clientOptions(telemetry.NewRecorder(), nil)
	require.Error(t, err)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		email: "file@example.com",
		password: "from file",
		natural: true,
		schedule: "0 9 * * *",
		timeout_seconds: 12,
	}`), 0600)
	require.NoError(t, err)

	t.Setenv(envEmail, "")
	t.Setenv(envPassword, "from env")

	config, err := loadConfig(path, false)
	require.NoError(t, err)
	require.Equal(t, "file@example.com", config.Email)
	require.Equal(t, "from env", config.Password)
	require.Equal(t, "0 9 * * *", config.Schedule)

	opts, err := config.clientOptions(telemetry.NewRecorder(), nil)
	require.NoError(t, err)
	require.True(t, opts.Natural)
	require.Equal(t, 12*time.Second, opts.Timeout)
	require.Nil(t, opts.MessageOutput)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ timeout_seconds: -1 }`), 0600))

	_, err := loadConfig(path, false)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{ email: `), 0600))
	_, err = loadConfig(path, false)
	require.Error(t, err)
}

func TestLoadConfigSearchesParents(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{ database: "found.db" }`), 0600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	config, err := loadConfig("config.json5", true)
	require.NoError(t, err)
	require.Equal(t, "found.db", config.Database)
}
