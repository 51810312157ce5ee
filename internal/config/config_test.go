package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray
// classpick.toml is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.AttemptTimeout)
	assert.Equal(t, 2*time.Second, cfg.LoginDelay)
	assert.Zero(t, cfg.LoginMaxAttempts)
	assert.Equal(t, "successfulRegistrations.log", cfg.SuccessLogPath)
	assert.Equal(t, "unsuccessfulRegistrations.log", cfg.FailureLogPath)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.SecretKey)
	assert.True(t, strings.HasSuffix(cfg.CredentialsPath, filepath.Join(".config", "classpick", "credentials.toml")))
	assert.Error(t, cfg.RequirePortal())
	assert.Error(t, cfg.RequireSecret())
}

func TestLoadFromEnv(t *testing.T) {
	inTempDir(t)
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	t.Setenv("CLASSPICK_PORTAL_URL", "https://portal.example.edu/api")
	t.Setenv("CLASSPICK_POLL_INTERVAL", "250ms")
	t.Setenv("CLASSPICK_LOGIN_MAX_ATTEMPTS", "5")
	t.Setenv("CLASSPICK_SECRET_KEY", key)
	t.Setenv("CLASSPICK_DATABASE_URL", "postgres://localhost/classpick")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example.edu/api", cfg.PortalURL)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, []byte(strings.Repeat("k", 32)), cfg.SecretKey)
	assert.Equal(t, "postgres://localhost/classpick", cfg.DatabaseURL)
	assert.NoError(t, cfg.RequirePortal())
	assert.NoError(t, cfg.RequireSecret())
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := inTempDir(t)
	content := `
[portal]
url = "https://file.example.edu"

[poll]
interval = "1s"

[logs]
success_path = "out/ok.log"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classpick.toml"), []byte(content), 0o600))
	t.Setenv("CLASSPICK_POLL_INTERVAL", "750ms")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.edu", cfg.PortalURL)
	assert.Equal(t, 750*time.Millisecond, cfg.PollInterval, "env overrides file")
	assert.Equal(t, "out/ok.log", cfg.SuccessLogPath)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "bad interval", env: map[string]string{"CLASSPICK_POLL_INTERVAL": "soon"}, want: "CLASSPICK_POLL_INTERVAL"},
		{name: "zero interval", env: map[string]string{"CLASSPICK_POLL_INTERVAL": "0s"}, want: "must be positive"},
		{name: "zero attempt timeout", env: map[string]string{"CLASSPICK_POLL_ATTEMPT_TIMEOUT": "0s"}, want: "CLASSPICK_POLL_ATTEMPT_TIMEOUT"},
		{name: "zero login delay", env: map[string]string{"CLASSPICK_LOGIN_DELAY": "0s"}, want: "CLASSPICK_LOGIN_DELAY"},
		{name: "negative login delay", env: map[string]string{"CLASSPICK_LOGIN_DELAY": "-2s"}, want: "must be positive"},
		{name: "negative attempts", env: map[string]string{"CLASSPICK_LOGIN_MAX_ATTEMPTS": "-1"}, want: "CLASSPICK_LOGIN_MAX_ATTEMPTS"},
		{name: "bad key", env: map[string]string{"CLASSPICK_SECRET_KEY": "!!!"}, want: "CLASSPICK_SECRET_KEY"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inTempDir(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(viper.New())
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestSecretKeyFromFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "secret")
	raw := []byte(strings.Repeat("z", 32))
	require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(raw)+"\n"), 0o600))
	t.Setenv("CLASSPICK_SECRET_KEY", path)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, raw, cfg.SecretKey)
}
