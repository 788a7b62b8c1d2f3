package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so no stray .env or
// config file is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.True(t, cfg.Challenges.Validate)

	require.Error(t, cfg.Validate(), "missing secret must be fatal")
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORTAL_AUTH_SECRET", "s3cr3t")
	t.Setenv("PORTAL_AUTH_SESSIONTTL", "1m")
	t.Setenv("PORTAL_AUTH_REFRESHTTL", "2h")
	t.Setenv("PORTAL_STORAGE_DRIVER", "s3")
	t.Setenv("PORTAL_STORAGE_BUCKET", "avatars")
	t.Setenv("PORTAL_CHALLENGES_VALIDATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.Auth.Secret)
	assert.Equal(t, time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, 2*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "avatars", cfg.Storage.Bucket)
	assert.False(t, cfg.Challenges.Validate)
	require.NoError(t, cfg.Validate())
}

func TestLoadLegacyTokenVariables(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TOKEN_SECRET", "legacy")
	t.Setenv("TOKEN_LIFE", "30m")
	t.Setenv("TOKEN_REFRESH_LIFE", "24h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy", cfg.Auth.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTTL)
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(`
# comment
PORTAL_AUTH_SECRET="from-file"
PORTAL_SERVER_ADDR=127.0.0.1:9999
`), 0o600))
	t.Setenv("PORTAL_SERVER_ADDR", "127.0.0.1:7777")
	// registered with t.Setenv so the value loaded from .env is cleared afterwards
	t.Setenv("PORTAL_AUTH_SECRET", "")
	require.NoError(t, os.Unsetenv("PORTAL_AUTH_SECRET"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Auth.Secret)
	assert.Equal(t, "127.0.0.1:7777", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Auth.Secret = "k"
		c.Auth.SessionTTL = time.Minute
		c.Auth.RefreshTTL = time.Hour
		c.Storage.Driver = "local"
		c.Storage.Dir = "data"
		return c
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.Auth.RefreshTTL = time.Second
	require.Error(t, c.Validate())

	c = valid()
	c.Storage.Driver = "ftp"
	require.Error(t, c.Validate())

	c = valid()
	c.Storage.Driver = "s3"
	require.Error(t, c.Validate())
}
