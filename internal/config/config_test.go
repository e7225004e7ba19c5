package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
http_server:
  address: "localhost:8080"
auth:
  jwt_secret: "s3cret"
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "refreshToken", cfg.Cookie.Name)
	assert.Equal(t, "/auth/refresh", cfg.Cookie.Path)
	assert.Equal(t, 10, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 100, cfg.Pagination.MaxLimit)
	assert.False(t, cfg.SecureCookies())
}

func TestLoadConfig_EnvOverridesSecret(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "from-env")

	path := writeConfig(t, `
env: "prod"
http_server:
  address: "localhost:8080"
auth:
  jwt_secret: "from-file"
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.True(t, cfg.SecureCookies())
}

func TestLoadConfig_UnknownDriver(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: "mysql"
http_server:
  address: "localhost:8080"
auth:
  jwt_secret: "s3cret"
`)

	_, err := loadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_MaxLimitBelowDefault(t *testing.T) {
	path := writeConfig(t, `
http_server:
  address: "localhost:8080"
auth:
  jwt_secret: "s3cret"
pagination:
  default_limit: 20
  max_limit: 5
`)

	_, err := loadConfig(path)
	require.Error(t, err)
}

func TestMustLoadConfig_MissingFilePanics(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
