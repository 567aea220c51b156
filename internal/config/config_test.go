package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOTADMIN_API_URL", "BOTADMIN_HTTP_TIMEOUT", "BOTADMIN_TOKEN_STORE",
		"BOTADMIN_SESSION_FILE", "BOTADMIN_REDIS_ADDRESS", "BOTADMIN_REDIS_PREFIX",
		"BOTADMIN_INSECURE_SKIP_VERIFY", "ACCESS_TOKEN_EXPIRE_MINUTES", "CORS_ORIGINS",
		"DATABASE_URL", "DEVSERVER_ADDR", "DEVSERVER_SEED", "JWT_SECRET", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.API.URL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.API.InsecureSkipVerify)
	assert.Equal(t, StoreKeyring, cfg.TokenStore.Backend)
	assert.Equal(t, filepath.Join("/tmp/xdg", "botadmin", "session.json"), cfg.TokenStore.SessionFile)
	assert.Equal(t, "botadmin", cfg.TokenStore.RedisPrefix)
	assert.Equal(t, 30*time.Minute, cfg.DevServer.TokenExpiresIn)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.DevServer.CORSOrigins)
	assert.True(t, cfg.DevServer.Seed)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOTADMIN_API_URL", "https://bots.example.com/")
	t.Setenv("BOTADMIN_HTTP_TIMEOUT", "0")
	t.Setenv("BOTADMIN_TOKEN_STORE", "Redis")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DEVSERVER_SEED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://bots.example.com", cfg.API.URL)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, StoreRedis, cfg.TokenStore.Backend)
	assert.Equal(t, 5*time.Minute, cfg.DevServer.TokenExpiresIn)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.DevServer.CORSOrigins)
	assert.False(t, cfg.DevServer.Seed)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"BOTADMIN_HTTP_TIMEOUT":       "soon",
		"BOTADMIN_TOKEN_STORE":        "vault",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "-1",
		"CORS_ORIGINS":                " , ",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("45")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	d, err = parseDuration("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = parseDuration("-5s")
	assert.Error(t, err)
}
