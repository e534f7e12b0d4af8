package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{"ENV", "PORT", "LOG_LEVEL", "DB_TYPE", "DATA_DIR", "DATABASE_URL",
	"JWT_SECRET", "ALLOWED_ORIGINS", "DIRECTORY_URL", "REALTIME_URL"}

// clearEnv unsets every variable Config reads, restoring them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, warnings, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Len(t, warnings, 1)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "pebble", cfg.DBType)
	assert.Equal(t, filepath.Join("data", "store"), cfg.ConnString())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"ENV=production\nJWT_SECRET=s3cret\nDB_TYPE=sqlite\nDATABASE_URL=/tmp/chat.db\nALLOWED_ORIGINS=http://a.test,http://b.test\n"), 0o600))

	cfg, warnings, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "/tmp/chat.db", cfg.ConnString())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"pebble", Config{JWTSecret: "s", DBType: "pebble"}, false},
		{"memory", Config{JWTSecret: "s", DBType: "memory"}, false},
		{"missing secret", Config{DBType: "pebble"}, true},
		{"postgres without url", Config{JWTSecret: "s", DBType: "postgres"}, true},
		{"postgres with url", Config{JWTSecret: "s", DBType: "postgres", DatabaseURL: "postgres://x"}, false},
		{"unknown backend", Config{JWTSecret: "s", DBType: "mysql"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
