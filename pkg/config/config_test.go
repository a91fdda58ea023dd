package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("DISPATCH_TIMEOUT_SECONDS", "5")

	// Run from a directory without config.yaml so env-only loading is exercised.
	t.Chdir(t.TempDir())

	cfg, err := Load("test-version")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.Timeout())
	assert.True(t, cfg.Encryption.Enabled, "encryption should default to enabled")
}

func TestLoadRequiresSecretWhenEncryptionEnabled(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("ENCRYPT_PARAMS", "true")
	t.Chdir(t.TempDir())

	_, err := Load("dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestLoadAllowsMissingSecretWhenEncryptionDisabled(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("ENCRYPT_PARAMS", "false")
	t.Chdir(t.TempDir())

	cfg, err := Load("dev")
	require.NoError(t, err)
	assert.False(t, cfg.Encryption.Enabled)
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("DISPATCH_TIMEOUT_SECONDS", "0")
	t.Chdir(t.TempDir())

	_, err := Load("dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "connector",
		Password: "pw", Database: "connector_engine", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=connector password=pw dbname=connector_engine sslmode=disable"
	assert.Equal(t, want, cfg.ConnectionString())
}
