package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches the working directory for the test and restores it on
// cleanup; stand-in for t.Chdir, which needs Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // no config.toml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tokoroti-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "tokoroti.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 30*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Inventory.ExpiryWarningWindow)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BAKERY_APP_PORT", "9999")
	t.Setenv("BAKERY_DATABASE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BAKERY_DATABASE_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_Production(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.App.Env = "production"
		cfg.Database.Driver = "postgres"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Extraction.BaseURL = "https://llm.internal/v1"
		return cfg
	}

	t.Run("valid production config passes", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("sqlite refused", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "sqlite"
		assert.Error(t, cfg.validate())
	})

	t.Run("short jwt secret refused", func(t *testing.T) {
		cfg := base()
		cfg.JWT.Secret = "short"
		assert.Error(t, cfg.validate())
	})

	t.Run("missing extraction endpoint refused", func(t *testing.T) {
		cfg := base()
		cfg.Extraction.BaseURL = ""
		assert.Error(t, cfg.validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := &DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "baker",
		Password: "p@ss/word",
		DBName:   "tokoroti",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.local:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Password must be escaped, not verbatim
	assert.NotContains(t, dsn, "p@ss/word")
}
