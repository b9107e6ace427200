package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Host:     "localhost",
			Port:     "5432",
			Database: "crawl",
			User:     "crawler",
			Password: "secret",
		}
	}

	t.Run("valid config", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("defaults empty port", func(t *testing.T) {
		cfg := valid()
		cfg.Port = ""
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "5432", cfg.Port)
	})

	t.Run("reports all missing settings", func(t *testing.T) {
		err := (&Config{}).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "host")
		assert.Contains(t, err.Error(), "database")
		assert.Contains(t, err.Error(), "user")
		assert.Contains(t, err.Error(), "password")
	})
}

func TestConfigConnString(t *testing.T) {
	cfg := &Config{
		Host:     "db.internal",
		Port:     "5433",
		Database: "crawl",
		User:     "crawler",
		Password: "p@ss/word",
	}

	conn := cfg.ConnString()
	assert.Contains(t, conn, "postgres://")
	assert.Contains(t, conn, "db.internal:5433")
	assert.Contains(t, conn, "/crawl")
	// Reserved characters in the password must be escaped.
	assert.NotContains(t, conn, "p@ss/word")
}

func TestFromEnv(t *testing.T) {
	t.Run("reads all settings", func(t *testing.T) {
		t.Setenv("POSTGRES_HOST", "envhost")
		t.Setenv("POSTGRES_PORT", "6000")
		t.Setenv("POSTGRES_DB", "envdb")
		t.Setenv("POSTGRES_USER", "envuser")
		t.Setenv("POSTGRES_PASSWORD", "envpass")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, "envhost", cfg.Host)
		assert.Equal(t, "6000", cfg.Port)
		assert.Equal(t, "envdb", cfg.Database)
	})

	t.Run("port defaults when unset", func(t *testing.T) {
		t.Setenv("POSTGRES_HOST", "envhost")
		t.Setenv("POSTGRES_PORT", "")
		t.Setenv("POSTGRES_DB", "envdb")
		t.Setenv("POSTGRES_USER", "envuser")
		t.Setenv("POSTGRES_PASSWORD", "envpass")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, "5432", cfg.Port)
	})

	t.Run("fails on missing settings", func(t *testing.T) {
		t.Setenv("POSTGRES_HOST", "")
		t.Setenv("POSTGRES_DB", "")
		t.Setenv("POSTGRES_USER", "")
		t.Setenv("POSTGRES_PASSWORD", "")

		_, err := FromEnv()
		assert.Error(t, err)
	})
}
