package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/config"
)

func TestNew(t *testing.T) {
	config.DotEnvFile = filepath.Join(t.TempDir(), "missing.env")

	t.Run("Should apply defaults", func(t *testing.T) {
		type Config struct {
			Log    config.Log
			HTTP   config.HTTP
			Upload config.Upload
			Redis  config.Redis
			Relay  config.Relay
		}

		cfg, err := config.New[Config]()
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
		assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
		assert.False(t, cfg.Log.AddSource)
		assert.Empty(t, cfg.Log.Labels)
		assert.Equal(t, uint32(8000), cfg.HTTP.Port)
		assert.Equal(t, int64(32<<20), cfg.Upload.MaxFileSize)
		assert.Equal(t, uint32(10), cfg.HTTP.DefaultPageSize)
		assert.False(t, cfg.Redis.Enabled())
		assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
		assert.Equal(t, uint32(100), cfg.Relay.BatchSize)
	})

	t.Run("Should read environment", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "Console")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("LOG_LABELS", "env:prod,region:eu")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("KAFKA_ADDRESSES", "a:9092,b:9092")
		t.Setenv("KAFKA_GROUP", "catalog")
		t.Setenv("HTTP_DEFAULT_PAGE_SIZE", "25")

		type Config struct {
			HTTP  config.HTTP
			Log   config.Log
			Redis config.Redis
			Kafka config.Kafka
		}

		cfg, err := config.New[Config]()
		require.NoError(t, err)

		assert.Equal(t, uint32(25), cfg.HTTP.DefaultPageSize)
		assert.Equal(t, config.LogFormatText, cfg.Log.Format)
		assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
		assert.Equal(t, map[string]string{"env": "prod", "region": "eu"}, cfg.Log.Labels)
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Addresses)
	})

	t.Run("Should fail on missing required variable", func(t *testing.T) {
		type Config struct {
			Postgres config.Postgres
		}

		_, err := config.New[Config]()
		assert.Error(t, err)
	})

	t.Run("Should fail on unknown log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")

		type Config struct {
			Log config.Log
		}

		_, err := config.New[Config]()
		assert.Error(t, err)
	})

	t.Run("Should load dotenv file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=9100\n"), 0o600))
		config.DotEnvFile = path
		t.Cleanup(func() {
			config.DotEnvFile = filepath.Join(t.TempDir(), "missing.env")
			os.Unsetenv("HTTP_PORT")
		})

		type Config struct {
			HTTP config.HTTP
		}

		cfg, err := config.New[Config]()
		require.NoError(t, err)
		assert.Equal(t, uint32(9100), cfg.HTTP.Port)
	})
}
