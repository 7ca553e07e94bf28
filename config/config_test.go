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

func TestLoadFrom_Defaults(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n  dsn: \"file::memory:\"\n")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "CLB", cfg.Order.NumberPrefix)
	assert.Equal(t, 15*time.Minute, cfg.Order.ReservationWindow)
	assert.Equal(t, 8, cfg.Order.CASRetries)
	assert.Equal(t, "INR", cfg.Order.Currency)
	assert.Equal(t, time.Minute, cfg.Expiry.Interval)
	assert.Equal(t, 100, cfg.Expiry.BatchSize)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Cache.ProductTTL)
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	path := writeConfig(t, "order:\n  number_prefix: CLB\n")
	t.Setenv("CLUBSTORE_ORDER_NUMBER_PREFIX", "ECELL")
	t.Setenv("CLUBSTORE_ORDER_RESERVATION_WINDOW", "5m")
	t.Setenv("CLUBSTORE_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "ECELL", cfg.Order.NumberPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Order.ReservationWindow)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"},
			Order:    OrderConfig{NumberPrefix: "CLB", ReservationWindow: time.Minute, CASRetries: 3},
			Expiry:   ExpiryConfig{Interval: time.Minute, BatchSize: 10},
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cases := map[string]func(c *Config){
		"driver":  func(c *Config) { c.Database.Driver = "mongo" },
		"dsn":     func(c *Config) { c.Database.DSN = " " },
		"prefix":  func(c *Config) { c.Order.NumberPrefix = "" },
		"window":  func(c *Config) { c.Order.ReservationWindow = 0 },
		"retries": func(c *Config) { c.Order.CASRetries = 0 },
		"batch":   func(c *Config) { c.Expiry.BatchSize = 0 },
		"secret":  func(c *Config) { c.Server.Mode = "release"; c.JWT.Secret = "short" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
