package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CAFE_STORAGE_DRIVER", "CAFE_STORAGE_DSN", "CAFE_CATALOG_SOURCE",
		"CAFE_HTTP_ADDR", "CAFE_RECIPIENT", "GOOGLE_MAPS_API_KEY", "KAFKA_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Baloji's Cafe", cfg.Shop.Name)
	assert.Equal(t, "balojiCart", cfg.Storage.Key)
	assert.Equal(t, "https://wa.me", cfg.Handoff.BaseURL)
	assert.Equal(t, "919620538708", cfg.Handoff.Recipient)
	assert.NoError(t, cfg.Validate())
}

func TestSaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Storage.Driver = "postgres"
	cfg.Storage.DSN = "postgres://localhost/cafe"
	cfg.Catalog.Watch = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shop:\n  name: Corner Cafe\nhttp:\n  addr: 127.0.0.1:9000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", cfg.Shop.Name)
	assert.Equal(t, "₹", cfg.Shop.CurrencySymbol)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shop: [unclosed"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAFE_STORAGE_DRIVER", "redis")
	t.Setenv("CAFE_STORAGE_DSN", "redis://localhost:6379/0")
	t.Setenv("CAFE_RECIPIENT", "15550001111")
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")
	t.Setenv("KAFKA_ADDR", "k1:9092,k2:9092")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.DSN)
	assert.Equal(t, "15550001111", cfg.Handoff.Recipient)
	assert.Equal(t, "maps-key", cfg.Geo.APIKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Handoff.KafkaBrokers)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"driver":    func(c *Config) { c.Storage.Driver = "mongo" },
		"dsn":       func(c *Config) { c.Storage.DSN = "" },
		"mode":      func(c *Config) { c.Handoff.Mode = "sms" },
		"recipient": func(c *Config) { c.Handoff.Recipient = "" },
		"kafka":     func(c *Config) { c.Handoff.Mode = "kafka" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	mem := DefaultConfig()
	mem.Storage.Driver = "memory"
	mem.Storage.DSN = ""
	assert.NoError(t, mem.Validate())
}

func TestTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Catalog.Timeout = "250ms"
	cfg.Geo.Timeout = "nonsense"
	assert.Equal(t, 250*time.Millisecond, cfg.GetCatalogTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetGeoTimeout())
}
