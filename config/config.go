// Package config holds the settings for the cafe cart CLI and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of config.yaml.
type Config struct {
	Shop    ShopConfig    `yaml:"shop"`
	Catalog CatalogConfig `yaml:"catalog"`
	Storage StorageConfig `yaml:"storage"`
	Handoff HandoffConfig `yaml:"handoff"`
	Geo     GeoConfig     `yaml:"geo"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

type ShopConfig struct {
	Name           string `yaml:"name"`
	CurrencySymbol string `yaml:"currency_symbol"`
}

// CatalogConfig points at the menu. An empty source uses the built-in menu.
type CatalogConfig struct {
	Source  string `yaml:"source"`
	Watch   bool   `yaml:"watch"`
	Timeout string `yaml:"timeout"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite, postgres, redis
	DSN    string `yaml:"dsn"`
	Key    string `yaml:"key"`
}

type HandoffConfig struct {
	Mode         string   `yaml:"mode"` // browser, stdout, kafka
	BaseURL      string   `yaml:"base_url"`
	Recipient    string   `yaml:"recipient"`
	KafkaBrokers []string `yaml:"kafka_brokers,omitempty"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

type GeoConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Shop: ShopConfig{
			Name:           "Baloji's Cafe",
			CurrencySymbol: "₹",
		},
		Catalog: CatalogConfig{
			Timeout: "5s",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(".cafe", "cart.db"),
			Key:    "balojiCart",
		},
		Handoff: HandoffConfig{
			Mode:       "browser",
			BaseURL:    "https://wa.me",
			Recipient:  "919620538708",
			KafkaTopic: "cafe.orders",
		},
		Geo: GeoConfig{
			BaseURL: "https://maps.googleapis.com",
			Timeout: "5s",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CAFE_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("CAFE_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("CAFE_CATALOG_SOURCE"); v != "" {
		c.Catalog.Source = v
	}
	if v := os.Getenv("CAFE_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("CAFE_RECIPIENT"); v != "" {
		c.Handoff.Recipient = v
	}
	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		c.Geo.APIKey = v
	}
	if v := os.Getenv("KAFKA_ADDR"); v != "" {
		c.Handoff.KafkaBrokers = strings.Split(v, ",")
	}
}

var (
	ValidDrivers      = []string{"memory", "sqlite", "postgres", "redis"}
	ValidHandoffModes = []string{"browser", "stdout", "kafka"}
)

// Validate checks the enumerated settings and the ones each mode needs.
func (c *Config) Validate() error {
	if !contains(ValidDrivers, c.Storage.Driver) {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, ValidDrivers)
	}
	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		return fmt.Errorf("storage driver %s needs a dsn", c.Storage.Driver)
	}
	if !contains(ValidHandoffModes, c.Handoff.Mode) {
		return fmt.Errorf("invalid handoff mode: %s (valid: %v)", c.Handoff.Mode, ValidHandoffModes)
	}
	if c.Handoff.Recipient == "" {
		return fmt.Errorf("handoff recipient not configured (set CAFE_RECIPIENT)")
	}
	if c.Handoff.Mode == "kafka" && (len(c.Handoff.KafkaBrokers) == 0 || c.Handoff.KafkaTopic == "") {
		return fmt.Errorf("kafka handoff needs brokers and a topic (set KAFKA_ADDR)")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// GetCatalogTimeout returns the menu fetch timeout as a duration.
func (c *Config) GetCatalogTimeout() time.Duration {
	d, err := time.ParseDuration(c.Catalog.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetGeoTimeout returns the reverse geocoding timeout as a duration.
func (c *Config) GetGeoTimeout() time.Duration {
	d, err := time.ParseDuration(c.Geo.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
