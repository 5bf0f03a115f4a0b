package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// Load reads configuration from path, or searches the default locations
// when path is empty. A missing file in the default locations is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/url-classifier/")
		v.AddConfigPath("$HOME/.url-classifier")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("URL_CLASSIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.path", "configs/links.csv")
	v.SetDefault("dataset.watch", true)
	v.SetDefault("dataset.reload_debounce", "500ms")

	// Server defaults
	v.SetDefault("server.filters", []string{"http"})

	// HTTP defaults
	v.SetDefault("server.http.listen_address", "127.0.0.1:5000")
	v.SetDefault("server.http.max_body_bytes", 64*1024)
	v.SetDefault("server.http.read_timeout", "10s")
	v.SetDefault("server.http.write_timeout", "10s")
	v.SetDefault("server.http.rate_limit", 50.0)
	v.SetDefault("server.http.rate_burst", 100)
	v.SetDefault("server.http.cors_origins", []string{"*"})

	// SMTP defaults
	v.SetDefault("server.smtp.listen_address", "127.0.0.1:10025")
	v.SetDefault("server.smtp.block_dangerous", false)
	v.SetDefault("server.smtp.max_urls", 20)
	v.SetDefault("server.smtp.headers.status", "X-URL-Status")
	v.SetDefault("server.smtp.headers.score", "X-URL-Score")
	v.SetDefault("server.smtp.headers.reason", "X-URL-Reason")
	v.SetDefault("server.smtp.headers.count", "X-URL-Count")
	v.SetDefault("server.smtp.relay.enabled", true)
	v.SetDefault("server.smtp.relay.address", "127.0.0.1")
	v.SetDefault("server.smtp.relay.port", 10026)

	// Allowlist defaults
	v.SetDefault("allowlist.hosts", []string{})

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_frequency", "10m")
	v.SetDefault("cache.sqlite_path", "/data/url_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/url_classifier")

	// History defaults
	v.SetDefault("history.type", "memory")
	v.SetDefault("history.max_records", 200)
	v.SetDefault("history.sqlite_path", "/data/url_history.db")
	v.SetDefault("history.mysql_dsn", "user:password@tcp(localhost:3306)/url_classifier")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
