package config

import (
	"time"
)

// DatasetConfig represents the reference dataset settings
type DatasetConfig struct {
	Path           string
	Watch          bool
	ReloadDebounce time.Duration
}

// HTTPConfig represents the configuration for the HTTP front end
type HTTPConfig struct {
	ListenAddress string
	MaxBodyBytes  int64
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RateLimit     float64
	RateBurst     int
	CORSOrigins   []string
}

// SMTPConfig represents the configuration for the SMTP content filter
type SMTPConfig struct {
	ListenAddress  string
	BlockDangerous bool
	MaxURLs        int
	StatusHeader   string
	ScoreHeader    string
	ReasonHeader   string
	CountHeader    string
	RelayEnabled   bool
	RelayAddress   string
	RelayPort      int
}

// CacheConfig represents the verdict cache settings
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// HistoryConfig represents the action history settings
type HistoryConfig struct {
	Type       string
	MaxRecords int
	SQLitePath string
	MySQLDSN   string
}

// LoggingConfig represents the logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// GetDataset returns the dataset configuration
func (c *Config) GetDataset() (DatasetConfig, error) {
	debounce, err := c.GetDuration("dataset.reload_debounce")
	if err != nil {
		return DatasetConfig{}, err
	}
	return DatasetConfig{
		Path:           c.GetString("dataset.path"),
		Watch:          c.GetBool("dataset.watch"),
		ReloadDebounce: debounce,
	}, nil
}

// GetFilters returns the enabled front ends
func (c *Config) GetFilters() []string {
	return c.GetStringSlice("server.filters")
}

// GetHTTP returns the HTTP front end configuration
func (c *Config) GetHTTP() (HTTPConfig, error) {
	readTimeout, err := c.GetDuration("server.http.read_timeout")
	if err != nil {
		return HTTPConfig{}, err
	}
	writeTimeout, err := c.GetDuration("server.http.write_timeout")
	if err != nil {
		return HTTPConfig{}, err
	}
	return HTTPConfig{
		ListenAddress: c.GetString("server.http.listen_address"),
		MaxBodyBytes:  int64(c.GetInt("server.http.max_body_bytes")),
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
		RateLimit:     c.GetFloat64("server.http.rate_limit"),
		RateBurst:     c.GetInt("server.http.rate_burst"),
		CORSOrigins:   c.GetStringSlice("server.http.cors_origins"),
	}, nil
}

// GetSMTP returns the SMTP content filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		ListenAddress:  c.GetString("server.smtp.listen_address"),
		BlockDangerous: c.GetBool("server.smtp.block_dangerous"),
		MaxURLs:        c.GetInt("server.smtp.max_urls"),
		StatusHeader:   c.GetString("server.smtp.headers.status"),
		ScoreHeader:    c.GetString("server.smtp.headers.score"),
		ReasonHeader:   c.GetString("server.smtp.headers.reason"),
		CountHeader:    c.GetString("server.smtp.headers.count"),
		RelayEnabled:   c.GetBool("server.smtp.relay.enabled"),
		RelayAddress:   c.GetString("server.smtp.relay.address"),
		RelayPort:      c.GetInt("server.smtp.relay.port"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetHistory returns the action history configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		Type:       c.GetString("history.type"),
		MaxRecords: c.GetInt("history.max_records"),
		SQLitePath: c.GetString("history.sqlite_path"),
		MySQLDSN:   c.GetString("history.mysql_dsn"),
	}
}

// GetAllowlist returns the allowlisted hosts
func (c *Config) GetAllowlist() []string {
	return c.GetStringSlice("allowlist.hosts")
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
