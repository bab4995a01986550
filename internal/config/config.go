package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"productview/catalog/internal/criteria"

	"github.com/spf13/viper"
)

// Catalog source kinds.
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Query    DefaultsConfig `mapstructure:"query"`
	Window   WindowConfig   `mapstructure:"window"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Host           string   `mapstructure:"host"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CatalogConfig selects where the catalog is read from
type CatalogConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

// UpstreamConfig holds the remote catalog API configuration
type UpstreamConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	BreakerCooldown      int      `mapstructure:"breaker_cooldown"`
	Proxies              []string `mapstructure:"proxies"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN returns the postgres connection URL with credentials escaped.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Password        string `mapstructure:"password"`
	Database        int    `mapstructure:"database"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	CacheTTL        int    `mapstructure:"cache_ttl"`
	CacheMaxEntries int    `mapstructure:"cache_max_entries"`
	RateLimit       int    `mapstructure:"rate_limit"`
	RateWindow      int    `mapstructure:"rate_window"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultsConfig holds the values a missing query parameter falls back to
type DefaultsConfig struct {
	MinPrice    float64 `mapstructure:"min_price"`
	MaxPrice    float64 `mapstructure:"max_price"`
	StockOnly   bool    `mapstructure:"stock_only"`
	PageSize    int     `mapstructure:"page_size"`
	MaxPageSize int     `mapstructure:"max_page_size"`
}

// Defaults converts the section into normalizer defaults.
func (c DefaultsConfig) Defaults() criteria.Defaults {
	return criteria.Defaults{
		MinPrice:    c.MinPrice,
		MaxPrice:    c.MaxPrice,
		StockOnly:   c.StockOnly,
		PageSize:    c.PageSize,
		MaxPageSize: c.MaxPageSize,
	}
}

// WindowConfig holds the incremental mode defaults
type WindowConfig struct {
	DefaultsConfig `mapstructure:",squash"`
	Proximity      int `mapstructure:"proximity"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TimeoutDuration returns the upstream timeout as a duration.
func (c UpstreamConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load loads configuration from a YAML file with environment variable overrides.
// An empty path searches for config.yaml in the working directory; a missing
// file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	return load(v, path != "")
}

// LoadWith decodes configuration from an already prepared viper instance,
// for callers that bind flags before loading.
func LoadWith(v *viper.Viper) (*Config, error) {
	return load(v, v.ConfigFileUsed() != "")
}

func load(v *viper.Viper, explicit bool) (*Config, error) {
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the %q source", SourceFile)
		}
	case SourceHTTP:
		if c.Upstream.BaseURL == "" {
			return fmt.Errorf("upstream.base_url is required for the %q source", SourceHTTP)
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)

	v.SetDefault("catalog.source", SourceFile)
	v.SetDefault("catalog.path", "./data/items.json")

	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.timeout", 30)
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.max_requests_per_second", 10)
	v.SetDefault("upstream.breaker_cooldown", 60)
	v.SetDefault("upstream.proxies", []string{})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "catalog")
	v.SetDefault("database.user", "catalog_user")
	v.SetDefault("database.password", "catalog_pass")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key_prefix", "catalog:")
	v.SetDefault("redis.cache_ttl", 300)
	v.SetDefault("redis.cache_max_entries", 1000)
	v.SetDefault("redis.rate_limit", 100)
	v.SetDefault("redis.rate_window", 60)

	query := criteria.QueryDefaults()
	v.SetDefault("query.min_price", query.MinPrice)
	v.SetDefault("query.max_price", query.MaxPrice)
	v.SetDefault("query.stock_only", query.StockOnly)
	v.SetDefault("query.page_size", query.PageSize)
	v.SetDefault("query.max_page_size", query.MaxPageSize)

	window := criteria.WindowDefaults()
	v.SetDefault("window.min_price", window.MinPrice)
	v.SetDefault("window.max_price", window.MaxPrice)
	v.SetDefault("window.stock_only", window.StockOnly)
	v.SetDefault("window.page_size", window.PageSize)
	v.SetDefault("window.max_page_size", window.MaxPageSize)
	v.SetDefault("window.proximity", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
