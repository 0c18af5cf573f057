package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Source  SourceConfig
	Cache   CacheConfig
	Catalog CatalogConfig
	Images  ImagesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
// Version doubles as the schema version stamped on every cache entry.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"yoyodex"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"2.0.9"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""` // Admin endpoints key
}

// SourceConfig holds the remote data source endpoints.
type SourceConfig struct {
	ItemsURL  string        `envconfig:"SOURCE_ITEMS_URL" default:"https://script.google.com/macros/s/AKfycby-6xXDgtZIaMa0-SV5kmNwDIh5IbCyvCH8bjgs22eUVu4HbtX6RiOYItejI5fMzJywzQ/exec?sheet=yoyos"`
	SpecsURL  string        `envconfig:"SOURCE_SPECS_URL" default:"https://script.google.com/macros/s/AKfycby-6xXDgtZIaMa0-SV5kmNwDIh5IbCyvCH8bjgs22eUVu4HbtX6RiOYItejI5fMzJywzQ/exec?sheet=specs"`
	Timeout   time.Duration `envconfig:"SOURCE_TIMEOUT" default:"0s"` // 0 = no timeout
	UserAgent string        `envconfig:"SOURCE_USER_AGENT" default:"g2-yoyodex/2"`
}

// CacheConfig holds storage and cache settings.
type CacheConfig struct {
	Type           string        `envconfig:"CACHE_TYPE" default:"sqlite"` // memory, sqlite, redis, postgres, mysql
	MaxAge         time.Duration `envconfig:"CACHE_MAX_AGE" default:"24h"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SweepInterval  time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"10m"`
	FastPathLength bool          `envconfig:"CACHE_FAST_PATH_LENGTH" default:"false"`

	SQLitePath string `envconfig:"SQLITE_PATH" default:"./data/yoyodex.db"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// PostgreSQL settings
	PostgresHost     string `envconfig:"PG_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"PG_PORT" default:"5432"`
	PostgresName     string `envconfig:"PG_NAME" default:"yoyodex"`
	PostgresUser     string `envconfig:"PG_USER" default:"postgres"`
	PostgresPassword string `envconfig:"PG_PASS" default:""`
	PostgresSSLMode  string `envconfig:"PG_SSLMODE" default:"disable"`

	// MySQL settings
	MySQLHost     string `envconfig:"MYSQL_HOST" default:"localhost"`
	MySQLPort     int    `envconfig:"MYSQL_PORT" default:"3306"`
	MySQLName     string `envconfig:"MYSQL_NAME" default:"yoyodex"`
	MySQLUser     string `envconfig:"MYSQL_USER" default:"root"`
	MySQLPassword string `envconfig:"MYSQL_PASS" default:""`
}

// CatalogConfig holds query and refresh behaviour.
type CatalogConfig struct {
	PlaceholderImage string        `envconfig:"CATALOG_PLACEHOLDER_IMAGE" default:"assets/placeholder.jpg"`
	DefaultPageSize  int           `envconfig:"CATALOG_PAGE_SIZE" default:"12"`
	RefreshDebounce  time.Duration `envconfig:"CATALOG_REFRESH_DEBOUNCE" default:"300ms"`
	RefreshInterval  time.Duration `envconfig:"CATALOG_REFRESH_INTERVAL" default:"0s"` // 0 = manual only
}

// ImagesConfig holds image mirroring settings.
type ImagesConfig struct {
	Dir           string        `envconfig:"IMAGES_DIR" default:"./assets"`
	Workers       int           `envconfig:"IMAGES_WORKERS" default:"10"`
	Retries       int           `envconfig:"IMAGES_RETRIES" default:"3"`
	RetryDelay    time.Duration `envconfig:"IMAGES_RETRY_DELAY" default:"2s"`
	RatePerSecond float64       `envconfig:"IMAGES_RATE" default:"5"`
	ThumbWidth    int           `envconfig:"IMAGES_THUMB_WIDTH" default:"0"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *CacheConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresName, c.PostgresSSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (c *CacheConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLName)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// SchemaVersion returns the canonical form of the app version.
func (a *AppConfig) SchemaVersion() string {
	v, err := semver.NewVersion(a.Version)
	if err != nil {
		return strings.TrimSpace(a.Version)
	}
	return v.String()
}

var cacheTypes = map[string]bool{
	"memory":     true,
	"sqlite":     true,
	"redis":      true,
	"postgres":   true,
	"postgresql": true,
	"mysql":      true,
}

// Validate checks values envconfig cannot check on its own.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.App.Name) == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if _, err := semver.NewVersion(c.App.Version); err != nil {
		return fmt.Errorf("APP_VERSION %q is not a semantic version: %w", c.App.Version, err)
	}
	if !cacheTypes[strings.ToLower(c.Cache.Type)] {
		return fmt.Errorf("unsupported CACHE_TYPE %q", c.Cache.Type)
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("CACHE_MAX_AGE must be positive")
	}
	if c.Catalog.DefaultPageSize <= 0 {
		return fmt.Errorf("CATALOG_PAGE_SIZE must be positive")
	}
	if c.Images.Workers <= 0 {
		return fmt.Errorf("IMAGES_WORKERS must be positive")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
