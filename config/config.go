package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/medifocal/catalog/internal/logger"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Search    SearchConfig    `mapstructure:"search"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig selects and configures the product document store
type CatalogConfig struct {
	Driver           string `mapstructure:"driver"` // "memory", "sqlite" or "postgres"
	SQLitePath       string `mapstructure:"sqlite_path"`
	PostgresDSN      string `mapstructure:"postgres_dsn"`
	SeedFile         string `mapstructure:"seed_file"`
	ProvisionIndexes bool   `mapstructure:"provision_indexes"`
	ResolveScanLimit int    `mapstructure:"resolve_scan_limit"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type        string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL    string        `mapstructure:"redis_url"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	CategoryTTL time.Duration `mapstructure:"category_ttl"`
}

// StorageConfig holds object storage (product images) configuration
type StorageConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	CloudName    string `mapstructure:"cloud_name"`
	APIKey       string `mapstructure:"api_key"`
	APISecret    string `mapstructure:"api_secret"`
	FolderPrefix string `mapstructure:"folder_prefix"`
	RatePerHour  int    `mapstructure:"rate_per_hour"`
}

// SearchConfig holds result size limits
type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxResults   int `mapstructure:"max_results"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error (default: determined by environment)
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/medifocal/")

	// Environment variable settings: MEDIFOCAL_CATALOG_DRIVER -> catalog.driver
	v.SetEnvPrefix("MEDIFOCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads an optional .env file from the working directory.
// Variables already set in the environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Catalog defaults
	v.SetDefault("catalog.driver", "memory")
	v.SetDefault("catalog.sqlite_path", "./data/catalog.db")
	v.SetDefault("catalog.postgres_dsn", "")
	v.SetDefault("catalog.seed_file", "")
	v.SetDefault("catalog.provision_indexes", true)
	v.SetDefault("catalog.resolve_scan_limit", 1000)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "medifocal:")
	v.SetDefault("cache.category_ttl", "5m")

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.cloud_name", "")
	v.SetDefault("storage.api_key", "")
	v.SetDefault("storage.api_secret", "")
	v.SetDefault("storage.folder_prefix", "products")
	v.SetDefault("storage.rate_per_hour", 500)

	// Search defaults
	v.SetDefault("search.default_limit", 50)
	v.SetDefault("search.max_results", 200)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)

	// Logging defaults
	v.SetDefault("logging.level", "")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("server environment must be 'development', 'production' or 'test', got: %s", config.Server.Environment)
	}

	switch config.Catalog.Driver {
	case "memory":
	case "sqlite":
		if config.Catalog.SQLitePath == "" {
			return fmt.Errorf("SQLite path is required when catalog driver is 'sqlite'")
		}
	case "postgres":
		if config.Catalog.PostgresDSN == "" {
			return fmt.Errorf("Postgres DSN is required when catalog driver is 'postgres' (set MEDIFOCAL_CATALOG_POSTGRES_DSN)")
		}
	default:
		return fmt.Errorf("catalog driver must be 'memory', 'sqlite' or 'postgres', got: %s", config.Catalog.Driver)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Cache.CategoryTTL <= 0 {
		return fmt.Errorf("cache category_ttl must be positive, got: %s", config.Cache.CategoryTTL)
	}

	if config.Storage.Enabled {
		if config.Storage.CloudName == "" || config.Storage.APIKey == "" || config.Storage.APISecret == "" {
			return fmt.Errorf("storage cloud_name, api_key and api_secret are required when storage is enabled")
		}
	}

	if config.Search.DefaultLimit <= 0 || config.Search.MaxResults <= 0 {
		return fmt.Errorf("search limits must be positive")
	}
	if config.Search.DefaultLimit > config.Search.MaxResults {
		return fmt.Errorf("search default_limit (%d) exceeds max_results (%d)", config.Search.DefaultLimit, config.Search.MaxResults)
	}

	if config.Catalog.ResolveScanLimit <= 0 {
		return fmt.Errorf("catalog resolve_scan_limit must be positive")
	}

	if config.Logging.Level != "" {
		if _, err := logger.ParseLevel(config.Logging.Level); err != nil {
			return err
		}
	}

	return nil
}
