package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// isolate runs the test from an empty directory so no config.yaml or .env is picked up
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "MEDIFOCAL_") {
			key := kv[:strings.Index(kv, "=")]
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		isolate(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Catalog.Driver != "memory" {
			t.Errorf("Catalog.Driver = %s, want memory", cfg.Catalog.Driver)
		}
		if !cfg.Catalog.ProvisionIndexes {
			t.Errorf("Catalog.ProvisionIndexes = false, want true")
		}
		if cfg.Catalog.ResolveScanLimit != 1000 {
			t.Errorf("Catalog.ResolveScanLimit = %d, want 1000", cfg.Catalog.ResolveScanLimit)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.CategoryTTL != 5*time.Minute {
			t.Errorf("Cache.CategoryTTL = %v, want 5m", cfg.Cache.CategoryTTL)
		}
		if cfg.Storage.Enabled {
			t.Errorf("Storage.Enabled = true, want false")
		}
		if cfg.Search.DefaultLimit != 50 || cfg.Search.MaxResults != 200 {
			t.Errorf("Search = %+v, want default 50 max 200", cfg.Search)
		}
		if cfg.RateLimit.PerIP != 120 {
			t.Errorf("RateLimit.PerIP = %d, want 120", cfg.RateLimit.PerIP)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		isolate(t)
		t.Setenv("MEDIFOCAL_SERVER_PORT", "9090")
		t.Setenv("MEDIFOCAL_SERVER_ENVIRONMENT", "production")
		t.Setenv("MEDIFOCAL_CATALOG_DRIVER", "postgres")
		t.Setenv("MEDIFOCAL_CATALOG_POSTGRES_DSN", "postgres://u:p@localhost:5432/catalog")
		t.Setenv("MEDIFOCAL_CACHE_TYPE", "redis")
		t.Setenv("MEDIFOCAL_CACHE_REDIS_URL", "redis://localhost:6379/0")
		t.Setenv("MEDIFOCAL_CACHE_CATEGORY_TTL", "30s")
		t.Setenv("MEDIFOCAL_STORAGE_ENABLED", "true")
		t.Setenv("MEDIFOCAL_STORAGE_CLOUD_NAME", "medifocal")
		t.Setenv("MEDIFOCAL_STORAGE_API_KEY", "key")
		t.Setenv("MEDIFOCAL_STORAGE_API_SECRET", "secret")
		t.Setenv("MEDIFOCAL_RATELIMIT_PER_IP", "200")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Catalog.Driver != "postgres" {
			t.Errorf("Catalog.Driver = %s, want postgres", cfg.Catalog.Driver)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379/0" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379/0", cfg.Cache.RedisURL)
		}
		if cfg.Cache.CategoryTTL != 30*time.Second {
			t.Errorf("Cache.CategoryTTL = %v, want 30s", cfg.Cache.CategoryTTL)
		}
		if !cfg.Storage.Enabled || cfg.Storage.CloudName != "medifocal" {
			t.Errorf("Storage = %+v, want enabled for medifocal", cfg.Storage)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("reads config.yaml", func(t *testing.T) {
		isolate(t)
		yaml := `
catalog:
  driver: sqlite
  sqlite_path: ./catalog.db
search:
  default_limit: 20
`
		if err := os.WriteFile("config.yaml", []byte(yaml), 0o644); err != nil {
			t.Fatalf("write config.yaml: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Catalog.Driver != "sqlite" || cfg.Catalog.SQLitePath != "./catalog.db" {
			t.Errorf("Catalog = %+v, want sqlite at ./catalog.db", cfg.Catalog)
		}
		if cfg.Search.DefaultLimit != 20 {
			t.Errorf("Search.DefaultLimit = %d, want 20", cfg.Search.DefaultLimit)
		}
	})

	t.Run("fails validation for postgres without DSN", func(t *testing.T) {
		isolate(t)
		t.Setenv("MEDIFOCAL_CATALOG_DRIVER", "postgres")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing DSN")
		}
		if !strings.Contains(err.Error(), "MEDIFOCAL_CATALOG_POSTGRES_DSN") {
			t.Errorf("Load() error = %v, want hint about MEDIFOCAL_CATALOG_POSTGRES_DSN", err)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		isolate(t)
		t.Setenv("MEDIFOCAL_CACHE_TYPE", "invalid")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		isolate(t)
		t.Setenv("MEDIFOCAL_CACHE_TYPE", "redis")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		t.Chdir(t.TempDir())

		envContent := `
# Comment line
MEDIFOCAL_TEST_VAR_1=value1
MEDIFOCAL_TEST_VAR_2=value2
# MEDIFOCAL_TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv("MEDIFOCAL_TEST_VAR_1")
			os.Unsetenv("MEDIFOCAL_TEST_VAR_2")
		})

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if got := os.Getenv("MEDIFOCAL_TEST_VAR_1"); got != "value1" {
			t.Errorf("MEDIFOCAL_TEST_VAR_1 = %s, want value1", got)
		}
		if got := os.Getenv("MEDIFOCAL_TEST_VAR_2"); got != "value2" {
			t.Errorf("MEDIFOCAL_TEST_VAR_2 = %s, want value2", got)
		}
		if got := os.Getenv("MEDIFOCAL_TEST_COMMENTED"); got != "" {
			t.Errorf("MEDIFOCAL_TEST_COMMENTED = %s, should not be loaded from comment", got)
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("MEDIFOCAL_TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("MEDIFOCAL_TEST_OVERRIDE=new-value"), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if got := os.Getenv("MEDIFOCAL_TEST_OVERRIDE"); got != "existing-value" {
			t.Errorf("MEDIFOCAL_TEST_OVERRIDE = %s, want existing-value (should not override)", got)
		}
	})
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080", Environment: "test"},
		Catalog: CatalogConfig{Driver: "memory", ResolveScanLimit: 1000},
		Cache:   CacheConfig{Type: "memory", CategoryTTL: 5 * time.Minute},
		Search:  SearchConfig{DefaultLimit: 50, MaxResults: 200},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"unknown environment", func(c *Config) { c.Server.Environment = "staging" }, true},
		{"unknown driver", func(c *Config) { c.Catalog.Driver = "mongo" }, true},
		{"sqlite without path", func(c *Config) { c.Catalog.Driver = "sqlite" }, true},
		{"sqlite with path", func(c *Config) { c.Catalog.Driver = "sqlite"; c.Catalog.SQLitePath = "x.db" }, false},
		{"invalid cache type", func(c *Config) { c.Cache.Type = "invalid-type" }, true},
		{"redis with URL", func(c *Config) { c.Cache.Type = "redis"; c.Cache.RedisURL = "redis://localhost:6379" }, false},
		{"redis without URL", func(c *Config) { c.Cache.Type = "redis" }, true},
		{"zero category ttl", func(c *Config) { c.Cache.CategoryTTL = 0 }, true},
		{"storage without credentials", func(c *Config) { c.Storage.Enabled = true; c.Storage.CloudName = "x" }, true},
		{"default limit above max", func(c *Config) { c.Search.DefaultLimit = 500 }, true},
		{"zero scan limit", func(c *Config) { c.Catalog.ResolveScanLimit = 0 }, true},
		{"warning level alias", func(c *Config) { c.Logging.Level = "Warning" }, false},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"fatal log level", func(c *Config) { c.Logging.Level = "fatal" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
