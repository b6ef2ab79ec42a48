// Package bootstrap builds the infrastructure selected by configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/medifocal/catalog/config"
	"github.com/medifocal/catalog/internal/domain"
	"github.com/medifocal/catalog/internal/infrastructure/cache"
	"github.com/medifocal/catalog/internal/infrastructure/catalog"
	"github.com/medifocal/catalog/internal/infrastructure/storage"
	"github.com/medifocal/catalog/internal/usecase"
)

// Deps holds the wired infrastructure
type Deps struct {
	Store   domain.CatalogStore
	Writer  domain.CatalogWriter
	Cache   domain.CacheRepository
	Images  domain.ImageStore
	closers []func() error
}

// Build opens the catalog store, cache and image store named in cfg
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Deps, error) {
	d := &Deps{}

	if err := d.openStore(ctx, cfg.Catalog, log); err != nil {
		_ = d.Close()
		return nil, err
	}

	switch cfg.Cache.Type {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.KeyPrefix)
		if err != nil {
			_ = d.Close()
			return nil, err
		}
		d.Cache = rc
		d.closers = append(d.closers, rc.Close)
	default:
		mc := cache.NewMemoryCache()
		d.Cache = mc
		d.closers = append(d.closers, mc.Close)
	}
	log.Info("cache ready", zap.String("type", cfg.Cache.Type), zap.Duration("category_ttl", cfg.Cache.CategoryTTL))

	if cfg.Storage.Enabled {
		images, err := storage.NewCloudinaryImages(storage.Config{
			CloudName:    cfg.Storage.CloudName,
			APIKey:       cfg.Storage.APIKey,
			APISecret:    cfg.Storage.APISecret,
			FolderPrefix: cfg.Storage.FolderPrefix,
			RatePerHour:  cfg.Storage.RatePerHour,
		})
		if err != nil {
			_ = d.Close()
			return nil, err
		}
		d.Images = images
		log.Info("image storage enabled", zap.String("folder_prefix", cfg.Storage.FolderPrefix))
	} else {
		log.Info("image storage disabled, products without images stay imageless")
	}

	return d, nil
}

func (d *Deps) openStore(ctx context.Context, cfg config.CatalogConfig, log *zap.Logger) error {
	switch cfg.Driver {
	case "sqlite":
		s, err := catalog.OpenSQLite(ctx, catalog.SQLiteConfig{
			Path:             cfg.SQLitePath,
			ProvisionIndexes: cfg.ProvisionIndexes,
		})
		if err != nil {
			return err
		}
		d.Store, d.Writer = s, s
	case "postgres":
		s, err := catalog.OpenPostgres(ctx, catalog.PostgresConfig{
			DSN:              cfg.PostgresDSN,
			ProvisionIndexes: cfg.ProvisionIndexes,
		})
		if err != nil {
			return err
		}
		d.Store, d.Writer = s, s
	case "memory":
		s := catalog.NewMemoryStore(nil, nil)
		d.Store, d.Writer = s, s
	default:
		return fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
	d.closers = append(d.closers, d.Store.Close)

	if cfg.SeedFile != "" {
		seed, err := catalog.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := Import(ctx, d.Writer, seed); err != nil {
			return err
		}
		log.Info("catalog seeded",
			zap.String("file", cfg.SeedFile),
			zap.Int("products", len(seed.Products)),
			zap.Int("categories", len(seed.Categories)))
	}

	log.Info("catalog store ready", zap.String("driver", cfg.Driver))
	return nil
}

// Import writes a seed into the store
func Import(ctx context.Context, w domain.CatalogWriter, seed *catalog.Seed) error {
	if err := w.UpsertProducts(ctx, seed.Products); err != nil {
		return fmt.Errorf("import products: %w", err)
	}
	if err := w.UpsertCategories(ctx, seed.Categories); err != nil {
		return fmt.Errorf("import categories: %w", err)
	}
	return nil
}

// CatalogService builds the catalog usecase over the wired infrastructure
func (d *Deps) CatalogService(cfg *config.Config, log *zap.Logger) *usecase.CatalogService {
	return usecase.NewCatalogService(d.Store, d.Cache, d.Images, usecase.CatalogServiceConfig{
		CategoryCacheTTL: cfg.Cache.CategoryTTL,
		ResolveScanLimit: cfg.Catalog.ResolveScanLimit,
		MaxResults:       cfg.Search.MaxResults,
	}, log)
}

// Close releases everything in reverse order of opening
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
