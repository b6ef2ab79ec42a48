package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medifocal/catalog/internal/domain"
	"github.com/medifocal/catalog/internal/logger"
)

const (
	categoryIndexCacheKey   = "catalog:category-index"
	defaultResolveScanLimit = 1000
	defaultCategoryCacheTTL = 5 * time.Minute
)

// CategoryResolverConfig holds configuration for the category resolver
type CategoryResolverConfig struct {
	// ScanLimit bounds how many active products are read to build the index
	ScanLimit int
	// IndexTTL is how long a built index is reused
	IndexTTL time.Duration
}

// CategoryResolver maps user or URL supplied category names to the exact
// strings stored on products
type CategoryResolver struct {
	store     domain.CatalogStore
	cache     domain.CacheRepository
	scanLimit int
	indexTTL  time.Duration
	log       *zap.Logger
}

// categoryIndex maps case-folded names to stored names, per field
type categoryIndex struct {
	Category       map[string]string `json:"category"`
	ParentCategory map[string]string `json:"parentCategory"`
}

func (idx *categoryIndex) lookup(field domain.Field, key string) (string, bool) {
	var m map[string]string
	if field == domain.FieldParentCategory {
		m = idx.ParentCategory
	} else {
		m = idx.Category
	}
	v, ok := m[key]
	return v, ok
}

// NewCategoryResolver creates a resolver backed by store, caching its
// canonical-name index in cache
func NewCategoryResolver(
	store domain.CatalogStore,
	cache domain.CacheRepository,
	config CategoryResolverConfig,
	log *zap.Logger,
) *CategoryResolver {
	scanLimit := config.ScanLimit
	if scanLimit <= 0 {
		scanLimit = defaultResolveScanLimit
	}
	ttl := config.IndexTTL
	if ttl <= 0 {
		ttl = defaultCategoryCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &CategoryResolver{
		store:     store,
		cache:     cache,
		scanLimit: scanLimit,
		indexTTL:  ttl,
		log:       log,
	}
}

// Resolve returns the stored spelling of searchName for the given field.
// ok is false when no product carries the name in any casing; callers then
// use searchName as given.
func (r *CategoryResolver) Resolve(ctx context.Context, searchName string, field domain.Field) (string, bool) {
	log := logger.FromContext(ctx, r.log)

	if strings.TrimSpace(searchName) == "" {
		log.Warn("category resolve called with empty name", zap.String("field", string(field)))
		return "", false
	}
	if field != domain.FieldCategory && field != domain.FieldParentCategory {
		log.Warn("category resolve called with unsupported field", zap.String("field", string(field)))
		return "", false
	}

	exact := domain.ActiveQuery(domain.Filter{Field: field, Value: searchName})
	exact.Limit = 1
	hits, err := r.store.QueryProducts(ctx, exact)
	if err != nil {
		logStoreError(log, "resolve exact match", err)
		return "", false
	}
	if len(hits) > 0 {
		return searchName, true
	}

	idx, err := r.index(ctx)
	if err != nil {
		logStoreError(log, "resolve index scan", err)
		return "", false
	}

	return idx.lookup(field, foldName(searchName))
}

// Invalidate drops the cached index so the next miss rescans
func (r *CategoryResolver) Invalidate(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, categoryIndexCacheKey)
}

// index returns the cached canonical-name index, building it on a miss
func (r *CategoryResolver) index(ctx context.Context) (*categoryIndex, error) {
	if r.cache != nil {
		data, err := r.cache.Get(ctx, categoryIndexCacheKey)
		if err == nil {
			var idx categoryIndex
			if jsonErr := json.Unmarshal(data, &idx); jsonErr == nil {
				return &idx, nil
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			logger.FromContext(ctx, r.log).Warn("category index cache read failed", zap.Error(err))
		}
	}

	scan := domain.ActiveQuery()
	scan.Limit = r.scanLimit
	products, err := r.store.QueryProducts(ctx, scan)
	if err != nil {
		return nil, err
	}

	idx := buildCategoryIndex(products)

	if r.cache != nil {
		data, err := json.Marshal(idx)
		if err == nil {
			err = r.cache.Set(ctx, categoryIndexCacheKey, data, r.indexTTL)
		}
		if err != nil {
			// Still usable for this request
			logger.FromContext(ctx, r.log).Warn("category index cache write failed", zap.Error(err))
		}
	}

	return idx, nil
}

// buildCategoryIndex keeps the first stored spelling seen for each folded name
func buildCategoryIndex(products []domain.Product) *categoryIndex {
	idx := &categoryIndex{
		Category:       make(map[string]string),
		ParentCategory: make(map[string]string),
	}
	for i := range products {
		addFirst(idx.Category, products[i].Category)
		addFirst(idx.ParentCategory, products[i].ParentCategory)
	}
	return idx
}

func addFirst(m map[string]string, value string) {
	if value == "" {
		return
	}
	key := foldName(value)
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

// foldName is the case-insensitive comparison key for category names
func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// logStoreError logs a degraded store failure. Client timeouts are retried by
// the store driver and only logged at debug.
func logStoreError(log *zap.Logger, operation string, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Debug("catalog query timed out", zap.String("operation", operation), zap.Error(err))
		return
	}
	log.Warn("catalog query failed", zap.String("operation", operation), zap.Error(err))
}
