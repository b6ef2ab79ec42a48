package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medifocal/catalog/internal/domain"
	"github.com/medifocal/catalog/internal/logger"
	"github.com/medifocal/catalog/internal/metrics"
)

const (
	categoriesCacheKey = "catalog:categories"
	defaultMaxResults  = 200
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CategoryCacheTTL time.Duration
	ResolveScanLimit int
	// MaxResults caps every caller-supplied limit
	MaxResults int
}

// CatalogService serves the storefront's product and category reads.
// Store failures never reach callers: every operation degrades to an empty result.
type CatalogService struct {
	store       domain.CatalogStore
	cache       domain.CacheRepository
	resolver    *CategoryResolver
	normalizer  *ProductNormalizer
	categoryTTL time.Duration
	maxResults  int
	log         *zap.Logger
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(
	store domain.CatalogStore,
	cache domain.CacheRepository,
	images domain.ImageStore,
	config CatalogServiceConfig,
	log *zap.Logger,
) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}

	categoryTTL := config.CategoryCacheTTL
	if categoryTTL <= 0 {
		categoryTTL = defaultCategoryCacheTTL
	}

	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	resolver := NewCategoryResolver(store, cache, CategoryResolverConfig{
		ScanLimit: config.ResolveScanLimit,
		IndexTTL:  categoryTTL,
	}, log)

	return &CatalogService{
		store:       store,
		cache:       cache,
		resolver:    resolver,
		normalizer:  NewProductNormalizer(images, log),
		categoryTTL: categoryTTL,
		maxResults:  maxResults,
		log:         log,
	}
}

// Resolver exposes the category resolver used by the service
func (s *CatalogService) Resolver() *CategoryResolver {
	return s.resolver
}

// GetAllProducts returns one page of the active catalog, newest first.
// cursor is the lastDoc of the previous page.
func (s *CatalogService) GetAllProducts(ctx context.Context, pageSize int, cursor string) domain.ProductPage {
	log := logger.FromContext(ctx, s.log)
	empty := domain.ProductPage{Products: []domain.Product{}}

	if pageSize <= 0 {
		log.Warn("product page requested with non-positive size", zap.Int("pageSize", pageSize))
		return empty
	}
	pageSize = s.AppliedLimit(pageSize)

	q := domain.ActiveQuery()
	q.OrderByUpdated = true
	q.Limit = pageSize + 1
	q.StartAfter = cursor

	raws, err := s.store.QueryProducts(ctx, q)
	if errors.Is(err, domain.ErrIndexNotReady) && cursor == "" {
		metrics.IncIndexFallback("all_products")
		q.OrderByUpdated = false
		raws, err = s.store.QueryProducts(ctx, q)
	}
	if err != nil {
		metrics.IncStoreError("all_products")
		logStoreError(log, "all products", err)
		return empty
	}

	hasMore := len(raws) > pageSize
	if hasMore {
		raws = raws[:pageSize]
	}

	page := domain.ProductPage{
		Products: s.normalizer.NormalizeAll(ctx, raws, true),
		HasMore:  hasMore,
	}
	if len(raws) > 0 {
		page.LastDoc = raws[len(raws)-1].ID
	}
	return page
}

// GetProductsByCategory lists active products of a leaf category, newest first
func (s *CatalogService) GetProductsByCategory(ctx context.Context, name string, maxResults int) []domain.Product {
	return s.listByCategoryField(ctx, domain.FieldCategory, name, maxResults)
}

// GetProductsByParentCategory lists active products of a top-level category, newest first
func (s *CatalogService) GetProductsByParentCategory(ctx context.Context, name string, maxResults int) []domain.Product {
	return s.listByCategoryField(ctx, domain.FieldParentCategory, name, maxResults)
}

func (s *CatalogService) listByCategoryField(ctx context.Context, field domain.Field, name string, maxResults int) []domain.Product {
	log := logger.FromContext(ctx, s.log)

	name = strings.TrimSpace(name)
	if name == "" || maxResults <= 0 {
		log.Warn("category listing called with invalid input",
			zap.String("field", string(field)), zap.String("name", name), zap.Int("maxResults", maxResults))
		return []domain.Product{}
	}

	resolved, ok := s.resolver.Resolve(ctx, name, field)
	if !ok {
		resolved = name
	}

	q := domain.ActiveQuery(domain.Filter{Field: field, Value: resolved})
	q.Limit = s.AppliedLimit(maxResults)
	raws := s.queryOrdered(ctx, "by_"+string(field), q)

	return s.normalizer.NormalizeAll(ctx, raws, true)
}

// GetFeaturedProducts lists active featured products, newest first
func (s *CatalogService) GetFeaturedProducts(ctx context.Context, limit int) []domain.Product {
	return s.listByFlag(ctx, domain.FieldFeatured, limit)
}

// GetClearanceProducts lists active clearance products, newest first
func (s *CatalogService) GetClearanceProducts(ctx context.Context, maxResults int) []domain.Product {
	return s.listByFlag(ctx, domain.FieldClearance, maxResults)
}

func (s *CatalogService) listByFlag(ctx context.Context, field domain.Field, limit int) []domain.Product {
	if limit <= 0 {
		logger.FromContext(ctx, s.log).Warn("flag listing called with non-positive limit",
			zap.String("field", string(field)), zap.Int("limit", limit))
		return []domain.Product{}
	}

	q := domain.ActiveQuery(domain.Filter{Field: field, Value: true})
	q.Limit = s.AppliedLimit(limit)
	raws := s.queryOrdered(ctx, string(field), q)

	return s.normalizer.NormalizeAll(ctx, raws, true)
}

// queryOrdered runs q ordered by updatedAt. A missing index is retried once
// without ordering; any other failure yields no products.
func (s *CatalogService) queryOrdered(ctx context.Context, operation string, q domain.ProductQuery) []domain.Product {
	log := logger.FromContext(ctx, s.log)

	q.OrderByUpdated = true
	raws, err := s.store.QueryProducts(ctx, q)
	if errors.Is(err, domain.ErrIndexNotReady) {
		metrics.IncIndexFallback(operation)
		log.Info("index not ready, retrying unordered", zap.String("operation", operation))
		q.OrderByUpdated = false
		raws, err = s.store.QueryProducts(ctx, q)
	}
	if err != nil {
		metrics.IncStoreError(operation)
		logStoreError(log, operation, err)
		return nil
	}
	return raws
}

// GetProductByID looks a product up by storage key, then by item number
func (s *CatalogService) GetProductByID(ctx context.Context, id string) (domain.Product, bool) {
	log := logger.FromContext(ctx, s.log)

	id = strings.TrimSpace(id)
	if id == "" {
		log.Warn("product lookup called with empty id")
		return domain.Product{}, false
	}

	raw, err := s.store.GetProduct(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
		metrics.IncStoreError("product_by_id")
		logStoreError(log, "product by id", err)
		return domain.Product{}, false
	}

	if raw == nil || !raw.Active {
		q := domain.ActiveQuery(domain.Filter{Field: domain.FieldItemNumber, Value: id})
		q.Limit = 1
		hits, err := s.store.QueryProducts(ctx, q)
		if err != nil {
			metrics.IncStoreError("product_by_item_number")
			logStoreError(log, "product by item number", err)
			return domain.Product{}, false
		}
		if len(hits) == 0 {
			return domain.Product{}, false
		}
		raw = &hits[0]
	}

	return s.normalizer.Normalize(ctx, *raw, true)
}

// SearchProducts ranks the whole active catalog against a free-text query
// and returns the best maxResults products. Images are not loaded from
// object storage for search results.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, maxResults int) []domain.Product {
	log := logger.FromContext(ctx, s.log)
	start := time.Now()

	q, ok := ParseSearchQuery(query)
	if !ok || maxResults <= 0 {
		log.Warn("search called with invalid input", zap.String("query", query), zap.Int("maxResults", maxResults))
		return []domain.Product{}
	}
	maxResults = s.AppliedLimit(maxResults)

	raws, err := s.store.QueryProducts(ctx, domain.ActiveQuery())
	if err != nil {
		metrics.IncStoreError("search")
		logStoreError(log, "search catalog scan", err)
		return []domain.Product{}
	}

	results := RankProducts(q, s.normalizer.NormalizeAll(ctx, raws, false), maxResults)

	metrics.ObserveSearch(time.Since(start), len(results))
	log.Debug("search completed",
		zap.String("query", q.Text),
		zap.Int("scanned", len(raws)),
		zap.Int("returned", len(results)),
		zap.Duration("took", time.Since(start)))

	return results
}

// RankProducts scores products, drops non-matches and returns the top maxResults
// by descending score. Equal scores keep their input order.
func RankProducts(q SearchQuery, products []domain.Product, maxResults int) []domain.Product {
	type scored struct {
		product domain.Product
		score   int
	}

	matches := make([]scored, 0, len(products))
	for i := range products {
		if score := ScoreProduct(q, &products[i]); score > 0 {
			matches = append(matches, scored{product: products[i], score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if maxResults >= 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	out := make([]domain.Product, len(matches))
	for i, m := range matches {
		out[i] = m.product
	}
	return out
}

// GetCategories returns every top-level category with its subcategory groups.
// With useCache the cached map is served while fresh; without it the map is
// rebuilt and the cache refreshed.
func (s *CatalogService) GetCategories(ctx context.Context, useCache bool) map[string][]domain.SubCategoryGroup {
	log := logger.FromContext(ctx, s.log)

	if useCache && s.cache != nil {
		data, err := s.cache.Get(ctx, categoriesCacheKey)
		if err == nil {
			var cached map[string][]domain.SubCategoryGroup
			if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
				return cached
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			log.Warn("categories cache read failed", zap.Error(err))
		}
	}

	records, err := s.store.ListCategories(ctx)
	if err != nil {
		metrics.IncStoreError("categories")
		logStoreError(log, "list categories", err)
		return map[string][]domain.SubCategoryGroup{}
	}

	products, err := s.store.QueryProducts(ctx, domain.ActiveQuery())
	if err != nil {
		// Records alone are still worth serving
		logStoreError(log, "categories product scan", err)
		products = nil
	}
	inferred := inferSubcategories(products)

	result := make(map[string][]domain.SubCategoryGroup, len(records))
	for i := range records {
		groups := records[i].Groups()
		if len(groups) == 0 {
			groups = inferred[records[i].Name]
		}
		if groups == nil {
			groups = []domain.SubCategoryGroup{}
		}
		result[records[i].Name] = groups
	}
	for parent, groups := range inferred {
		if _, ok := result[parent]; !ok {
			result[parent] = groups
		}
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, categoriesCacheKey, data, s.categoryTTL); err != nil {
				log.Warn("categories cache write failed", zap.Error(err))
			}
		}
	}

	return result
}

// GetCategoryByName finds a category record by name, ignoring case. Parent
// categories that only exist on products are synthesized from them.
func (s *CatalogService) GetCategoryByName(ctx context.Context, name string) (domain.Category, bool) {
	log := logger.FromContext(ctx, s.log)

	name = strings.TrimSpace(name)
	if name == "" {
		log.Warn("category lookup called with empty name")
		return domain.Category{}, false
	}

	records, err := s.store.ListCategories(ctx)
	if err != nil {
		metrics.IncStoreError("category_by_name")
		logStoreError(log, "category by name", err)
		return domain.Category{}, false
	}

	if rec, ok := findCategory(records, name); ok {
		if len(rec.Groups()) == 0 {
			rec.SubCategoryGroups = s.inferFor(ctx, rec.Name)
		}
		return rec, true
	}

	parent, ok := s.resolver.Resolve(ctx, name, domain.FieldParentCategory)
	if !ok {
		return domain.Category{}, false
	}
	groups := s.inferFor(ctx, parent)
	if len(groups) == 0 {
		return domain.Category{}, false
	}
	return domain.Category{Name: parent, SubCategoryGroups: groups, Inferred: true}, true
}

// InvalidateCategoryCache drops the cached category map and name index
func (s *CatalogService) InvalidateCategoryCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, categoriesCacheKey); err != nil {
		return err
	}
	return s.resolver.Invalidate(ctx)
}

func (s *CatalogService) inferFor(ctx context.Context, parent string) []domain.SubCategoryGroup {
	products, err := s.store.QueryProducts(ctx,
		domain.ActiveQuery(domain.Filter{Field: domain.FieldParentCategory, Value: parent}))
	if err != nil {
		logStoreError(logger.FromContext(ctx, s.log), "infer subcategories", err)
		return nil
	}
	return inferSubcategories(products)[parent]
}

// AppliedLimit is the result limit actually used for a requested one. Requests
// above search.max_results are capped.
func (s *CatalogService) AppliedLimit(limit int) int {
	if limit > s.maxResults {
		return s.maxResults
	}
	return limit
}

// findCategory matches exactly first, then case-insensitively
func findCategory(records []domain.Category, name string) (domain.Category, bool) {
	for _, rec := range records {
		if rec.Name == name {
			return rec, true
		}
	}
	folded := foldName(name)
	for _, rec := range records {
		if foldName(rec.Name) == folded {
			return rec, true
		}
	}
	return domain.Category{}, false
}

// inferSubcategories groups the distinct leaf categories of products under
// their parent category, one group per parent, items sorted by name
func inferSubcategories(products []domain.Product) map[string][]domain.SubCategoryGroup {
	leaves := make(map[string]map[string]bool)
	for i := range products {
		p := &products[i]
		if p.ParentCategory == "" || p.Category == "" || IsExcludedManufacturer(p.Manufacturer) {
			continue
		}
		if leaves[p.ParentCategory] == nil {
			leaves[p.ParentCategory] = make(map[string]bool)
		}
		leaves[p.ParentCategory][p.Category] = true
	}

	out := make(map[string][]domain.SubCategoryGroup, len(leaves))
	for parent, set := range leaves {
		items := make([]string, 0, len(set))
		for leaf := range set {
			items = append(items, leaf)
		}
		sort.Strings(items)
		out[parent] = []domain.SubCategoryGroup{{Title: parent, Items: items}}
	}
	return out
}
