package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medifocal/catalog/internal/domain"
	"github.com/medifocal/catalog/internal/usecase"
)

const (
	serviceName    = "medifocal-catalog"
	serviceVersion = "1.0.0"
)

// CatalogReader is what the handlers need from the catalog usecase
type CatalogReader interface {
	GetAllProducts(ctx context.Context, pageSize int, cursor string) domain.ProductPage
	GetProductsByCategory(ctx context.Context, name string, maxResults int) []domain.Product
	GetProductsByParentCategory(ctx context.Context, name string, maxResults int) []domain.Product
	GetFeaturedProducts(ctx context.Context, limit int) []domain.Product
	GetClearanceProducts(ctx context.Context, maxResults int) []domain.Product
	GetProductByID(ctx context.Context, id string) (domain.Product, bool)
	SearchProducts(ctx context.Context, query string, maxResults int) []domain.Product
	GetCategories(ctx context.Context, useCache bool) map[string][]domain.SubCategoryGroup
	GetCategoryByName(ctx context.Context, name string) (domain.Category, bool)
	InvalidateCategoryCache(ctx context.Context) error
	AppliedLimit(limit int) int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog      CatalogReader
	defaultLimit int
}

// NewHandler creates a new HTTP handler. A nil catalog answers 501 on catalog routes.
func NewHandler(catalog CatalogReader, defaultLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &Handler{catalog: catalog, defaultLimit: defaultLimit}
}

// listResponse is the body of every product list endpoint. Limit is the
// limit the catalog applied, which may be lower than the one requested.
type listResponse struct {
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
	Limit    int              `json:"limit"`
	Facets   domain.Facets    `json:"facets"`
}

func newListResponse(products []domain.Product, limit int) listResponse {
	return listResponse{
		Products: products,
		Count:    len(products),
		Limit:    limit,
		Facets:   usecase.BuildFacets(products),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// ListProducts pages through the active catalog
func (h *Handler) ListProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	pageSize, ok := h.limitParam(c, "pageSize")
	if !ok {
		return
	}

	page := h.catalog.GetAllProducts(c.Request.Context(), pageSize, c.Query("cursor"))
	c.JSON(http.StatusOK, gin.H{
		"products": page.Products,
		"lastDoc":  page.LastDoc,
		"hasMore":  page.HasMore,
		"count":    len(page.Products),
		"limit":    pageSize,
		"facets":   usecase.BuildFacets(page.Products),
	})
}

// SearchProducts runs a relevance search
func (h *Handler) SearchProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}
	limit, ok := h.limitParam(c, "limit")
	if !ok {
		return
	}

	products := h.catalog.SearchProducts(c.Request.Context(), query, limit)
	c.JSON(http.StatusOK, gin.H{
		"query":    query,
		"products": products,
		"count":    len(products),
		"limit":    limit,
		"facets":   usecase.BuildFacets(products),
	})
}

// FeaturedProducts lists featured products
func (h *Handler) FeaturedProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit, ok := h.limitParam(c, "limit")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newListResponse(h.catalog.GetFeaturedProducts(c.Request.Context(), limit), limit))
}

// ClearanceProducts lists clearance products
func (h *Handler) ClearanceProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit, ok := h.limitParam(c, "limit")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newListResponse(h.catalog.GetClearanceProducts(c.Request.Context(), limit), limit))
}

// GetProduct returns one product by id or item number
func (h *Handler) GetProduct(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	product, found := h.catalog.GetProductByID(c.Request.Context(), c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrProductNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

// CategoryProducts lists products of a leaf category
func (h *Handler) CategoryProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit, ok := h.limitParam(c, "limit")
	if !ok {
		return
	}
	products := h.catalog.GetProductsByCategory(c.Request.Context(), c.Param("name"), limit)
	c.JSON(http.StatusOK, newListResponse(products, limit))
}

// ParentCategoryProducts lists products of a top-level category
func (h *Handler) ParentCategoryProducts(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit, ok := h.limitParam(c, "limit")
	if !ok {
		return
	}
	products := h.catalog.GetProductsByParentCategory(c.Request.Context(), c.Param("name"), limit)
	c.JSON(http.StatusOK, newListResponse(products, limit))
}

// ListCategories returns the category tree. ?cache=false forces a rebuild.
func (h *Handler) ListCategories(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	useCache := true
	if raw := c.Query("cache"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'cache' must be a boolean"})
			return
		}
		useCache = v
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": h.catalog.GetCategories(c.Request.Context(), useCache),
	})
}

// GetCategory returns one category record
func (h *Handler) GetCategory(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	category, found := h.catalog.GetCategoryByName(c.Request.Context(), c.Param("name"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrCategoryNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":              category.Name,
		"subCategoryGroups": category.Groups(),
		"inferred":          category.Inferred,
	})
}

// InvalidateCache drops cached category data after an import
func (h *Handler) InvalidateCache(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	if err := h.catalog.InvalidateCategoryCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

// ready answers 501 when no catalog is wired
func (h *Handler) ready(c *gin.Context) bool {
	if h.catalog == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "catalog service not configured",
		})
		return false
	}
	return true
}

// limitParam parses a positive integer query parameter, defaulting when absent,
// and returns the limit the catalog will apply to it
func (h *Handler) limitParam(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return h.catalog.AppliedLimit(h.defaultLimit), true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("query parameter '%s' must be a positive integer", key),
		})
		return 0, false
	}
	return h.catalog.AppliedLimit(n), true
}
