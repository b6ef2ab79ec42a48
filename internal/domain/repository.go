package domain

import (
	"context"
	"time"
)

// Filter is an equality condition on a product field. Value is a string or a bool.
type Filter struct {
	Field Field
	Value interface{}
}

// ProductQuery describes a read against the product collection
type ProductQuery struct {
	Filters []Filter
	// OrderByUpdated sorts by updatedAt descending, ties by id ascending
	OrderByUpdated bool
	// Limit of zero means no limit
	Limit int
	// StartAfter is the id of the last document of the previous page.
	// Only honoured together with OrderByUpdated.
	StartAfter string
}

// Matches reports whether a product satisfies every filter of the query
func (q ProductQuery) Matches(p *Product) bool {
	for _, f := range q.Filters {
		switch v := f.Value.(type) {
		case bool:
			if p.BoolValue(f.Field) != v {
				return false
			}
		case string:
			if p.StringValue(f.Field) != v {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ActiveQuery starts a query restricted to active products
func ActiveQuery(filters ...Filter) ProductQuery {
	return ProductQuery{Filters: append([]Filter{{Field: FieldActive, Value: true}}, filters...)}
}

// CatalogStore is the read side of the product document store
type CatalogStore interface {
	QueryProducts(ctx context.Context, q ProductQuery) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	Close() error
}

// CatalogWriter is implemented by stores that accept imports
type CatalogWriter interface {
	UpsertProducts(ctx context.Context, products []Product) error
	UpsertCategories(ctx context.Context, categories []Category) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ImageStore lists the images kept for an item in object storage
type ImageStore interface {
	ListImages(ctx context.Context, itemNumber string) ([]string, error)
}
