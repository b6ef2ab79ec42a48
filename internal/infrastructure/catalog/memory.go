package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/medifocal/catalog/internal/domain"
)

// MemoryStore keeps the catalog in process. Used for local development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	products   []domain.Product
	byID       map[string]int
	categories []domain.Category
	// missing holds the names of ordered indexes that are not provisioned
	missing map[string]bool
	failure error
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithMissingIndex makes ordered queries filtering on field fail with
// domain.ErrIndexNotReady. The empty field stands for the active-only index.
func WithMissingIndex(field domain.Field) MemoryOption {
	return func(s *MemoryStore) {
		if idx, ok := orderedIndexes[field]; ok {
			s.missing[idx.Name] = true
		}
	}
}

// NewMemoryStore creates a store holding the given documents
func NewMemoryStore(products []domain.Product, categories []domain.Category, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		byID:    make(map[string]int),
		missing: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	_ = s.UpsertProducts(context.Background(), products)
	_ = s.UpsertCategories(context.Background(), categories)
	return s
}

// SetFailure makes every read fail with err until cleared with nil
func (s *MemoryStore) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// QueryProducts implements domain.CatalogStore
func (s *MemoryStore) QueryProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failure != nil {
		return nil, s.failure
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if q.OrderByUpdated {
		if idx := requiredIndex(q); s.missing[idx.Name] {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotReady, idx.Name)
		}
	}

	matched := make([]domain.Product, 0)
	for i := range s.products {
		if q.Matches(&s.products[i]) {
			matched = append(matched, s.products[i])
		}
	}

	if q.OrderByUpdated {
		sort.SliceStable(matched, func(i, j int) bool {
			return updatedBefore(&matched[i], &matched[j])
		})
		if q.StartAfter != "" {
			pos := -1
			for i := range matched {
				if matched[i].ID == q.StartAfter {
					pos = i
					break
				}
			}
			if pos < 0 {
				return nil, fmt.Errorf("%w: unknown cursor %q", domain.ErrInvalidRequest, q.StartAfter)
			}
			matched = matched[pos+1:]
		}
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// updatedBefore orders by updatedAt descending, then id ascending
func updatedBefore(a, b *domain.Product) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID < b.ID
}

// GetProduct implements domain.CatalogStore
func (s *MemoryStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failure != nil {
		return nil, s.failure
	}
	i, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}

// ListCategories implements domain.CatalogStore
func (s *MemoryStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failure != nil {
		return nil, s.failure
	}
	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

// UpsertProducts implements domain.CatalogWriter
func (s *MemoryStore) UpsertProducts(ctx context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("%w: product without id", domain.ErrInvalidRequest)
		}
		if i, ok := s.byID[p.ID]; ok {
			s.products[i] = p
			continue
		}
		s.byID[p.ID] = len(s.products)
		s.products = append(s.products, p)
	}
	return nil
}

// UpsertCategories implements domain.CatalogWriter
func (s *MemoryStore) UpsertCategories(ctx context.Context, categories []domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range categories {
		replaced := false
		for i := range s.categories {
			if s.categories[i].Name == c.Name {
				s.categories[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			s.categories = append(s.categories, c)
		}
	}
	return nil
}

// Close implements domain.CatalogStore
func (s *MemoryStore) Close() error {
	return nil
}
