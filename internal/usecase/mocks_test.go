package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/medifocal/catalog/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string][]byte
	getError error
	setError error
	getCalls int
	setCalls int
	lastTTL  time.Duration
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	m.lastTTL = ttl
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockImageStore is a mock implementation of domain.ImageStore
type MockImageStore struct {
	mu     sync.Mutex
	images map[string][]string
	errors map[string]error
	calls  []string
}

func NewMockImageStore() *MockImageStore {
	return &MockImageStore{
		images: make(map[string][]string),
		errors: make(map[string]error),
	}
}

func (m *MockImageStore) ListImages(ctx context.Context, itemNumber string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, itemNumber)
	if err, ok := m.errors[itemNumber]; ok {
		return nil, err
	}
	if urls, ok := m.images[itemNumber]; ok {
		return urls, nil
	}
	return nil, domain.ErrImagesNotFound
}

func (m *MockImageStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// countingStore records every query sent to the wrapped store
type countingStore struct {
	domain.CatalogStore
	mu      sync.Mutex
	queries []domain.ProductQuery
}

func (c *countingStore) QueryProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	c.mu.Lock()
	c.queries = append(c.queries, q)
	c.mu.Unlock()
	return c.CatalogStore.QueryProducts(ctx, q)
}

// scans counts bounded full-catalog reads, the ones that build the name index
func (c *countingStore) scans(limit int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, q := range c.queries {
		if len(q.Filters) == 1 && q.Limit == limit {
			n++
		}
	}
	return n
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}
