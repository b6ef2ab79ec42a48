package usecase

import (
	"sort"
	"strings"

	"github.com/medifocal/catalog/internal/domain"
)

// facetCounter accumulates filter options in first-seen order
type facetCounter struct {
	index   map[string]int
	options []domain.FilterOption
}

func newFacetCounter() *facetCounter {
	return &facetCounter{index: make(map[string]int)}
}

// add counts value under key. The display name is fixed on first sight of the key.
func (f *facetCounter) add(key, value string) {
	if i, ok := f.index[key]; ok {
		f.options[i].Count++
		return
	}
	f.index[key] = len(f.options)
	f.options = append(f.options, domain.FilterOption{Name: value, Count: 1})
}

// sorted returns options by descending count, ties in insertion order
func (f *facetCounter) sorted() []domain.FilterOption {
	out := make([]domain.FilterOption, len(f.options))
	copy(out, f.options)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// BuildManufacturerFacets groups manufacturer names case-insensitively.
// The first casing seen for a name is the one displayed.
func BuildManufacturerFacets(products []domain.Product) []domain.FilterOption {
	counter := newFacetCounter()
	for i := range products {
		m := products[i].Manufacturer
		if m == "" {
			continue
		}
		counter.add(strings.ToLower(m), m)
	}
	return counter.sorted()
}

// BuildFieldFacets groups a field by exact value. Use BuildManufacturerFacets
// for manufacturers, which fold case.
func BuildFieldFacets(products []domain.Product, field domain.Field) []domain.FilterOption {
	counter := newFacetCounter()
	for i := range products {
		v := products[i].StringValue(field)
		if v == "" {
			continue
		}
		counter.add(v, v)
	}
	return counter.sorted()
}

// BuildFacets derives every sidebar facet from a result set
func BuildFacets(products []domain.Product) domain.Facets {
	return domain.Facets{
		Manufacturers:    BuildManufacturerFacets(products),
		Categories:       BuildFieldFacets(products, domain.FieldCategory),
		ParentCategories: BuildFieldFacets(products, domain.FieldParentCategory),
		Procedures:       BuildFieldFacets(products, domain.FieldProcedure),
	}
}
