package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medifocal/catalog/internal/domain"
)

func manufacturers(names ...string) []domain.Product {
	out := make([]domain.Product, len(names))
	for i, n := range names {
		out[i] = domain.Product{Manufacturer: n}
	}
	return out
}

func TestBuildManufacturerFacets(t *testing.T) {
	tests := []struct {
		name  string
		input []domain.Product
		want  []domain.FilterOption
	}{
		{
			name:  "first seen casing wins",
			input: manufacturers("Dentsply", "dentsply", "DENTSPLY"),
			want:  []domain.FilterOption{{Name: "Dentsply", Count: 3}},
		},
		{
			name:  "sorted by count then first appearance",
			input: manufacturers("Ansell", "3M", "ansell", "Kerr", "3m", "ANSELL"),
			want: []domain.FilterOption{
				{Name: "Ansell", Count: 3},
				{Name: "3M", Count: 2},
				{Name: "Kerr", Count: 1},
			},
		},
		{
			name:  "empty manufacturers skipped",
			input: manufacturers("", "Kerr", ""),
			want:  []domain.FilterOption{{Name: "Kerr", Count: 1}},
		},
		{
			name:  "no products",
			input: nil,
			want:  []domain.FilterOption{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildManufacturerFacets(tt.input))
		})
	}
}

func TestBuildManufacturerFacets_CountsAndUniqueness(t *testing.T) {
	input := manufacturers("Dentsply", "", "Kerr", "KERR", "dentsply", "Hu-Friedy", "", "kerr")

	got := BuildManufacturerFacets(input)

	nonEmpty := 0
	for _, p := range input {
		if p.Manufacturer != "" {
			nonEmpty++
		}
	}
	sum := 0
	seen := make(map[string]bool)
	for _, o := range got {
		sum += o.Count
		key := strings.ToLower(o.Name)
		if seen[key] {
			t.Errorf("duplicate facet %q", o.Name)
		}
		seen[key] = true
	}
	if sum != nonEmpty {
		t.Errorf("sum of counts = %d, want %d", sum, nonEmpty)
	}
}

func TestBuildFieldFacets(t *testing.T) {
	products := []domain.Product{
		{Category: "Gloves", Procedure: "Hygiene"},
		{Category: "gloves", Procedure: "Hygiene"},
		{Category: "Gloves"},
		{Category: "Autoclaves", Procedure: "Sterilization"},
	}

	t.Run("categories group by exact value", func(t *testing.T) {
		want := []domain.FilterOption{
			{Name: "Gloves", Count: 2},
			{Name: "gloves", Count: 1},
			{Name: "Autoclaves", Count: 1},
		}
		assert.Equal(t, want, BuildFieldFacets(products, domain.FieldCategory))
	})

	t.Run("procedures skip empty values", func(t *testing.T) {
		want := []domain.FilterOption{
			{Name: "Hygiene", Count: 2},
			{Name: "Sterilization", Count: 1},
		}
		assert.Equal(t, want, BuildFieldFacets(products, domain.FieldProcedure))
	})
}

func TestBuildFacets(t *testing.T) {
	products := []domain.Product{
		{Manufacturer: "Kerr", Category: "Composites", ParentCategory: "Restorative", Procedure: "Fillings"},
		{Manufacturer: "kerr", Category: "Bonding", ParentCategory: "Restorative"},
	}

	facets := BuildFacets(products)

	assert.Equal(t, []domain.FilterOption{{Name: "Kerr", Count: 2}}, facets.Manufacturers)
	assert.Len(t, facets.Categories, 2)
	assert.Equal(t, []domain.FilterOption{{Name: "Restorative", Count: 2}}, facets.ParentCategories)
	assert.Equal(t, []domain.FilterOption{{Name: "Fillings", Count: 1}}, facets.Procedures)
}
