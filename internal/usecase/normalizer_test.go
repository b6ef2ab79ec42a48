package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifocal/catalog/internal/domain"
)

func TestIsExcludedManufacturer(t *testing.T) {
	tests := []struct {
		manufacturer string
		want         bool
	}{
		{"Bluetti", true},
		{"bluetti", true},
		{"BLUETTI", true},
		{" Bluetti ", true},
		{"Bluetti Power", false},
		{"Dentsply", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.manufacturer, func(t *testing.T) {
			if got := IsExcludedManufacturer(tt.manufacturer); got != tt.want {
				t.Errorf("IsExcludedManufacturer(%q) = %v, want %v", tt.manufacturer, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()

	t.Run("excluded manufacturer", func(t *testing.T) {
		n := NewProductNormalizer(nil, nil)
		for _, m := range []string{"Bluetti", "bluetti", "BLUETTI"} {
			_, ok := n.Normalize(ctx, domain.Product{ID: "p", Manufacturer: m}, true)
			if ok {
				t.Errorf("Normalize() ok = true for manufacturer %q", m)
			}
		}
	})

	t.Run("promotes first image", func(t *testing.T) {
		n := NewProductNormalizer(nil, nil)
		got, ok := n.Normalize(ctx, domain.Product{ID: "p", Images: []string{"a.jpg", "b.jpg"}}, true)
		require.True(t, ok)
		assert.Equal(t, "a.jpg", got.ImageURL)
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, got.Images)
	})

	t.Run("keeps explicit primary image", func(t *testing.T) {
		n := NewProductNormalizer(nil, nil)
		got, _ := n.Normalize(ctx, domain.Product{ID: "p", ImageURL: "main.jpg", Images: []string{"a.jpg"}}, true)
		assert.Equal(t, "main.jpg", got.ImageURL)
	})

	t.Run("loads images from storage when absent", func(t *testing.T) {
		images := NewMockImageStore()
		images.images["AC-100"] = []string{"https://img/1.jpg", "https://img/2.jpg"}
		n := NewProductNormalizer(images, nil)

		got, ok := n.Normalize(ctx, domain.Product{ID: "p1", ItemNumber: "AC-100"}, true)
		require.True(t, ok)
		assert.Equal(t, "https://img/1.jpg", got.ImageURL)
		assert.Equal(t, []string{"https://img/1.jpg", "https://img/2.jpg"}, got.Images)
		assert.Equal(t, []string{"AC-100"}, images.Calls())
	})

	t.Run("falls back to id as storage key", func(t *testing.T) {
		images := NewMockImageStore()
		images.images["doc-9"] = []string{"https://img/9.jpg"}
		n := NewProductNormalizer(images, nil)

		got, _ := n.Normalize(ctx, domain.Product{ID: "doc-9"}, true)
		assert.Equal(t, "https://img/9.jpg", got.ImageURL)
	})

	t.Run("storage failures read as no images", func(t *testing.T) {
		for _, err := range []error{
			domain.ErrImagesNotFound,
			fmt.Errorf("%w: denied", domain.ErrStorageUnauthorized),
			errors.New("connection reset"),
		} {
			images := NewMockImageStore()
			images.errors["AC-100"] = err
			n := NewProductNormalizer(images, nil)

			got, ok := n.Normalize(ctx, domain.Product{ID: "p1", ItemNumber: "AC-100"}, true)
			require.True(t, ok)
			assert.Empty(t, got.ImageURL, "error %v", err)
			assert.Empty(t, got.Images, "error %v", err)
		}
	})

	t.Run("no lookup when disabled or images present", func(t *testing.T) {
		images := NewMockImageStore()
		n := NewProductNormalizer(images, nil)

		_, _ = n.Normalize(ctx, domain.Product{ID: "p1", ItemNumber: "AC-100"}, false)
		_, _ = n.Normalize(ctx, domain.Product{ID: "p2", ItemNumber: "AC-101", ImageURL: "x.jpg"}, true)
		_, _ = n.Normalize(ctx, domain.Product{ID: "p3", ItemNumber: "AC-102", Images: []string{"y.jpg"}}, true)

		assert.Empty(t, images.Calls())
	})

	t.Run("variants look up their own item numbers", func(t *testing.T) {
		images := NewMockImageStore()
		images.images["GL-300-S"] = []string{"https://img/small.jpg"}
		n := NewProductNormalizer(images, nil)

		raw := domain.Product{
			ID:       "p3",
			ImageURL: "https://img/gloves.jpg",
			Variants: []domain.Variant{
				{ItemNumber: "GL-300-S", Name: "Small"},
				{ItemNumber: "GL-300-M", Name: "Medium", Images: []string{"https://img/medium.jpg"}},
				{Name: "Large"},
			},
		}
		got, ok := n.Normalize(ctx, raw, true)
		require.True(t, ok)
		require.Len(t, got.Variants, 3)
		assert.Equal(t, "https://img/small.jpg", got.Variants[0].ImageURL)
		assert.Equal(t, "https://img/medium.jpg", got.Variants[1].ImageURL)
		assert.Empty(t, got.Variants[2].ImageURL)
		assert.Equal(t, []string{"GL-300-S"}, images.Calls())
		assert.Empty(t, raw.Variants[0].ImageURL, "input must not be modified")
	})

	t.Run("dental chair primary image correction", func(t *testing.T) {
		n := NewProductNormalizer(nil, nil)
		raw := domain.Product{
			ID:       "chair",
			Category: "Dental Chairs",
			ImageURL: "https://img/placeholder.jpg",
			Images:   []string{"https://img/chair-front.jpg", "https://img/chair-side.jpg"},
		}
		got, _ := n.Normalize(ctx, raw, false)
		assert.Equal(t, "https://img/chair-front.jpg", got.ImageURL)

		raw.ImageURL = "https://img/chair-side.jpg"
		got, _ = n.Normalize(ctx, raw, false)
		assert.Equal(t, "https://img/chair-side.jpg", got.ImageURL)
	})

	t.Run("input images are not shared", func(t *testing.T) {
		n := NewProductNormalizer(nil, nil)
		raw := domain.Product{ID: "p", Images: []string{"a.jpg"}}
		got, _ := n.Normalize(ctx, raw, false)
		got.Images[0] = "changed.jpg"
		assert.Equal(t, "a.jpg", raw.Images[0])
	})
}

func TestNormalizeAll(t *testing.T) {
	ctx := context.Background()

	raws := []domain.Product{
		{ID: "p1", ItemNumber: "A"},
		{ID: "p2", ItemNumber: "B", Manufacturer: "BLUETTI"},
		{ID: "p3", ItemNumber: "C"},
		{ID: "p4", ItemNumber: "D", Images: []string{"d.jpg"}},
	}

	t.Run("keeps order and drops excluded", func(t *testing.T) {
		images := NewMockImageStore()
		images.images["A"] = []string{"a.jpg"}
		images.images["C"] = []string{"c.jpg"}
		n := NewProductNormalizer(images, nil)

		got := n.NormalizeAll(ctx, raws, true)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"p1", "p3", "p4"}, []string{got[0].ID, got[1].ID, got[2].ID})
		assert.Equal(t, "a.jpg", got[0].ImageURL)
		assert.Equal(t, "c.jpg", got[1].ImageURL)
		assert.Equal(t, "d.jpg", got[2].ImageURL)
		assert.ElementsMatch(t, []string{"A", "C"}, images.Calls())
	})

	t.Run("without image loading", func(t *testing.T) {
		images := NewMockImageStore()
		n := NewProductNormalizer(images, nil)

		got := n.NormalizeAll(ctx, raws, false)
		assert.Len(t, got, 3)
		assert.Empty(t, images.Calls())
	})

	t.Run("empty input", func(t *testing.T) {
		n := NewProductNormalizer(nil, nil)
		got := n.NormalizeAll(ctx, nil, true)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
