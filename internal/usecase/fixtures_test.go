package usecase

import (
	"time"

	"github.com/medifocal/catalog/internal/domain"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// catalogFixture is a small storefront: two parents with records, one parent
// known only from products, an inactive product and an excluded manufacturer
func catalogFixture() ([]domain.Product, []domain.Category) {
	products := []domain.Product{
		{ID: "p1", ItemNumber: "AC-100", Name: "Autoclave Pro 3000", Category: "Autoclaves", ParentCategory: "Equipment", Manufacturer: "SterileTech", Active: true, Featured: true, UpdatedAt: t0.Add(1 * time.Hour)},
		{ID: "p2", ItemNumber: "SC-200", Name: "Pro Scaler", Category: "Scalers", ParentCategory: "Equipment", Manufacturer: "Acme", Active: true, IsOnClearance: true, UpdatedAt: t0.Add(3 * time.Hour)},
		{ID: "p3", ItemNumber: "GL-300", Name: "Nitrile Gloves", Category: "Gloves", ParentCategory: "Consumables", Manufacturer: "Ansell", Active: true, Images: []string{"https://img/gl-300.jpg"}, UpdatedAt: t0.Add(2 * time.Hour)},
		{ID: "p4", ItemNumber: "GL-301", Name: "Latex Gloves", Category: "Latex Gloves", ParentCategory: "Consumables", Manufacturer: "Ansell", Active: false, UpdatedAt: t0.Add(4 * time.Hour)},
		{ID: "p5", ItemNumber: "PS-500", Name: "Portable Power Station", Category: "Autoclaves", ParentCategory: "Equipment", Manufacturer: "BLUETTI", Active: true, Featured: true, UpdatedAt: t0.Add(5 * time.Hour)},
		{ID: "p6", ItemNumber: "AC-101", Name: "Autoclave Mini", Category: "Autoclaves", ParentCategory: "Equipment", Manufacturer: "W&H", Active: true, UpdatedAt: t0.Add(3 * time.Hour)},
		{ID: "p7", ItemNumber: "OB-700", Name: "Ortho Brackets", Category: "Brackets", ParentCategory: "Orthodontics", Manufacturer: "3M", Active: true, UpdatedAt: t0},
	}
	categories := []domain.Category{
		{Name: "Equipment", SubCategoryGroups: []domain.SubCategoryGroup{{Title: "Sterilization", Items: []string{"Autoclaves"}}}},
		{Name: "Consumables", Subcategories: []domain.LegacySubcategory{
			{Name: "Gloves"},
			{Group: &domain.SubCategoryGroup{Title: "Masks", Items: []string{"Surgical Masks"}}},
		}},
		{Name: "Instruments"},
	}
	return products, categories
}

func productIDs(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
