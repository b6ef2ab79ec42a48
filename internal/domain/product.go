package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Product is a catalog document as stored and as served to storefront pages
type Product struct {
	ID             string    `json:"id"`
	ItemNumber     string    `json:"itemNumber"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category,omitempty"`
	ParentCategory string    `json:"parentCategory,omitempty"`
	Manufacturer   string    `json:"manufacturer,omitempty"`
	Procedure      string    `json:"procedure,omitempty"`
	Price          float64   `json:"price"`
	DisplayPrice   string    `json:"displayPrice,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Images         []string  `json:"images,omitempty"`
	Variants       []Variant `json:"variants,omitempty"`
	Active         bool      `json:"active"`
	Featured       bool      `json:"featured"`
	IsOnClearance  bool      `json:"isOnClearance"`
	Tag            string    `json:"tag,omitempty"`
	TagColor       string    `json:"tagColor,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Variant is a purchasable sub-record of a product (size, shade, pack count)
type Variant struct {
	ItemNumber string   `json:"itemNumber,omitempty"`
	Name       string   `json:"name,omitempty"`
	Price      float64  `json:"price,omitempty"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	Images     []string `json:"images,omitempty"`
}

// HasImages reports whether the product carries a primary or any secondary image
func (p *Product) HasImages() bool {
	return p.ImageURL != "" || len(p.Images) > 0
}

// HasImages reports whether the variant carries a primary or any secondary image
func (v *Variant) HasImages() bool {
	return v.ImageURL != "" || len(v.Images) > 0
}

// Field names a filterable product attribute
type Field string

const (
	FieldActive         Field = "active"
	FieldCategory       Field = "category"
	FieldParentCategory Field = "parentCategory"
	FieldManufacturer   Field = "manufacturer"
	FieldProcedure      Field = "procedure"
	FieldFeatured       Field = "featured"
	FieldClearance      Field = "isOnClearance"
	FieldItemNumber     Field = "itemNumber"
)

// StringValue returns the product's value for a string field
func (p *Product) StringValue(field Field) string {
	switch field {
	case FieldCategory:
		return p.Category
	case FieldParentCategory:
		return p.ParentCategory
	case FieldManufacturer:
		return p.Manufacturer
	case FieldProcedure:
		return p.Procedure
	case FieldItemNumber:
		return p.ItemNumber
	}
	return ""
}

// BoolValue returns the product's value for a boolean field
func (p *Product) BoolValue(field Field) bool {
	switch field {
	case FieldActive:
		return p.Active
	case FieldFeatured:
		return p.Featured
	case FieldClearance:
		return p.IsOnClearance
	}
	return false
}

// SubCategoryGroup is a titled group of leaf categories under a top-level category
type SubCategoryGroup struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Category is a top-level category record
type Category struct {
	Name              string              `json:"name"`
	SubCategoryGroups []SubCategoryGroup  `json:"subCategoryGroups,omitempty"`
	Subcategories     []LegacySubcategory `json:"subcategories,omitempty"`
	Inferred          bool                `json:"inferred,omitempty"`
}

// Groups returns the category's subcategory groups, preferring the structured
// form and falling back to the legacy list. Legacy plain strings are gathered
// into a single group titled after the category.
func (c *Category) Groups() []SubCategoryGroup {
	if len(c.SubCategoryGroups) > 0 {
		return c.SubCategoryGroups
	}
	if len(c.Subcategories) == 0 {
		return nil
	}

	var groups []SubCategoryGroup
	var loose []string
	for _, sub := range c.Subcategories {
		if sub.Group != nil {
			groups = append(groups, *sub.Group)
			continue
		}
		if sub.Name != "" {
			loose = append(loose, sub.Name)
		}
	}
	if len(loose) > 0 {
		groups = append([]SubCategoryGroup{{Title: c.Name, Items: loose}}, groups...)
	}
	return groups
}

// LegacySubcategory is an element of the legacy subcategories array, which
// holds either a bare name or a {title, items} group
type LegacySubcategory struct {
	Name  string
	Group *SubCategoryGroup
}

// UnmarshalJSON accepts both element shapes
func (s *LegacySubcategory) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		s.Name = name
		s.Group = nil
		return nil
	}

	var group SubCategoryGroup
	if err := json.Unmarshal(data, &group); err != nil {
		return fmt.Errorf("subcategory must be a string or {title, items}: %w", err)
	}
	s.Name = ""
	s.Group = &group
	return nil
}

// MarshalJSON writes the element back in its original shape
func (s LegacySubcategory) MarshalJSON() ([]byte, error) {
	if s.Group != nil {
		return json.Marshal(s.Group)
	}
	return json.Marshal(s.Name)
}

// FilterOption is a derived facet value with its occurrence count
type FilterOption struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Facets groups the filter options shown next to a product list
type Facets struct {
	Manufacturers    []FilterOption `json:"manufacturers"`
	Categories       []FilterOption `json:"categories"`
	ParentCategories []FilterOption `json:"parentCategories"`
	Procedures       []FilterOption `json:"procedures"`
}

// ProductPage is one page of the full active catalog
type ProductPage struct {
	Products []Product `json:"products"`
	LastDoc  string    `json:"lastDoc,omitempty"`
	HasMore  bool      `json:"hasMore"`
}
