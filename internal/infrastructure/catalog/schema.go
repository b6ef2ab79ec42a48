package catalog

import (
	"fmt"

	"github.com/medifocal/catalog/internal/domain"
)

// columns maps filterable fields to their indexed column in the SQL stores
var columns = map[domain.Field]string{
	domain.FieldActive:         "active",
	domain.FieldCategory:       "category",
	domain.FieldParentCategory: "parent_category",
	domain.FieldManufacturer:   "manufacturer",
	domain.FieldProcedure:      "procedure_tag",
	domain.FieldFeatured:       "featured",
	domain.FieldClearance:      "is_on_clearance",
	domain.FieldItemNumber:     "item_number",
}

// orderedIndex describes a composite index serving "filter ... ORDER BY updated_at DESC"
type orderedIndex struct {
	Name    string
	Columns []string
}

const activeUpdatedIndex = "idx_products_active_updated"

// orderedIndexes lists the composite index each ordered query shape needs,
// keyed by the filter field besides active
var orderedIndexes = map[domain.Field]orderedIndex{
	"":                         {Name: activeUpdatedIndex, Columns: []string{"active", "updated_at DESC", "id"}},
	domain.FieldCategory:       {Name: "idx_products_category_updated", Columns: []string{"active", "category", "updated_at DESC", "id"}},
	domain.FieldParentCategory: {Name: "idx_products_parent_updated", Columns: []string{"active", "parent_category", "updated_at DESC", "id"}},
	domain.FieldFeatured:       {Name: "idx_products_featured_updated", Columns: []string{"active", "featured", "updated_at DESC", "id"}},
	domain.FieldClearance:      {Name: "idx_products_clearance_updated", Columns: []string{"active", "is_on_clearance", "updated_at DESC", "id"}},
}

// requiredIndex returns the index an ordered query relies on
func requiredIndex(q domain.ProductQuery) orderedIndex {
	for _, f := range q.Filters {
		if f.Field == domain.FieldActive {
			continue
		}
		if idx, ok := orderedIndexes[f.Field]; ok {
			return idx
		}
	}
	return orderedIndexes[""]
}

// whereClause renders the equality filters with positional placeholders
func whereClause(filters []domain.Filter) (string, []interface{}, error) {
	clause := ""
	args := make([]interface{}, 0, len(filters))
	for i, f := range filters {
		col, ok := columns[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidRequest, f.Field)
		}
		if i > 0 {
			clause += " AND "
		}
		clause += col + " = ?"
		switch v := f.Value.(type) {
		case bool:
			args = append(args, v)
		case string:
			args = append(args, v)
		default:
			return "", nil, fmt.Errorf("%w: unsupported value for %q", domain.ErrInvalidRequest, f.Field)
		}
	}
	return clause, args, nil
}
