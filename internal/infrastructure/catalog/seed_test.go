package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medifocal/catalog/internal/domain"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, seed *Seed)
	}{
		{
			name: "id defaults to item number",
			body: `{"products":[{"itemNumber":"AC-100","name":"Autoclave","active":true}],
				"categories":[{"name":"Equipment","subcategories":["Autoclaves",{"title":"Lights","items":["LED"]}]}]}`,
			check: func(t *testing.T, seed *Seed) {
				require.Len(t, seed.Products, 1)
				assert.Equal(t, "AC-100", seed.Products[0].ID)
				require.Len(t, seed.Categories, 1)
				assert.Len(t, seed.Categories[0].Subcategories, 2)
			},
		},
		{
			name: "explicit id kept",
			body: `{"products":[{"id":"doc-1","itemNumber":"AC-100"}]}`,
			check: func(t *testing.T, seed *Seed) {
				assert.Equal(t, "doc-1", seed.Products[0].ID)
			},
		},
		{
			name:    "product without keys",
			body:    `{"products":[{"name":"anonymous"}]}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			body:    `{"products":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := LoadSeedFile(writeSeed(t, tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, seed)
		})
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestWhereClause(t *testing.T) {
	where, args, err := whereClause([]domain.Filter{
		{Field: domain.FieldActive, Value: true},
		{Field: domain.FieldProcedure, Value: "Endodontics"},
	})
	require.NoError(t, err)
	assert.Equal(t, "active = ? AND procedure_tag = ?", where)
	assert.Equal(t, []interface{}{true, "Endodontics"}, args)

	_, _, err = whereClause([]domain.Filter{{Field: domain.FieldCategory, Value: 3}})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRequiredIndex(t *testing.T) {
	tests := []struct {
		name  string
		query domain.ProductQuery
		want  string
	}{
		{"active only", domain.ActiveQuery(), activeUpdatedIndex},
		{"category", domain.ActiveQuery(domain.Filter{Field: domain.FieldCategory, Value: "Gloves"}), "idx_products_category_updated"},
		{"clearance", domain.ActiveQuery(domain.Filter{Field: domain.FieldClearance, Value: true}), "idx_products_clearance_updated"},
		{"unindexed field falls back", domain.ActiveQuery(domain.Filter{Field: domain.FieldItemNumber, Value: "X"}), activeUpdatedIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, requiredIndex(tt.query).Name)
		})
	}
}
