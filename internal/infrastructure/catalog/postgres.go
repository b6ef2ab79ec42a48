package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/medifocal/catalog/internal/domain"
)

// productRecord is the products table: indexed fields plus the full document
type productRecord struct {
	ID             string `gorm:"primaryKey"`
	ItemNumber     string `gorm:"not null;default:'';index:idx_products_item_number"`
	Category       string `gorm:"not null;default:''"`
	ParentCategory string `gorm:"not null;default:''"`
	Manufacturer   string `gorm:"not null;default:''"`
	ProcedureTag   string `gorm:"not null;default:''"`
	Active         bool   `gorm:"not null;default:false"`
	Featured       bool   `gorm:"not null;default:false"`
	IsOnClearance  bool   `gorm:"not null;default:false"`
	// Import timestamps come from the document, never from gorm
	UpdatedAt time.Time      `gorm:"autoUpdateTime:false"`
	Doc       datatypes.JSON `gorm:"type:jsonb;not null"`
}

func (productRecord) TableName() string { return "products" }

type categoryRecord struct {
	Name      string         `gorm:"primaryKey"`
	Doc       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
}

func (categoryRecord) TableName() string { return "categories" }

// PostgresConfig holds the server store settings
type PostgresConfig struct {
	DSN              string
	ProvisionIndexes bool
}

// PostgresStore is the catalog on PostgreSQL through gorm
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects and migrates the catalog tables
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		// Driver level retries and timeouts are noisy; failures surface through returned errors
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", domain.ErrCatalogUnavailable, err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx, cfg.ProvisionIndexes); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context, provisionIndexes bool) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&productRecord{}, &categoryRecord{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	if !provisionIndexes {
		return nil
	}
	for _, idx := range orderedIndexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON products (%s)", idx.Name, strings.Join(idx.Columns, ", "))
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index %s: %w", idx.Name, err)
		}
	}
	return nil
}

// QueryProducts implements domain.CatalogStore
func (s *PostgresStore) QueryProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	where, args, err := whereClause(q.Filters)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&productRecord{})
	if where != "" {
		tx = tx.Where(where, args...)
	}

	if q.OrderByUpdated {
		idx := requiredIndex(q)
		if !s.db.WithContext(ctx).Migrator().HasIndex(&productRecord{}, idx.Name) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotReady, idx.Name)
		}

		if q.StartAfter != "" {
			var cursor productRecord
			err := s.db.WithContext(ctx).Select("id", "updated_at").First(&cursor, "id = ?", q.StartAfter).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: unknown cursor %q", domain.ErrInvalidRequest, q.StartAfter)
			}
			if err != nil {
				return nil, fmt.Errorf("cursor lookup: %w", err)
			}
			tx = tx.Where("(updated_at < ? OR (updated_at = ? AND id > ?))",
				cursor.UpdatedAt, cursor.UpdatedAt, cursor.ID)
		}
		tx = tx.Order("updated_at DESC").Order("id ASC")
	}

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var records []productRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	out := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		var p domain.Product
		if err := json.Unmarshal(rec.Doc, &p); err != nil {
			return nil, fmt.Errorf("decode product %s: %w", rec.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// GetProduct implements domain.CatalogStore
func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var rec productRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal(rec.Doc, &p); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", rec.ID, err)
	}
	return &p, nil
}

// ListCategories implements domain.CatalogStore
func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var records []categoryRecord
	if err := s.db.WithContext(ctx).Order("created_at ASC").Order("name ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]domain.Category, 0, len(records))
	for _, rec := range records {
		var c domain.Category
		if err := json.Unmarshal(rec.Doc, &c); err != nil {
			return nil, fmt.Errorf("decode category %s: %w", rec.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// UpsertProducts implements domain.CatalogWriter
func (s *PostgresStore) UpsertProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	records := make([]productRecord, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("%w: product without id", domain.ErrInvalidRequest)
		}
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %s: %w", p.ID, err)
		}
		records = append(records, productRecord{
			ID:             p.ID,
			ItemNumber:     p.ItemNumber,
			Category:       p.Category,
			ParentCategory: p.ParentCategory,
			Manufacturer:   p.Manufacturer,
			ProcedureTag:   p.Procedure,
			Active:         p.Active,
			Featured:       p.Featured,
			IsOnClearance:  p.IsOnClearance,
			UpdatedAt:      p.UpdatedAt,
			Doc:            datatypes.JSON(doc),
		})
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(records, 500).Error
	if err != nil {
		return fmt.Errorf("upsert products: %w", err)
	}
	return nil
}

// UpsertCategories implements domain.CatalogWriter
func (s *PostgresStore) UpsertCategories(ctx context.Context, categories []domain.Category) error {
	for _, c := range categories {
		doc, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode category %s: %w", c.Name, err)
		}
		rec := categoryRecord{Name: c.Name, Doc: datatypes.JSON(doc)}
		err = s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"doc"}),
			}).
			Create(&rec).Error
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Name, err)
		}
	}
	return nil
}

// Close implements domain.CatalogStore
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
