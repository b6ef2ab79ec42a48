package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/medifocal/catalog/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	id              TEXT PRIMARY KEY,
	item_number     TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT '',
	parent_category TEXT NOT NULL DEFAULT '',
	manufacturer    TEXT NOT NULL DEFAULT '',
	procedure_tag   TEXT NOT NULL DEFAULT '',
	active          INTEGER NOT NULL DEFAULT 0,
	featured        INTEGER NOT NULL DEFAULT 0,
	is_on_clearance INTEGER NOT NULL DEFAULT 0,
	updated_at      INTEGER NOT NULL DEFAULT 0,
	doc             TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_item_number ON products(item_number);
CREATE TABLE IF NOT EXISTS categories (
	name TEXT PRIMARY KEY,
	doc  TEXT NOT NULL
);
`

// SQLiteConfig holds the embedded store settings
type SQLiteConfig struct {
	Path string
	// ProvisionIndexes creates the composite indexes ordered listings need.
	// Without them ordered queries report domain.ErrIndexNotReady.
	ProvisionIndexes bool
}

// SQLiteStore keeps product documents as JSON next to their indexed fields
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file and migrates it
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path != ":memory:" && !strings.HasPrefix(cfg.Path, "file:") {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if cfg.Path == ":memory:" {
		// Each connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite: %v", domain.ErrCatalogUnavailable, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx, cfg.ProvisionIndexes); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context, provisionIndexes bool) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	if !provisionIndexes {
		return nil
	}
	for _, idx := range orderedIndexes {
		if err := s.createIndex(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

// createIndex provisions one composite index
func (s *SQLiteStore) createIndex(ctx context.Context, idx orderedIndex) error {
	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON products(%s)", idx.Name, strings.Join(idx.Columns, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create index %s: %w", idx.Name, err)
	}
	return nil
}

func (s *SQLiteStore) hasIndex(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	return n > 0, nil
}

// QueryProducts implements domain.CatalogStore
func (s *SQLiteStore) QueryProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	where, args, err := whereClause(q.Filters)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT doc FROM products")

	if q.OrderByUpdated {
		idx := requiredIndex(q)
		ok, err := s.hasIndex(ctx, idx.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotReady, idx.Name)
		}

		if q.StartAfter != "" {
			var cursorUpdated int64
			err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM products WHERE id = ?`, q.StartAfter).Scan(&cursorUpdated)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: unknown cursor %q", domain.ErrInvalidRequest, q.StartAfter)
			}
			if err != nil {
				return nil, fmt.Errorf("cursor lookup: %w", err)
			}
			if where != "" {
				where += " AND "
			}
			where += "(updated_at < ? OR (updated_at = ? AND id > ?))"
			args = append(args, cursorUpdated, cursorUpdated, q.StartAfter)
		}
	}

	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if q.OrderByUpdated {
		sb.WriteString(" ORDER BY updated_at DESC, id ASC")
	} else {
		sb.WriteString(" ORDER BY rowid")
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Product, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		var p domain.Product
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("decode product document: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

// GetProduct implements domain.CatalogStore
func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM products WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decode product document: %w", err)
	}
	return &p, nil
}

// ListCategories implements domain.CatalogStore
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Category, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		var c domain.Category
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, fmt.Errorf("decode category document: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertProducts implements domain.CatalogWriter
func (s *SQLiteStore) UpsertProducts(ctx context.Context, products []domain.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (id, item_number, category, parent_category, manufacturer, procedure_tag,
			active, featured, is_on_clearance, updated_at, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			item_number = excluded.item_number,
			category = excluded.category,
			parent_category = excluded.parent_category,
			manufacturer = excluded.manufacturer,
			procedure_tag = excluded.procedure_tag,
			active = excluded.active,
			featured = excluded.featured,
			is_on_clearance = excluded.is_on_clearance,
			updated_at = excluded.updated_at,
			doc = excluded.doc`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if p.ID == "" {
			return fmt.Errorf("%w: product without id", domain.ErrInvalidRequest)
		}
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.ItemNumber, p.Category, p.ParentCategory, p.Manufacturer, p.Procedure,
			p.Active, p.Featured, p.IsOnClearance, unixNano(p.UpdatedAt), string(doc),
		); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// UpsertCategories implements domain.CatalogWriter
func (s *SQLiteStore) UpsertCategories(ctx context.Context, categories []domain.Category) error {
	for _, c := range categories {
		doc, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode category %s: %w", c.Name, err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO categories (name, doc) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET doc = excluded.doc`, c.Name, string(doc)); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Name, err)
		}
	}
	return nil
}

// Close implements domain.CatalogStore
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
