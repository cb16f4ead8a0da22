package store

import (
	"context"
	"fmt"
	"time"

	"pos-service/internal/catalog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS sales (
	invoice_id     TEXT PRIMARY KEY,
	cashier_id     TEXT NOT NULL,
	total          NUMERIC(12,2) NOT NULL,
	payment_method TEXT NOT NULL,
	customer_name  TEXT NOT NULL DEFAULT '',
	customer_phone TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS sale_items (
	invoice_id TEXT NOT NULL REFERENCES sales(invoice_id),
	position   INT NOT NULL,
	item_id    TEXT NOT NULL,
	item_name  TEXT NOT NULL,
	quantity   INT NOT NULL,
	unit_price NUMERIC(12,2) NOT NULL,
	line_total NUMERIC(12,2) NOT NULL,
	PRIMARY KEY (invoice_id, position)
);
CREATE TABLE IF NOT EXISTS catalog_items (
	position      SERIAL PRIMARY KEY,
	category_id   TEXT NOT NULL,
	category_name TEXT NOT NULL,
	brand_id      TEXT NOT NULL,
	brand_name    TEXT NOT NULL,
	item_id       TEXT NOT NULL UNIQUE,
	item_name     TEXT NOT NULL,
	unit_price    NUMERIC(12,2) NOT NULL,
	stock         INT NOT NULL DEFAULT 0
);`

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the archive tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// LoadCatalogRows reads the flattened catalog in display order
func (s *Store) LoadCatalogRows(ctx context.Context) ([]catalog.Row, error) {
	var rows []catalog.Row
	err := s.db.SelectContext(ctx, &rows, `
		SELECT category_id, category_name, brand_id, brand_name, item_id, item_name, unit_price, stock
		FROM catalog_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return rows, nil
}

// LoadCatalog builds a catalog index from the catalog_items table
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Index, error) {
	rows, err := s.LoadCatalogRows(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.FromRows(rows)
}
