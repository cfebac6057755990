// Package pgcatalog loads the Ordercore product catalog from a PostgreSQL
// database. The table is read once at startup into an in-memory
// [catalog.Index]; the engine never writes product rows.
package pgcatalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pourlane/ordercore/internal/catalog"
)

// Schema is the SQL DDL for the catalog_items table. Execute it via
// [Source.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS catalog_items (
    product_id      BIGINT PRIMARY KEY,
    name            TEXT NOT NULL,
    base_price      NUMERIC(8,2) NOT NULL DEFAULT 0,
    category        TEXT NOT NULL DEFAULT 'drink',
    modifier_prices JSONB NOT NULL DEFAULT '{}',
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_catalog_items_name ON catalog_items(lower(name));
`

// DB is the database interface used by [Source]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Source reads catalog entries from a PostgreSQL database.
type Source struct {
	db DB
}

// New creates a [Source] that uses the given database connection or pool.
// The caller is responsible for calling [Source.Migrate] to ensure the schema
// exists before issuing queries.
func New(db DB) *Source {
	return &Source{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// catalog_items table and index if they do not already exist.
func (s *Source) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("pgcatalog: migrate: %w", err)
	}
	return nil
}

// Load reads every catalog row and returns the entries in name order.
// Modifier surcharges are stored as a JSONB object mapping canonical modifier
// value to price.
func (s *Source) Load(ctx context.Context) ([]catalog.Entry, error) {
	const query = `
		SELECT product_id, name, base_price, category, modifier_prices
		FROM   catalog_items
		ORDER  BY name`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgcatalog: query catalog: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Entry, error) {
		var (
			e        catalog.Entry
			modsJSON []byte
		)
		if err := row.Scan(&e.ProductID, &e.Name, &e.BasePrice, &e.Category, &modsJSON); err != nil {
			return catalog.Entry{}, err
		}
		if len(modsJSON) > 0 {
			if err := json.Unmarshal(modsJSON, &e.ModifierPrices); err != nil {
				return catalog.Entry{}, fmt.Errorf("modifier_prices for product %d: %w", e.ProductID, err)
			}
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgcatalog: scan rows: %w", err)
	}
	return entries, nil
}

// LoadIndex loads all entries and builds a [catalog.Index] over them.
func (s *Source) LoadIndex(ctx context.Context) (*catalog.Index, error) {
	entries, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := catalog.NewIndex(entries)
	if err != nil {
		return nil, fmt.Errorf("pgcatalog: build index: %w", err)
	}
	return idx, nil
}
