package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/commerce-policy/internal/config"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id             TEXT PRIMARY KEY,
	number         TEXT NOT NULL UNIQUE,
	customer_id    TEXT NOT NULL,
	customer_email TEXT NOT NULL DEFAULT '',
	items          JSONB NOT NULL,
	totals         JSONB NOT NULL,
	promo_code     TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	history        JSONB NOT NULL DEFAULT '[]',
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	version        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders (customer_id);

CREATE TABLE IF NOT EXISTS reviews (
	id                TEXT PRIMARY KEY,
	product_id        TEXT NOT NULL,
	author_id         TEXT NOT NULL,
	rating            SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	title             TEXT NOT NULL,
	body              TEXT NOT NULL DEFAULT '',
	verified_purchase BOOLEAN NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reviews_product_id ON reviews (product_id, created_at DESC);

CREATE TABLE IF NOT EXISTS promo_codes (
	code          TEXT PRIMARY KEY,
	discount_type TEXT NOT NULL,
	value         NUMERIC(12, 2) NOT NULL,
	min_subtotal  NUMERIC(12, 2) NOT NULL DEFAULT 0,
	expires_at    TIMESTAMPTZ,
	description   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS product_review_summaries (
	product_id     TEXT PRIMARY KEY,
	review_count   INTEGER NOT NULL DEFAULT 0,
	verified_count INTEGER NOT NULL DEFAULT 0,
	rating_total   INTEGER NOT NULL DEFAULT 0,
	average_rating NUMERIC(4, 2) NOT NULL DEFAULT 0,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE product_review_summaries
	ADD COLUMN IF NOT EXISTS applied_event_ids TEXT[] NOT NULL DEFAULT '{}';
`

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// Migrate creates the tables used by the Postgres stores if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
