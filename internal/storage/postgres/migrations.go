// Package postgres holds the relational schema shared by the per-module
// PostgreSQL repositories.
package postgres

import "database/sql"

// The CHECK constraints are the last line of defense: every code path that
// decrements stock or balance already re-checks the bound in its WHERE
// clause.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		balance       BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		token         TEXT NOT NULL DEFAULT '',
		terminal      TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS stores (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		store_id    TEXT NOT NULL REFERENCES stores(id),
		book_id     TEXT NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
		stock       INTEGER NOT NULL CHECK (stock >= 0),
		book_info   JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (store_id, book_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          TEXT PRIMARY KEY,
		buyer_id    TEXT NOT NULL REFERENCES users(id),
		store_id    TEXT NOT NULL REFERENCES stores(id),
		total_cents BIGINT NOT NULL CHECK (total_cents >= 0),
		status      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id    TEXT NOT NULL REFERENCES orders(id),
		book_id     TEXT NOT NULL,
		quantity    INTEGER NOT NULL CHECK (quantity > 0),
		price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
		PRIMARY KEY (order_id, book_id)
	)`,
	// The reaper scans by (status, created_at).
	`CREATE INDEX IF NOT EXISTS idx_orders_status_created_at
		ON orders (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_buyer
		ON orders (buyer_id, created_at DESC)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
