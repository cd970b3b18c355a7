package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bookmart/bookmart-backend/internal/domain"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL order repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

// CreateOrder inserts the order and all its lines inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transient(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, store_id, total_cents, status)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.BuyerID, o.StoreID, o.TotalCents, o.Status)
	if err != nil {
		return domain.Transient(fmt.Errorf("insert order: %w", err))
	}

	for _, l := range o.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, book_id, quantity, price_cents)
			VALUES ($1, $2, $3, $4)`,
			o.ID, l.BookID, l.Quantity, l.PriceCents)
		if err != nil {
			return domain.Transient(fmt.Errorf("insert order_line: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Transient(err)
	}
	return nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	o := &Order{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, buyer_id, store_id, total_cents, status, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.BuyerID, &o.StoreID, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Transient(err)
	}

	o.Lines, err = r.listLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*Order, error) {
	return r.queryOrders(ctx, `
		SELECT id, buyer_id, store_id, total_cents, status, created_at, updated_at
		FROM orders WHERE buyer_id=$1 ORDER BY created_at DESC`, buyerID)
}

func (r *postgresRepo) UpdateStatusIf(ctx context.Context, id string, from, to Status) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		to, time.Now(), id, from)
	if err != nil {
		return false, domain.Transient(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.Transient(err)
	}
	return n == 1, nil
}

func (r *postgresRepo) ListUnpaidBefore(ctx context.Context, cutoff time.Time) ([]*Order, error) {
	return r.queryOrders(ctx, `
		SELECT id, buyer_id, store_id, total_cents, status, created_at, updated_at
		FROM orders WHERE status=$1 AND created_at < $2 ORDER BY created_at ASC`,
		StatusUnpaid, cutoff)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.StoreID, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, domain.Transient(err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Transient(err)
	}

	for _, o := range orders {
		if o.Lines, err = r.listLines(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *postgresRepo) listLines(ctx context.Context, orderID string) ([]*Line, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, book_id, quantity, price_cents
		FROM order_lines WHERE order_id=$1 ORDER BY book_id ASC`, orderID)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer rows.Close()

	var lines []*Line
	for rows.Next() {
		l := &Line{}
		if err := rows.Scan(&l.OrderID, &l.BookID, &l.Quantity, &l.PriceCents); err != nil {
			return nil, domain.Transient(err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Transient(err)
	}
	return lines, nil
}
