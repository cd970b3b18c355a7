package payment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bookmart/bookmart-backend/internal/domain"

	"github.com/bookmart/bookmart-backend/internal/modules/order"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL settlement repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

// Settle runs the whole settlement in one transaction. The status flip goes
// first so that a replayed payment reports invalid status rather than
// insufficient funds; the buyer debit re-checks the balance at write time.
func (r *postgresRepo) Settle(ctx context.Context, orderID, buyerID, sellerID string, amount int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transient(err)
	}
	defer tx.Rollback()

	now := time.Now()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		order.StatusPaid, now, orderID, order.StatusUnpaid)
	if err != nil {
		return domain.Transient(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.Transient(err)
	} else if n == 0 {
		return fmt.Errorf("%w: order %s is not unpaid", domain.ErrOrderStatusInvalid, orderID)
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE users SET balance = balance - $1, updated_at=$2 WHERE id=$3 AND balance >= $1`,
		amount, now, buyerID)
	if err != nil {
		return domain.Transient(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.Transient(err)
	} else if n == 0 {
		return fmt.Errorf("%w: order %s", domain.ErrInsufficientFunds, orderID)
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + $1, updated_at=$2 WHERE id=$3`,
		amount, now, sellerID)
	if err != nil {
		return domain.Transient(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return domain.Transient(err)
	} else if n == 0 {
		return domain.ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return domain.Transient(err)
	}
	return nil
}
