package inventory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/bookmart/bookmart-backend/internal/domain"
)

type storePostgresRepo struct{ db *sql.DB }

// NewStorePostgresRepository creates a new PostgreSQL store repository.
func NewStorePostgresRepository(db *sql.DB) StoreRepository {
	return &storePostgresRepo{db: db}
}

func (r *storePostgresRepo) CreateStore(ctx context.Context, st *Store) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stores (id, owner_id) VALUES ($1, $2)`,
		st.ID, st.OwnerID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrStoreExists
		}
		return domain.Transient(err)
	}
	return nil
}

func (r *storePostgresRepo) GetStore(ctx context.Context, id string) (*Store, error) {
	st := &Store{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, created_at FROM stores WHERE id=$1`, id).
		Scan(&st.ID, &st.OwnerID, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStoreNotFound
	}
	if err != nil {
		return nil, domain.Transient(err)
	}
	return st, nil
}

type listingPostgresRepo struct{ db *sql.DB }

// NewListingPostgresRepository creates a new PostgreSQL listing repository.
func NewListingPostgresRepository(db *sql.DB) ListingRepository {
	return &listingPostgresRepo{db: db}
}

func (r *listingPostgresRepo) AddListing(ctx context.Context, l *Listing) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO listings (store_id, book_id, title, price_cents, stock, book_info)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.StoreID, l.BookID, l.Title, l.PriceCents, l.Stock, nullableJSON(l.BookInfo))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrBookExists
		}
		return domain.Transient(err)
	}
	return nil
}

func (r *listingPostgresRepo) GetListing(ctx context.Context, storeID, bookID string) (*Listing, error) {
	l := &Listing{}
	var bookInfo []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT store_id, book_id, title, price_cents, stock, book_info, created_at, updated_at
		FROM listings WHERE store_id=$1 AND book_id=$2`,
		storeID, bookID).
		Scan(&l.StoreID, &l.BookID, &l.Title, &l.PriceCents, &l.Stock, &bookInfo, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookNotFound
	}
	if err != nil {
		return nil, domain.Transient(err)
	}
	l.BookInfo = bookInfo
	return l, nil
}

func (r *listingPostgresRepo) AddStock(ctx context.Context, storeID, bookID string, qty int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET stock = stock + $1, updated_at=$2 WHERE store_id=$3 AND book_id=$4`,
		qty, time.Now(), storeID, bookID)
	if err != nil {
		return domain.Transient(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Transient(err)
	}
	if n == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// ReserveStock re-checks the stock level at write time. The WHERE clause is
// the concurrency gate: the decrement applies only when stock >= qty still
// holds when the row is written.
func (r *listingPostgresRepo) ReserveStock(ctx context.Context, storeID, bookID string, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE listings SET stock = stock - $1, updated_at=$2
		WHERE store_id=$3 AND book_id=$4 AND stock >= $1`,
		qty, time.Now(), storeID, bookID)
	if err != nil {
		return false, domain.Transient(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.Transient(err)
	}
	return n == 1, nil
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
