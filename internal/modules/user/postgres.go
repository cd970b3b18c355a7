package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/bookmart/bookmart-backend/internal/domain"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, password_hash, balance, token, terminal)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.PasswordHash, u.Balance, u.Token, u.Terminal)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrUserExists
		}
		return domain.Transient(err)
	}
	return nil
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	u := &User{}
	query := `
		SELECT id, password_hash, balance, token, terminal, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.PasswordHash,
		&u.Balance,
		&u.Token,
		&u.Terminal,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, domain.Transient(err)
	}
	return u, nil
}

func (r *postgresRepository) UpdateToken(ctx context.Context, id, token, terminal string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET token=$1, terminal=$2, updated_at=$3 WHERE id=$4`,
		token, terminal, time.Now(), id)
	if err != nil {
		return domain.Transient(err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (r *postgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash=$1, updated_at=$2 WHERE id=$3`,
		passwordHash, time.Now(), id)
	if err != nil {
		return domain.Transient(err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (r *postgresRepository) AddBalance(ctx context.Context, id string, amount int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET balance = balance + $1, updated_at=$2 WHERE id=$3`,
		amount, time.Now(), id)
	if err != nil {
		return domain.Transient(err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (r *postgresRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return domain.Transient(err)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Transient(err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
