package user

import "context"

// Repository defines data access for user accounts.
type Repository interface {
	// CreateUser persists a new account. Returns domain.ErrUserExists when
	// the id is already taken.
	CreateUser(ctx context.Context, u *User) error

	// GetUserByID retrieves an account, or domain.ErrUserNotFound.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// UpdateToken replaces the stored session token and terminal.
	UpdateToken(ctx context.Context, id, token, terminal string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// AddBalance credits an account unconditionally (top-up path).
	// Settlement debits go through the payment repository instead.
	AddBalance(ctx context.Context, id string, amount int64) error

	// DeleteUser removes an account, or domain.ErrUserNotFound.
	DeleteUser(ctx context.Context, id string) error
}
