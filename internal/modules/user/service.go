package user

import "context"

// Service defines the interface for user-related business logic.
type Service interface {
	// Register creates an account with the caller-chosen id and a zero balance.
	Register(ctx context.Context, userID, password string) (*User, error)

	// GetUser retrieves an account by id.
	GetUser(ctx context.Context, id string) (*User, error)

	// Deposit credits the account balance by amount (smallest currency unit).
	Deposit(ctx context.Context, userID string, amount int64) error

	// Unregister deletes the account after checking the password.
	Unregister(ctx context.Context, userID, password string) error
}
