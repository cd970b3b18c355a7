package user

import "time"

// User represents a registered account. Buyers and sellers share the same
// account type; the balance is kept in the smallest currency unit and is
// mutated only by deposits and order settlement.
type User struct {
	ID           string    `json:"user_id"`
	PasswordHash string    `json:"-"`
	Balance      int64     `json:"balance"`
	Token        string    `json:"-"`
	Terminal     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
