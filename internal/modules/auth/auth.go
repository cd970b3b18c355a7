package auth

import "context"

// Service defines the interface for authentication-related business logic.
//
// The order and payment modules consume only VerifyToken and VerifyPassword;
// token issuance stays behind these methods.
type Service interface {
	// Login checks the password and mints a fresh session token bound to the
	// calling terminal. The token replaces any previous session.
	Login(ctx context.Context, userID, password, terminal string) (string, error)

	// Logout invalidates the current session token.
	Logout(ctx context.Context, userID, token string) error

	// VerifyToken checks that token is the user's current, unexpired session.
	VerifyToken(ctx context.Context, userID, token string) error

	// VerifyPassword checks a plaintext password against the stored hash.
	VerifyPassword(ctx context.Context, userID, password string) error

	// ChangePassword rotates the password and invalidates the session.
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}
