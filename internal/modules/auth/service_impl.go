package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookmart/bookmart-backend/internal/domain"
	"github.com/bookmart/bookmart-backend/internal/modules/user"
)

// tokenLifetime bounds how long a minted session token stays valid.
const tokenLifetime = time.Hour

type claims struct {
	UserID   string `json:"user_id"`
	Terminal string `json:"terminal"`
	jwt.StandardClaims
}

type service struct {
	userRepo user.Repository
}

// NewService creates a new auth service.
func NewService(userRepo user.Repository) Service {
	return &service{userRepo: userRepo}
}

// signingKey derives the per-user HMAC key. Tokens minted for one user can
// never validate for another.
func signingKey(userID string) []byte {
	return []byte(userID)
}

func mintToken(userID, terminal string, now time.Time) (string, error) {
	c := &claims{
		UserID:   userID,
		Terminal: terminal,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenLifetime).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(signingKey(userID))
}

func (s *service) Login(ctx context.Context, userID, password, terminal string) (string, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrUnauthorized
	}

	token, err := mintToken(userID, terminal, time.Now())
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}

	if err := s.userRepo.UpdateToken(ctx, userID, token, terminal); err != nil {
		return "", err
	}
	return token, nil
}

func (s *service) Logout(ctx context.Context, userID, token string) error {
	if err := s.VerifyToken(ctx, userID, token); err != nil {
		return err
	}

	// Replacing the stored token invalidates the presented one.
	terminal := fmt.Sprintf("terminal_%d", time.Now().UnixNano())
	dummy, err := mintToken(userID, terminal, time.Now())
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}
	return s.userRepo.UpdateToken(ctx, userID, dummy, terminal)
}

func (s *service) VerifyToken(ctx context.Context, userID, token string) error {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Token == "" || u.Token != token {
		return domain.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingKey(userID), nil
	})
	if err != nil || !parsed.Valid {
		return domain.ErrUnauthorized
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.UserID != userID {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *service) VerifyPassword(ctx context.Context, userID, password string) error {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := s.VerifyPassword(ctx, userID, oldPassword); err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", domain.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}

	// Force re-login on all terminals.
	terminal := fmt.Sprintf("terminal_%d", time.Now().UnixNano())
	fresh, err := mintToken(userID, terminal, time.Now())
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}
	return s.userRepo.UpdateToken(ctx, userID, fresh, terminal)
}
