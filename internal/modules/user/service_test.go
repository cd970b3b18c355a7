package user_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/bookmart/bookmart-backend/internal/domain"
	"github.com/bookmart/bookmart-backend/internal/modules/user"
	"github.com/bookmart/bookmart-backend/internal/storage/memory"
)

func newService(t *testing.T) user.Service {
	t.Helper()
	return user.NewService(memory.New())
}

func TestRegister(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID != "alice" {
		t.Errorf("id = %q, want alice", u.ID)
	}
	if u.Balance != 0 {
		t.Errorf("initial balance = %d, want 0", u.Balance)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "other"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("duplicate register error = %v, want ErrUserExists", err)
	}
	if _, err := svc.Register(ctx, "", "pw"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty id error = %v, want ErrInvalidInput", err)
	}
}

func TestGetUser(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.GetUser(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}

	if _, err := svc.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	u, err := svc.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.ID != "alice" {
		t.Errorf("id = %q, want alice", u.ID)
	}
}

func TestDeposit(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name    string
		userID  string
		amount  int64
		wantErr error
	}{
		{"ok", "alice", 5000, nil},
		{"accumulates", "alice", 2500, nil},
		{"zero amount", "alice", 0, domain.ErrInvalidInput},
		{"negative amount", "alice", -10, domain.ErrInvalidInput},
		{"unknown user", "ghost", 100, domain.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Deposit(ctx, tt.userID, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	u, err := svc.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Balance != 7500 {
		t.Errorf("balance = %d, want 7500", u.Balance)
	}
}

func TestUnregister(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Unregister(ctx, "ghost", "secret"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("unknown user error = %v, want ErrUserNotFound", err)
	}
	if err := svc.Unregister(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("wrong password error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.GetUser(ctx, "alice"); err != nil {
		t.Fatalf("account deleted despite rejected password: %v", err)
	}

	if err := svc.Unregister(ctx, "alice", "secret"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if _, err := svc.GetUser(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("error after unregister = %v, want ErrUserNotFound", err)
	}

	// The id is free again.
	if _, err := svc.Register(ctx, "alice", "fresh"); err != nil {
		t.Fatalf("re-register after unregister: %v", err)
	}
}
