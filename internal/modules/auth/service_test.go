package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bookmart/bookmart-backend/internal/domain"
	"github.com/bookmart/bookmart-backend/internal/modules/auth"
	"github.com/bookmart/bookmart-backend/internal/modules/user"
	"github.com/bookmart/bookmart-backend/internal/storage/memory"
)

func newEnv(t *testing.T) (user.Service, auth.Service) {
	t.Helper()
	mem := memory.New()
	users := user.NewService(mem)
	if _, err := users.Register(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	return users, auth.NewService(mem)
}

func TestLogin(t *testing.T) {
	_, svc := newEnv(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "ghost", "secret", "t1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("unknown user error = %v, want ErrUserNotFound", err)
	}
	if _, err := svc.Login(ctx, "alice", "wrong", "t1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("wrong password error = %v, want ErrUnauthorized", err)
	}

	token, err := svc.Login(ctx, "alice", "secret", "t1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("login returned empty token")
	}
	if err := svc.VerifyToken(ctx, "alice", token); err != nil {
		t.Fatalf("verify fresh token: %v", err)
	}
}

func TestLoginInvalidatesPreviousToken(t *testing.T) {
	_, svc := newEnv(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, "alice", "secret", "t1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Login(ctx, "alice", "secret", "t2")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := svc.VerifyToken(ctx, "alice", first); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("stale token error = %v, want ErrUnauthorized", err)
	}
	if err := svc.VerifyToken(ctx, "alice", second); err != nil {
		t.Fatalf("current token: %v", err)
	}
}

func TestVerifyTokenRejectsForeignToken(t *testing.T) {
	users, svc := newEnv(t)
	ctx := context.Background()

	if _, err := users.Register(ctx, "bob", "hunter2"); err != nil {
		t.Fatalf("register bob: %v", err)
	}
	aliceToken, err := svc.Login(ctx, "alice", "secret", "t1")
	if err != nil {
		t.Fatalf("login alice: %v", err)
	}
	if _, err := svc.Login(ctx, "bob", "hunter2", "t1"); err != nil {
		t.Fatalf("login bob: %v", err)
	}

	if err := svc.VerifyToken(ctx, "bob", aliceToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("foreign token error = %v, want ErrUnauthorized", err)
	}
}

func TestLogout(t *testing.T) {
	_, svc := newEnv(t)
	ctx := context.Background()

	token, err := svc.Login(ctx, "alice", "secret", "t1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, "alice", token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.VerifyToken(ctx, "alice", token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("token after logout error = %v, want ErrUnauthorized", err)
	}
	if err := svc.Logout(ctx, "alice", token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("double logout error = %v, want ErrUnauthorized", err)
	}
}

func TestChangePassword(t *testing.T) {
	_, svc := newEnv(t)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, "alice", "wrong", "next"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("wrong old password error = %v, want ErrUnauthorized", err)
	}
	if err := svc.ChangePassword(ctx, "alice", "secret", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty new password error = %v, want ErrInvalidInput", err)
	}

	token, err := svc.Login(ctx, "alice", "secret", "t1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.ChangePassword(ctx, "alice", "secret", "next"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if err := svc.VerifyPassword(ctx, "alice", "secret"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if err := svc.VerifyPassword(ctx, "alice", "next"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	// Sessions do not survive a password change.
	if err := svc.VerifyToken(ctx, "alice", token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("token after password change error = %v, want ErrUnauthorized", err)
	}
}
