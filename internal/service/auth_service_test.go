package service

import (
	"context"
	"testing"

	"rendix/internal/apperr"
)

func TestRegisterAndLogin(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: "ana@example.com", Name: "Ana", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Errorf("Email = %q, want ana@example.com", user.Email)
	}

	// Duplicate registration is a conflict.
	if _, err := svc.Register(ctx, RegisterRequest{Email: "ana@example.com", Password: "secret123"}); !apperr.IsConflict(err) {
		t.Errorf("duplicate register error = %v, want conflict", err)
	}

	tokens, logged, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("Login returned empty tokens")
	}
	if logged.ID != user.ID {
		t.Errorf("Login user ID = %s, want %s", logged.ID, user.ID)
	}

	if _, _, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong"}); !apperr.IsAuthorization(err) {
		t.Errorf("wrong password error = %v, want authorization error", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Email: "not-an-email", Password: "secret123"}); !apperr.IsValidation(err) {
		t.Errorf("bad email error = %v, want validation error", err)
	}
	if _, err := svc.Register(ctx, RegisterRequest{Email: "ana@example.com", Password: "short"}); !apperr.IsValidation(err) {
		t.Errorf("short password error = %v, want validation error", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Email: "ana@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	tokens, _, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The old token is single-use.
	if _, err := svc.Refresh(ctx, tokens.RefreshToken); !apperr.IsAuthorization(err) {
		t.Errorf("reused refresh token error = %v, want authorization error", err)
	}
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{Email: "ana@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	tokens, _, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := svc.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, err := svc.Refresh(ctx, tokens.RefreshToken); !apperr.IsAuthorization(err) {
		t.Errorf("refresh after logout error = %v, want authorization error", err)
	}
}
