package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (authdomain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&authdomain.Identity{}, &authdomain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo, sessionRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	return New(Params{
		DB:          dbConn,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repo,
		SessionRepo: sessionRepo,
	}), clk
}

func TestSignUpNormalizesEmail(t *testing.T) {
	svc, _ := newTestService(t)

	identity, err := svc.SignUp(context.Background(), authdomain.SignUpRequest{
		Email:    "  Alice@Example.com ",
		Password: "correct-password",
		Metadata: map[string]any{"name": "Alice"},
	})
	if err != nil {
		t.Fatalf("failed to sign up: %v", err)
	}
	if identity.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %s", identity.Email)
	}
	if identity.DisplayName() != "Alice" {
		t.Fatalf("expected display name Alice, got %q", identity.DisplayName())
	}

	_, err = svc.SignUp(context.Background(), authdomain.SignUpRequest{
		Email:    "alice@example.com",
		Password: "another-password",
	})
	if err != authdomain.ErrIdentityExists {
		t.Fatalf("expected ErrIdentityExists, got %v", err)
	}
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp(context.Background(), authdomain.SignUpRequest{
		Email:    "bob@example.com",
		Password: "short",
	})
	if err != authdomain.ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.SignUp(context.Background(), authdomain.SignUpRequest{
		Email:    "alice@example.com",
		Password: "correct-password",
	}); err != nil {
		t.Fatalf("failed to sign up: %v", err)
	}

	_, err := svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	if err != authdomain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateLifecycle(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, authdomain.SignUpRequest{
		Email:    "carol@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("failed to sign up: %v", err)
	}

	result, err := svc.Login(ctx, authdomain.LoginRequest{
		Email:    "carol@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}

	identity, err := svc.Authenticate(ctx, result.RawToken)
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	if identity.ID != created.ID {
		t.Fatalf("expected identity %s, got %s", created.ID, identity.ID)
	}

	if _, err := svc.Authenticate(ctx, "not-a-token"); err != authdomain.ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	clk.Advance(sessionTTL)
	if _, err := svc.Authenticate(ctx, result.RawToken); err != authdomain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, authdomain.SignUpRequest{
		Email:    "dave@example.com",
		Password: "correct-password",
	}); err != nil {
		t.Fatalf("failed to sign up: %v", err)
	}
	result, err := svc.Login(ctx, authdomain.LoginRequest{
		Email:    "dave@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}

	if err := svc.Logout(ctx, result.RawToken); err != nil {
		t.Fatalf("failed to logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, result.RawToken); err != authdomain.ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}
