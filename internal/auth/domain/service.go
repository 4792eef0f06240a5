package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*Identity, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Identity, error)
	FindIdentity(ctx context.Context, id snowflake.ID) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
}

type SignUpRequest struct {
	Email    string
	Password string
	Metadata map[string]any
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	Identity  *Identity
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
