package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/pagination"
)

type Service interface {
	GenerateSignupLink(ctx context.Context, sess session.Session, req GenerateRequest) (*Invitation, error)
	ValidateToken(ctx context.Context, token string) (*Validation, error)
	CompleteInvitation(ctx context.Context, req CompleteRequest) (*CompleteResult, error)
	DeleteInvitation(ctx context.Context, sess session.Session, id snowflake.ID) error
	List(ctx context.Context, sess session.Session, req ListRequest) (ListResponse, error)
	SendInvitation(ctx context.Context, sess session.Session, req SendRequest) (*SendResult, error)
	SignupLink(token string) string
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

type GenerateRequest struct {
	Role  string `json:"role"`
	Email string `json:"email"`
}

type SendRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type SendResult struct {
	Invitation *Invitation
	Link       string
}

type Validation struct {
	Role      profiledomain.UserRole `json:"role"`
	Email     string                 `json:"email"`
	ExpiresAt time.Time              `json:"expires_at"`
}

type CompleteRequest struct {
	Token  string
	UserID snowflake.ID
	Name   *string
}

type CompleteResult struct {
	Role    profiledomain.UserRole
	Profile *profiledomain.Profile
}

type ListRequest struct {
	pagination.Pagination
}

type View struct {
	Invitation
	Status Status `json:"status"`
	Link   string `json:"link"`
}

type ListResponse struct {
	pagination.PageInfo
	Invitations []View `json:"invitations"`
}
