package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
)

type Service interface {
	// EnsureProfile returns the caller's profile, creating a FREELANCER profile
	// when policy allows an identity without an invitation to self-provision.
	EnsureProfile(ctx context.Context, sess session.Session) (*Profile, error)
	Get(ctx context.Context, sess session.Session) (*Profile, error)
	Update(ctx context.Context, sess session.Session, req UpdateRequest) (*Profile, error)
	Lookup(ctx context.Context, id snowflake.ID) (*Profile, error)
}

type UpdateRequest struct {
	Name              *string `json:"name"`
	AvatarURL         *string `json:"avatar_url"`
	PreferredPlatform *string `json:"preferred_platform"`
}

// PendingInvitations reports whether an unused, unexpired invitation targets email.
type PendingInvitations interface {
	HasPendingFor(ctx context.Context, email string, now time.Time) (bool, error)
}

var (
	ErrProfileNotFound   = errors.New("profile_not_found")
	ErrProfileRequired   = errors.New("profile_required")
	ErrProfileExists     = errors.New("profile_exists")
	ErrInvitationPending = errors.New("invitation_pending")
	ErrInvalidSession    = errors.New("invalid_session")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidPlatform   = errors.New("invalid_preferred_platform")
	ErrInvalidAvatarURL  = errors.New("invalid_avatar_url")
)
