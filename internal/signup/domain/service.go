package domain

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
)

type Service interface {
	// SignupWithInvitation creates an identity and consumes the invitation for it.
	SignupWithInvitation(ctx context.Context, req Request) (*Result, error)
}

type Request struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type Result struct {
	Identity  *authdomain.Identity
	Profile   *profiledomain.Profile
	RawToken  string
	ExpiresAt time.Time
}

var (
	ErrInvalidRequest    = errors.New("invalid_signup_request")
	ErrEmailMismatch     = errors.New("email_mismatch")
	ErrPartialCompletion = errors.New("partial_completion")
)

const PartialCompletionMessage = "account created but profile setup had an issue, try signing in"

// PartialCompletionError reports an identity that exists without a profile.
// It matches ErrPartialCompletion and unwraps to the cause.
type PartialCompletionError struct {
	IdentityID string
	Cause      error
}

func (e *PartialCompletionError) Error() string {
	return PartialCompletionMessage + ": " + e.Cause.Error()
}

func (e *PartialCompletionError) Is(target error) bool {
	return target == ErrPartialCompletion
}

func (e *PartialCompletionError) Unwrap() error {
	return e.Cause
}
