// Package session carries the authenticated caller through workflow functions.
package session

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleManager    = "MANAGER"
	RoleFreelancer = "FREELANCER"
)

// Session identifies the caller of a workflow. Role is empty until the identity
// has a profile.
type Session struct {
	IdentityID snowflake.ID
	Email      string
	Name       string
	Role       string
	Superadmin bool
}

func (s Session) IsManager() bool {
	return s.Role == RoleManager
}

func (s Session) IsFreelancer() bool {
	return s.Role == RoleFreelancer
}

func (s Session) HasProfile() bool {
	return s.Role != ""
}

// Subject returns the casbin subject for the session.
func (s Session) Subject() string {
	if s.Superadmin {
		return "role:superadmin"
	}
	if s.Role == "" {
		return "role:anonymous"
	}
	return "role:" + strings.ToLower(s.Role)
}

type contextKey struct{}

// WithSession stores sess on ctx. Only the HTTP layer should use it.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

func FromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}
