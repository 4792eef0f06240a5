package server

import (
	"errors"
	"math"
	"strconv"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auditcontext"
	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	obscontext "github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/context"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/gin-gonic/gin"
)

const contextTokenKey = "session_token"

// Authenticated resolves the caller from the bearer token or session cookie
// and stores a session on the request context. Identities without a profile
// get a session with an empty role.
func (s *Server) Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.cookies.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.resolveSession(c, token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := session.WithSession(c.Request.Context(), sess)
		ctx = auditcontext.WithRequestInfo(ctx, c.ClientIP(), c.Request.UserAgent())
		ctx = obscontext.WithActorID(ctx, sess.IdentityID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextTokenKey, token)
		c.Next()
	}
}

func (s *Server) resolveSession(c *gin.Context, token string) (session.Session, error) {
	ctx := c.Request.Context()
	identity, err := s.authSvc.Authenticate(ctx, token)
	if err != nil {
		return session.Session{}, err
	}
	if identity == nil {
		return session.Session{}, authdomain.ErrInvalidSession
	}

	sess := session.Session{
		IdentityID: identity.ID,
		Email:      identity.Email,
		Name:       identity.DisplayName(),
	}

	profile, err := s.profileSvc.Lookup(ctx, identity.ID)
	switch {
	case errors.Is(err, profiledomain.ErrProfileNotFound):
		return sess, nil
	case err != nil:
		return session.Session{}, err
	}

	sess.Role = string(profile.Role)
	sess.Superadmin = profile.IsSuperadmin
	if profile.Name != nil && *profile.Name != "" {
		sess.Name = *profile.Name
	}
	return sess, nil
}

func sessionFrom(c *gin.Context) (session.Session, bool) {
	return session.FromContext(c.Request.Context())
}

// RateLimit throttles the route per client address within scope.
func (s *Server) RateLimit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		result := s.limiter.Allow(c.Request.Context(), scope, c.ClientIP())
		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			if scope == scopeFunctions {
				abortPlain(c, ErrRateLimited)
				return
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
