package server

import (
	"net/http"
	"strings"
	"time"

	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	signupdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/signup/domain"
	"github.com/gin-gonic/gin"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Identity  *authdomain.Identity   `json:"identity"`
	Profile   *profiledomain.Profile `json:"profile,omitempty"`
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expires_at"`
}

func (s *Server) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	metadata := map[string]any{}
	if name := strings.TrimSpace(req.Name); name != "" {
		metadata["name"] = name
	}
	if role := strings.ToUpper(strings.TrimSpace(req.Role)); role != "" {
		metadata["requested_role"] = role
	}

	ctx := c.Request.Context()
	if _, err := s.authSvc.SignUp(ctx, authdomain.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
		Metadata: metadata,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.authSvc.Login(ctx, authdomain.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.cookies.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusCreated, sessionResponse{
		Identity:  result.Identity,
		Token:     result.RawToken,
		ExpiresAt: result.ExpiresAt,
	})
}

func (s *Server) SignUpWithInvitation(c *gin.Context) {
	var req signupdomain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.IPAddress = c.ClientIP()

	result, err := s.signupSvc.SignupWithInvitation(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if result.RawToken != "" {
		s.cookies.Set(c, result.RawToken, result.ExpiresAt)
	}
	c.JSON(http.StatusCreated, sessionResponse{
		Identity:  result.Identity,
		Profile:   result.Profile,
		Token:     result.RawToken,
		ExpiresAt: result.ExpiresAt,
	})
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authSvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.cookies.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, sessionResponse{
		Identity:  result.Identity,
		Token:     result.RawToken,
		ExpiresAt: result.ExpiresAt,
	})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.cookies.ReadToken(c); ok {
		if err := s.authSvc.Logout(c.Request.Context(), token); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	s.cookies.Clear(c)
	c.Status(http.StatusNoContent)
}

type meResponse struct {
	ID         string                 `json:"id"`
	Email      string                 `json:"email"`
	Name       string                 `json:"name,omitempty"`
	Role       string                 `json:"role,omitempty"`
	Superadmin bool                   `json:"is_superadmin"`
	Profile    *profiledomain.Profile `json:"profile,omitempty"`
}

func (s *Server) Me(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp := meResponse{
		ID:         sess.IdentityID.String(),
		Email:      sess.Email,
		Name:       sess.Name,
		Role:       sess.Role,
		Superadmin: sess.Superadmin,
	}
	if sess.HasProfile() {
		profile, err := s.profileSvc.Get(c.Request.Context(), sess)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		resp.Profile = profile
	}
	c.JSON(http.StatusOK, resp)
}
