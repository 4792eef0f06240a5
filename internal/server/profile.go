package server

import (
	"net/http"

	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"github.com/gin-gonic/gin"
)

// GetProfile returns the caller's profile, provisioning it when missing.
func (s *Server) GetProfile(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	profile, err := s.profileSvc.EnsureProfile(c.Request.Context(), sess)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) UpdateProfile(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req profiledomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	profile, err := s.profileSvc.Update(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
