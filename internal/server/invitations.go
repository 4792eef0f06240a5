package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	invitationdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	"github.com/gin-gonic/gin"
)

type invitationResponse struct {
	*invitationdomain.Invitation
	Link string `json:"link"`
}

func (s *Server) GenerateInvitation(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req invitationdomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invitation, err := s.invitationSvc.GenerateSignupLink(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invitationResponse{
		Invitation: invitation,
		Link:       s.invitationSvc.SignupLink(invitation.Token),
	})
}

func (s *Server) ListInvitations(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req invitationdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invitationSvc.List(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteInvitation(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.invitationSvc.DeleteInvitation(c.Request.Context(), sess, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ValidateInvitation(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	validation, err := s.invitationSvc.ValidateToken(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, validation)
}

type sendInvitationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
	Link    string `json:"link"`
}

// SendInvitation is the send-invitation function: it issues a targeted
// invitation and emails the signup link, answering plain text on failure.
func (s *Server) SendInvitation(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		abortPlain(c, ErrUnauthorized)
		return
	}

	var req invitationdomain.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortPlain(c, invalidRequestError())
		return
	}

	result, err := s.invitationSvc.SendInvitation(c.Request.Context(), sess, req)
	if err != nil {
		abortPlain(c, err)
		return
	}

	c.JSON(http.StatusOK, sendInvitationResponse{
		Success: true,
		Message: "invitation sent to " + result.Invitation.Email,
		ID:      result.Invitation.ID.String(),
		Link:    result.Link,
	})
}

type completeInvitationRequest struct {
	Token  string  `json:"token"`
	UserID string  `json:"userId"`
	Name   *string `json:"name"`
}

type completeInvitationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Role    string `json:"role"`
}

// CompleteInvitation is the complete-invitation function. A caller that
// presents a session may only complete the invitation for itself.
func (s *Server) CompleteInvitation(c *gin.Context) {
	var req completeInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortPlain(c, invalidRequestError())
		return
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		abortPlain(c, invitationdomain.ErrInvalidUserID)
		return
	}

	if token, ok := s.cookies.ReadToken(c); ok {
		identity, err := s.authSvc.Authenticate(c.Request.Context(), token)
		if err == nil && identity != nil && identity.ID != userID {
			abortPlain(c, ErrForbidden)
			return
		}
	}

	result, err := s.invitationSvc.CompleteInvitation(c.Request.Context(), invitationdomain.CompleteRequest{
		Token:  req.Token,
		UserID: userID,
		Name:   req.Name,
	})
	if err != nil {
		abortPlain(c, err)
		return
	}

	c.JSON(http.StatusOK, completeInvitationResponse{
		Success: true,
		Message: "invitation completed",
		Role:    string(result.Role),
	})
}
