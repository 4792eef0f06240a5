package server

import (
	"net/http"

	financialdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetProjectFinancial(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	projectID, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	financial, err := s.financialSvc.GetByProject(c.Request.Context(), sess, projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, financial)
}

func (s *Server) GetFinancial(c *gin.Context) {
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

	financial, err := s.financialSvc.Get(c.Request.Context(), sess, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, financial)
}

func (s *Server) ListFinancialUpdates(c *gin.Context) {
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

	updates, err := s.financialSvc.ListUpdates(c.Request.Context(), sess, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updates": updates})
}

// AddFinancialUpdate records a payment (amount set) or a note (amount null).
func (s *Server) AddFinancialUpdate(c *gin.Context) {
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

	var req financialdomain.AddUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.financialSvc.AddUpdate(c.Request.Context(), sess, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) FinancialStatement(c *gin.Context) {
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

	file, err := s.financialSvc.Statement(c.Request.Context(), sess, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	sendFile(c, file)
}
