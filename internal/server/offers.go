package server

import (
	"net/http"
	"strings"

	offerdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateOffer(c *gin.Context) {
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

	var req offerdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	offer, err := s.offerSvc.Create(c.Request.Context(), sess, projectID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (s *Server) ListOffers(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req offerdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.offerSvc.List(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListProjectOffers(c *gin.Context) {
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

	var req offerdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ProjectID = projectID.String()

	resp, err := s.offerSvc.List(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetOffer(c *gin.Context) {
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

	offer, err := s.offerSvc.Get(c.Request.Context(), sess, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

// UpdateOfferStatus accepts or rejects an offer. Accepting also returns the
// project now IN_PROGRESS and its newly opened financial record.
func (s *Server) UpdateOfferStatus(c *gin.Context) {
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

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.offerSvc.UpdateOfferStatus(c.Request.Context(), sess, id, req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportOffers downloads the caller's visible offers as offers-<yyyy-MM-dd>.csv.
func (s *Server) ExportOffers(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req offerdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	file, err := s.offerSvc.ExportCSV(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	sendFile(c, file)
}
