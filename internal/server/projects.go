package server

import (
	"net/http"
	"strings"

	projectdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	"github.com/gin-gonic/gin"
)

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) CreateProject(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req projectdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectSvc.Create(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (s *Server) ListProjects(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req projectdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.projectSvc.List(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetProject(c *gin.Context) {
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

	project, err := s.projectSvc.Get(c.Request.Context(), sess, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) UpdateProject(c *gin.Context) {
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

	var req projectdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectSvc.Update(c.Request.Context(), sess, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) UpdateProjectStatus(c *gin.Context) {
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

	project, err := s.projectSvc.UpdateStatus(c.Request.Context(), sess, id, req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) DeleteProject(c *gin.Context) {
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

	if err := s.projectSvc.Delete(c.Request.Context(), sess, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportProjects downloads the caller's visible projects as
// projects-<yyyy-MM-dd>.csv.
func (s *Server) ExportProjects(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req projectdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	file, err := s.projectSvc.ExportCSV(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	sendFile(c, file)
}

func (s *Server) CreateCategory(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req projectdomain.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	category, err := s.projectSvc.CreateCategory(c.Request.Context(), sess, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) ListCategories(c *gin.Context) {
	sess, ok := sessionFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	categories, err := s.projectSvc.ListCategories(c.Request.Context(), sess)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
