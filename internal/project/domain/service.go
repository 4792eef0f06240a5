package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/export"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, sess session.Session, req CreateRequest) (*Project, error)
	Get(ctx context.Context, sess session.Session, id snowflake.ID) (*Project, error)
	List(ctx context.Context, sess session.Session, req ListRequest) (ListResponse, error)
	Update(ctx context.Context, sess session.Session, id snowflake.ID, req UpdateRequest) (*Project, error)
	UpdateStatus(ctx context.Context, sess session.Session, id snowflake.ID, status string) (*Project, error)
	Delete(ctx context.Context, sess session.Session, id snowflake.ID) error
	ExportCSV(ctx context.Context, sess session.Session, req ListRequest) (*export.File, error)

	CreateCategory(ctx context.Context, sess session.Session, req CreateCategoryRequest) (*Category, error)
	ListCategories(ctx context.Context, sess session.Session) ([]Category, error)
}

type CreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Budget      int64      `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
	CategoryID  *string    `json:"category_id"`
}

type UpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Budget      *int64     `json:"budget"`
	Deadline    *time.Time `json:"deadline"`
	CategoryID  *string    `json:"category_id"`
}

type ListRequest struct {
	pagination.Pagination
	Status     string `form:"status"`
	CategoryID string `form:"category_id"`
}

type ListResponse struct {
	pagination.PageInfo
	Projects []Project `json:"projects"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}
