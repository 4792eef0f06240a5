package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/export"
	financialdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	projectdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, sess session.Session, projectID snowflake.ID, req CreateRequest) (*Offer, error)
	Get(ctx context.Context, sess session.Session, id snowflake.ID) (*Offer, error)
	List(ctx context.Context, sess session.Session, req ListRequest) (ListResponse, error)
	// UpdateOfferStatus records the manager's decision. Accepting moves the
	// project to IN_PROGRESS and opens its financial ledger atomically.
	UpdateOfferStatus(ctx context.Context, sess session.Session, id snowflake.ID, status string) (*DecisionResult, error)
	ExportCSV(ctx context.Context, sess session.Session, req ListRequest) (*export.File, error)
}

type CreateRequest struct {
	Price        int64  `json:"price"`
	DeliveryTime int    `json:"delivery_time"`
	Message      string `json:"message"`
}

type ListRequest struct {
	pagination.Pagination
	ProjectID string `form:"project_id"`
	Status    string `form:"status"`
}

type ListResponse struct {
	pagination.PageInfo
	Offers []Offer `json:"offers"`
}

type DecisionResult struct {
	Offer     *Offer                     `json:"offer"`
	Project   *projectdomain.Project     `json:"project,omitempty"`
	Financial *financialdomain.Financial `json:"financial,omitempty"`
}
