package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/export"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"gorm.io/gorm"
)

type Service interface {
	// CreateForAcceptedOffer opens the ledger inside the caller's transaction.
	CreateForAcceptedOffer(ctx context.Context, tx *gorm.DB, input CreateInput) (*Financial, error)
	Get(ctx context.Context, sess session.Session, id snowflake.ID) (*Financial, error)
	GetByProject(ctx context.Context, sess session.Session, projectID snowflake.ID) (*Financial, error)
	AddUpdate(ctx context.Context, sess session.Session, financialID snowflake.ID, req AddUpdateRequest) (*AddUpdateResult, error)
	ListUpdates(ctx context.Context, sess session.Session, financialID snowflake.ID) ([]Update, error)
	Statement(ctx context.Context, sess session.Session, financialID snowflake.ID) (*export.File, error)
}

type CreateInput struct {
	ProjectID       snowflake.ID
	OfferID         snowflake.ID
	FreelancerID    snowflake.ID
	ManagerID       snowflake.ID
	AcceptedPrice   int64
	EstimatedBudget int64
}

type AddUpdateRequest struct {
	Amount      *int64 `json:"amount"`
	Description string `json:"description"`
}

type AddUpdateResult struct {
	Financial *Financial `json:"financial"`
	Update    *Update    `json:"update"`
}
