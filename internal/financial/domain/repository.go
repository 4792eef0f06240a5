package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, financial *Financial) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Financial, error)
	// FindForUpdate row-locks the ledger header on dialects that support it.
	FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Financial, error)
	FindByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (*Financial, error)
	UpdateTotals(ctx context.Context, db *gorm.DB, financial *Financial) error
	// SumPayments totals the non-null update amounts and counts them.
	SumPayments(ctx context.Context, db *gorm.DB, financialID snowflake.ID) (total int64, count int64, err error)
}
