package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, project *Project) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	// FindForUpdate row-locks the project on dialects that support it.
	FindForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Project, error)
	UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status ProjectStatus, updatedAt time.Time) error
	// HasOfferFrom reports whether freelancerID has bid on the project.
	HasOfferFrom(ctx context.Context, db *gorm.DB, projectID, freelancerID snowflake.ID) (bool, error)
	// HasFinancial reports whether an accepted offer opened a ledger for the project.
	HasFinancial(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (bool, error)
	// DeleteCascade removes the project with its offers. Ledgers are never deleted.
	DeleteCascade(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
