package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invitation *Invitation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invitation, error)
	// FindByToken locks the row on dialects that support it.
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*Invitation, error)
	// MarkUsed sets used_at only while it is still null and returns the rows changed.
	MarkUsed(ctx context.Context, db *gorm.DB, id snowflake.ID, usedAt time.Time, usedBy snowflake.ID) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Invitation, error)
	CountPendingFor(ctx context.Context, db *gorm.DB, email string, now time.Time) (int64, error)
	DeleteStale(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}
