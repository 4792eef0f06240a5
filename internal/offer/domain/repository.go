package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, offer *Offer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Offer, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Offer, error)
	// Decide moves a PENDING offer to status and returns the rows affected.
	Decide(ctx context.Context, db *gorm.DB, id snowflake.ID, status OfferStatus, decidedAt time.Time) (int64, error)
	CountAccepted(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (int64, error)
}
