package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, profile *Profile) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Profile, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Profile, error)
	UpdateFields(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error
}
