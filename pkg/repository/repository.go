package repository

import (
	"context"

	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a typed table accessor. FindOne returns (nil, nil) when nothing matches.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID any, fields map[string]any) error
	Delete(ctx context.Context, resourceID any) error
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
}
