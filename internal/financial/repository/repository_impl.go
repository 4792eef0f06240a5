package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, financial *domain.Financial) error {
	return conn.WithContext(ctx).Create(financial).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Financial, error) {
	return r.first(conn.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Financial, error) {
	stmt := conn.WithContext(ctx)
	if db.IsPostgres(conn) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(stmt.Where("id = ?", id))
}

func (r *repo) FindByProject(ctx context.Context, conn *gorm.DB, projectID snowflake.ID) (*domain.Financial, error) {
	return r.first(conn.WithContext(ctx).Where("project_id = ?", projectID))
}

func (r *repo) first(stmt *gorm.DB) (*domain.Financial, error) {
	var financial domain.Financial
	err := stmt.First(&financial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &financial, nil
}

func (r *repo) UpdateTotals(ctx context.Context, conn *gorm.DB, financial *domain.Financial) error {
	return conn.WithContext(ctx).
		Model(&domain.Financial{}).
		Where("id = ?", financial.ID).
		Updates(map[string]any{
			"amount_paid":    financial.AmountPaid,
			"payment_status": financial.PaymentStatus,
			"updated_at":     financial.UpdatedAt,
		}).Error
}

func (r *repo) SumPayments(ctx context.Context, conn *gorm.DB, financialID snowflake.ID) (int64, int64, error) {
	var row struct {
		Total int64
		Count int64
	}
	err := conn.WithContext(ctx).
		Model(&domain.Update{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(amount) AS count").
		Where("financial_id = ?", financialID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Total, row.Count, nil
}
