package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, invitation *domain.Invitation) error {
	return conn.WithContext(ctx).Create(invitation).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := conn.WithContext(ctx).Where("id = ?", id).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repo) FindByToken(ctx context.Context, conn *gorm.DB, token string) (*domain.Invitation, error) {
	stmt := conn.WithContext(ctx)
	if db.IsPostgres(conn) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var invitation domain.Invitation
	err := stmt.Where("token = ?", token).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repo) MarkUsed(ctx context.Context, conn *gorm.DB, id snowflake.ID, usedAt time.Time, usedBy snowflake.ID) (int64, error) {
	tx := conn.WithContext(ctx).Model(&domain.Invitation{}).
		Where("id = ? AND used_at IS NULL", id).
		Updates(map[string]any{
			"used_at": usedAt,
			"used_by": usedBy,
		})
	return tx.RowsAffected, tx.Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) (int64, error) {
	tx := conn.WithContext(ctx).Where("id = ?", id).Delete(&domain.Invitation{})
	return tx.RowsAffected, tx.Error
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]*domain.Invitation, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Invitation{})
	if filter.InviterID != nil {
		stmt = stmt.Where("inviter_id = ?", *filter.InviterID)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("id < ?", *filter.Cursor)
	}
	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var items []*domain.Invitation
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountPendingFor(ctx context.Context, conn *gorm.DB, email string, now time.Time) (int64, error) {
	var count int64
	err := conn.WithContext(ctx).Model(&domain.Invitation{}).
		Where("email = ? AND used_at IS NULL AND expires_at > ?", email, now).
		Count(&count).Error
	return count, err
}

func (r *repo) DeleteStale(ctx context.Context, conn *gorm.DB, cutoff time.Time) (int64, error) {
	tx := conn.WithContext(ctx).
		Where("(used_at IS NOT NULL AND used_at < ?) OR (used_at IS NULL AND expires_at < ?)", cutoff, cutoff).
		Delete(&domain.Invitation{})
	return tx.RowsAffected, tx.Error
}
