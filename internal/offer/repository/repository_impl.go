package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, offer *domain.Offer) error {
	return conn.WithContext(ctx).Create(offer).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Offer, error) {
	var offer domain.Offer
	err := conn.WithContext(ctx).Where("id = ?", id).First(&offer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]*domain.Offer, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Offer{})
	if filter.ProjectID != nil {
		stmt = stmt.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.FreelancerID != nil {
		stmt = stmt.Where("freelancer_id = ?", *filter.FreelancerID)
	}
	if filter.ManagerID != nil {
		stmt = stmt.Where("project_id IN (SELECT id FROM projects WHERE manager_id = ?)", *filter.ManagerID)
	}
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("id < ?", *filter.Cursor)
	}
	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var items []*domain.Offer
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Decide(ctx context.Context, conn *gorm.DB, id snowflake.ID, status domain.OfferStatus, decidedAt time.Time) (int64, error) {
	tx := conn.WithContext(ctx).Model(&domain.Offer{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"status":     status,
			"decided_at": decidedAt,
			"updated_at": decidedAt,
		})
	return tx.RowsAffected, tx.Error
}

func (r *repo) CountAccepted(ctx context.Context, conn *gorm.DB, projectID snowflake.ID) (int64, error) {
	var count int64
	err := conn.WithContext(ctx).Model(&domain.Offer{}).
		Where("project_id = ? AND status = ?", projectID, domain.StatusAccepted).
		Count(&count).Error
	return count, err
}
