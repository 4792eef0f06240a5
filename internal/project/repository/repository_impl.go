package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, project *domain.Project) error {
	return conn.WithContext(ctx).Create(project).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	return r.find(conn.WithContext(ctx), id)
}

func (r *repo) FindForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	stmt := conn.WithContext(ctx)
	if db.IsPostgres(conn) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.find(stmt, id)
}

func (r *repo) find(stmt *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	err := stmt.Where("id = ?", id).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]*domain.Project, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Project{})
	if filter.ManagerID != nil {
		stmt = stmt.Where("manager_id = ?", *filter.ManagerID)
	}
	if filter.FreelancerID != nil {
		stmt = stmt.Where("status = ? OR id IN (SELECT project_id FROM offers WHERE freelancer_id = ?)",
			domain.StatusOpen, *filter.FreelancerID)
	}
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		stmt = stmt.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("id < ?", *filter.Cursor)
	}
	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var items []*domain.Project
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateFields(ctx context.Context, conn *gorm.DB, id snowflake.ID, fields map[string]any) error {
	tx := conn.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *repo) UpdateStatus(ctx context.Context, conn *gorm.DB, id snowflake.ID, status domain.ProjectStatus, updatedAt time.Time) error {
	return r.UpdateFields(ctx, conn, id, map[string]any{
		"status":     status,
		"updated_at": updatedAt,
	})
}

func (r *repo) HasOfferFrom(ctx context.Context, conn *gorm.DB, projectID, freelancerID snowflake.ID) (bool, error) {
	var count int64
	err := conn.WithContext(ctx).
		Table("offers").
		Where("project_id = ? AND freelancer_id = ?", projectID, freelancerID).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) HasFinancial(ctx context.Context, conn *gorm.DB, projectID snowflake.ID) (bool, error) {
	var count int64
	err := conn.WithContext(ctx).
		Table("financials").
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) DeleteCascade(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	stmt := conn.WithContext(ctx)
	if err := stmt.Exec("DELETE FROM offers WHERE project_id = ?", id).Error; err != nil {
		return err
	}
	tx := stmt.Where("id = ?", id).Delete(&domain.Project{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}
