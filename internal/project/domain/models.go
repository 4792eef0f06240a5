package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ProjectStatus string

const (
	StatusOpen       ProjectStatus = "OPEN"
	StatusInProgress ProjectStatus = "IN_PROGRESS"
	StatusCompleted  ProjectStatus = "COMPLETED"
	StatusCancelled  ProjectStatus = "CANCELLED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s ProjectStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Project is a unit of work posted by a manager. Budget is in minor currency units.
type Project struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	Title       string        `gorm:"column:title;type:text;not null" json:"title"`
	Description string        `gorm:"column:description;type:text;not null;default:''" json:"description"`
	Budget      int64         `gorm:"column:budget;not null" json:"budget"`
	Deadline    *time.Time    `gorm:"column:deadline" json:"deadline,omitempty"`
	Status      ProjectStatus `gorm:"column:status;type:text;not null;index" json:"status"`
	ManagerID   snowflake.ID  `gorm:"column:manager_id;not null;index" json:"manager_id"`
	CategoryID  *snowflake.ID `gorm:"column:category_id;index" json:"category_id,omitempty"`
	CreatedAt   time.Time     `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

type Category struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ManagerID snowflake.ID `gorm:"column:manager_id;not null;uniqueIndex:ux_project_categories_manager_slug" json:"manager_id"`
	Name      string       `gorm:"column:name;type:text;not null" json:"name"`
	Slug      string       `gorm:"column:slug;type:text;not null;uniqueIndex:ux_project_categories_manager_slug" json:"slug"`
	CreatedAt time.Time    `gorm:"column:created_at;not null" json:"created_at"`
}

func (Category) TableName() string { return "project_categories" }

type ListFilter struct {
	ManagerID    *snowflake.ID
	FreelancerID *snowflake.ID
	Status       *ProjectStatus
	CategoryID   *snowflake.ID
	Cursor       *snowflake.ID
	Limit        int
}
