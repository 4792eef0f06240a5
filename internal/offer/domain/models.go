package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type OfferStatus string

const (
	StatusPending  OfferStatus = "PENDING"
	StatusAccepted OfferStatus = "ACCEPTED"
	StatusRejected OfferStatus = "REJECTED"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Decided reports whether the status is a final manager decision.
func (s OfferStatus) Decided() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Offer is a freelancer's bid on a project. Price is in minor currency units
// and DeliveryTime in days.
type Offer struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	ProjectID    snowflake.ID `gorm:"column:project_id;not null;uniqueIndex:ux_offers_project_freelancer,priority:1" json:"project_id"`
	FreelancerID snowflake.ID `gorm:"column:freelancer_id;not null;uniqueIndex:ux_offers_project_freelancer,priority:2;index" json:"freelancer_id"`
	Price        int64        `gorm:"column:price;not null" json:"price"`
	DeliveryTime int          `gorm:"column:delivery_time;not null" json:"delivery_time"`
	Message      string       `gorm:"column:message;type:text;not null;default:''" json:"message"`
	Status       OfferStatus  `gorm:"column:status;type:text;not null;index" json:"status"`
	DecidedAt    *time.Time   `gorm:"column:decided_at" json:"decided_at,omitempty"`
	CreatedAt    time.Time    `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Offer) TableName() string { return "offers" }

type ListFilter struct {
	ProjectID    *snowflake.ID
	FreelancerID *snowflake.ID
	// ManagerID restricts to offers on projects owned by the manager.
	ManagerID *snowflake.ID
	Status    *OfferStatus
	Cursor    *snowflake.ID
	Limit     int
}
