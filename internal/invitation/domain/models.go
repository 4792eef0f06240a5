package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusUsed    Status = "USED"
	StatusExpired Status = "EXPIRED"
)

// Invitation is a single-use signup grant. An empty Email makes it an open link
// usable by anyone holding the token.
type Invitation struct {
	ID        snowflake.ID           `gorm:"primaryKey" json:"id"`
	Token     string                 `gorm:"column:token;type:text;not null;uniqueIndex" json:"token"`
	Role      profiledomain.UserRole `gorm:"column:role;type:text;not null" json:"role"`
	Email     string                 `gorm:"column:email;type:text;not null;default:'';index" json:"email"`
	InviterID snowflake.ID           `gorm:"column:inviter_id;not null;index" json:"inviter_id"`
	CreatedAt time.Time              `gorm:"column:created_at;not null" json:"created_at"`
	ExpiresAt time.Time              `gorm:"column:expires_at;not null;index" json:"expires_at"`
	UsedAt    *time.Time             `gorm:"column:used_at" json:"used_at,omitempty"`
	UsedBy    *snowflake.ID          `gorm:"column:used_by" json:"used_by,omitempty"`
}

func (Invitation) TableName() string { return "invitations" }

func (i Invitation) IsOpen() bool {
	return i.Email == ""
}

// Status reports the lifecycle state at now. A token is usable only while now
// is strictly before ExpiresAt.
func (i Invitation) Status(now time.Time) Status {
	switch {
	case i.UsedAt != nil:
		return StatusUsed
	case !now.Before(i.ExpiresAt):
		return StatusExpired
	default:
		return StatusPending
	}
}

// Check returns an InvalidTokenError unless the invitation can still be consumed.
func (i Invitation) Check(now time.Time) error {
	switch i.Status(now) {
	case StatusUsed:
		return &InvalidTokenError{Reason: ReasonUsed}
	case StatusExpired:
		return &InvalidTokenError{Reason: ReasonExpired}
	default:
		return nil
	}
}

type ListFilter struct {
	InviterID *snowflake.ID
	Cursor    *snowflake.ID
	Limit     int
}
