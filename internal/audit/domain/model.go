package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog records one privileged or state-changing action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID    *snowflake.ID     `gorm:"column:actor_id;index" json:"actor_id,omitempty"`
	Action     string            `gorm:"column:action;type:text;not null;index" json:"action"`
	TargetType string            `gorm:"column:target_type;type:text;not null" json:"target_type"`
	TargetID   *string           `gorm:"column:target_id;type:text" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	IPAddress  *string           `gorm:"column:ip_address;type:text" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	RequestID  *string           `gorm:"column:request_id;type:text" json:"request_id,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Entry is what callers hand to the audit service.
type Entry struct {
	ActorID    snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorID    *snowflake.ID
	Cursor     *AuditCursor
	Limit      int
}

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}
