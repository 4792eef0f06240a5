// Package domain contains core types for the identity store.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Identity is a login principal. Its id becomes the profile id.
type Identity struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Email        string            `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string            `gorm:"column:password_hash;type:text;not null" json:"-"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata" json:"metadata"`
	CreatedAt    time.Time         `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Identity) TableName() string { return "identities" }

// DisplayName returns the name stored in the signup metadata, if any.
func (i Identity) DisplayName() string {
	if i.Metadata == nil {
		return ""
	}
	name, _ := i.Metadata["name"].(string)
	return name
}

// Session is a persisted login session. Only the token hash is stored.
type Session struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	IdentityID snowflake.ID `gorm:"column:identity_id;not null;index"`
	TokenHash  string       `gorm:"column:token_hash;type:text;not null;uniqueIndex"`
	UserAgent  string       `gorm:"column:user_agent;type:text"`
	IPAddress  string       `gorm:"column:ip_address;type:text"`
	ExpiresAt  time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt  *time.Time   `gorm:"column:revoked_at"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null"`
	LastSeenAt time.Time    `gorm:"column:last_seen_at;not null"`
}

func (Session) TableName() string { return "auth_sessions" }
