package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type UserRole string

const (
	RoleManager    UserRole = "MANAGER"
	RoleFreelancer UserRole = "FREELANCER"
)

func (r UserRole) Valid() bool {
	return r == RoleManager || r == RoleFreelancer
}

type MessagePlatform string

const (
	PlatformInApp    MessagePlatform = "IN_APP"
	PlatformWhatsApp MessagePlatform = "WHATSAPP"
	PlatformTelegram MessagePlatform = "TELEGRAM"
)

func (p MessagePlatform) Valid() bool {
	switch p {
	case PlatformInApp, PlatformWhatsApp, PlatformTelegram:
		return true
	default:
		return false
	}
}

// ProvisionedVia records how a profile came to exist.
type ProvisionedVia string

const (
	ProvisionedViaInvitation ProvisionedVia = "invitation"
	ProvisionedViaSelfHeal   ProvisionedVia = "self_heal"
	ProvisionedViaBootstrap  ProvisionedVia = "bootstrap"
)

// Profile is the application user. Its id is the owning identity id and its
// role never changes after creation.
type Profile struct {
	ID                snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Email             string          `gorm:"column:email;type:text;not null;index" json:"email"`
	Name              *string         `gorm:"column:name;type:text" json:"name,omitempty"`
	Role              UserRole        `gorm:"column:role;type:text;not null" json:"role"`
	AvatarURL         *string         `gorm:"column:avatar_url;type:text" json:"avatar_url,omitempty"`
	IsSuperadmin      bool            `gorm:"column:is_superadmin;not null;default:false" json:"is_superadmin"`
	PreferredPlatform MessagePlatform `gorm:"column:preferred_platform;type:text;not null;default:'IN_APP'" json:"preferred_platform"`
	ProvisionedVia    ProvisionedVia  `gorm:"column:provisioned_via;type:text;not null" json:"provisioned_via"`
	InvitationID      *snowflake.ID   `gorm:"column:invitation_id" json:"invitation_id,omitempty"`
	CreatedAt         time.Time       `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Profile) TableName() string { return "users" }
