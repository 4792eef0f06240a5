package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateIdentity(ctx context.Context, db *gorm.DB, identity *Identity) error
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Identity, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Identity, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	UpdateLastSeen(ctx context.Context, sessionID snowflake.ID, lastSeen time.Time) error
	RevokeSession(ctx context.Context, sessionID snowflake.ID, revokedAt time.Time) error
}
