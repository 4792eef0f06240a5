package service

import (
	"context"
	"strings"
	"time"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"gorm.io/gorm"
)

type pendingInvitations struct {
	db   *gorm.DB
	repo domain.Repository
}

// NewPendingInvitations exposes invitation lookups to profile self-heal.
func NewPendingInvitations(db *gorm.DB, repo domain.Repository) profiledomain.PendingInvitations {
	return &pendingInvitations{db: db, repo: repo}
}

func (p *pendingInvitations) HasPendingFor(ctx context.Context, email string, now time.Time) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	count, err := p.repo.CountPendingFor(ctx, p.db, email, now)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
