package domain

import (
	"context"
	"errors"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/pagination"
	"gorm.io/gorm"
)

const (
	ActionInvitationCreated   = "invitation.created"
	ActionInvitationSent      = "invitation.sent"
	ActionInvitationDeleted   = "invitation.deleted"
	ActionInvitationCompleted = "invitation.completed"
	ActionProfileSelfHealed   = "profile.self_healed"
	ActionProfileBootstrapped = "profile.bootstrapped"
	ActionOfferAccepted       = "offer.accepted"
	ActionOfferRejected       = "offer.rejected"
	ActionFinancialUpdate     = "financial.update_added"
	ActionProjectDeleted      = "project.deleted"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string `form:"action"`
	TargetType string `form:"target_type"`
	TargetID   string `form:"target_id"`
	ActorID    string `form:"actor_id"`
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// Record writes entry using tx when non-nil so the log commits with the change it describes.
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, sess session.Session, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidActor     = errors.New("invalid_actor")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
