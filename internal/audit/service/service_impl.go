package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auditcontext"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/authorization"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	obscontext "github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/context"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
	// The enforcer is taken directly because the authorization service
	// records its denials here.
	Enforcer *casbin.SyncedEnforcer `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
	enf   *casbin.SyncedEnforcer
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		enf:   p.Enforcer,
	}
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	targetType := strings.TrimSpace(entry.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := datatypes.JSONMap{}
	for key, value := range entry.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	log := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		Action:     action,
		TargetType: targetType,
		TargetID:   normalize(entry.TargetID),
		Metadata:   payload,
		IPAddress:  normalize(auditcontext.IPAddressFromContext(ctx)),
		UserAgent:  normalize(auditcontext.UserAgentFromContext(ctx)),
		RequestID:  normalize(obscontext.RequestIDFromContext(ctx)),
		CreatedAt:  s.clock.Now(),
	}
	if entry.ActorID != 0 {
		actorID := entry.ActorID
		log.ActorID = &actorID
	}

	if tx == nil {
		tx = s.db
	}
	if err := s.repo.Insert(ctx, tx, &log); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, sess session.Session, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	if err := s.authorizeView(sess); err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	filter := auditdomain.ListFilter{
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Limit:      req.Size(),
	}
	if raw := strings.TrimSpace(req.ActorID); raw != "" {
		actorID, err := snowflake.ParseString(raw)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidActor
		}
		filter.ActorID = &actorID
	}
	if !sess.Superadmin {
		// Managers see only the trail of their own actions.
		if filter.ActorID != nil && *filter.ActorID != sess.IdentityID {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrForbidden
		}
		own := sess.IdentityID
		filter.ActorID = &own
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil || id == 0 {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		filter.Cursor = &auditdomain.AuditCursor{ID: id}
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	page, info, err := pagination.BuildPage(items, filter.Limit, func(item *auditdomain.AuditLog) pagination.Cursor {
		return pagination.NewCursor(item.ID.String(), item.CreatedAt)
	})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	logs := make([]auditdomain.AuditLog, 0, len(page))
	for _, item := range page {
		logs = append(logs, *item)
	}
	return auditdomain.ListAuditLogResponse{PageInfo: info, AuditLogs: logs}, nil
}

func (s *Service) authorizeView(sess session.Session) error {
	if sess.IdentityID == 0 {
		return auditdomain.ErrForbidden
	}
	if sess.Superadmin {
		return nil
	}
	if s.enf == nil {
		return auditdomain.ErrForbidden
	}
	allowed, err := s.enf.Enforce(sess.Subject(), authorization.ObjectAuditLog, authorization.ActionAuditLogView)
	if err != nil {
		return err
	}
	if !allowed {
		return auditdomain.ErrForbidden
	}
	return nil
}

func normalize(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
