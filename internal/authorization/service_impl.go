package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectInvitation = "invitation"
	ObjectProject    = "project"
	ObjectOffer      = "offer"
	ObjectFinancial  = "financial"
	ObjectCategory   = "category"
	ObjectAuditLog   = "audit_log"
)

const (
	ActionInvitationCreateFreelancer = "create_freelancer"
	ActionInvitationCreateManager    = "create_manager"
	ActionInvitationList             = "list"
	ActionInvitationDelete           = "delete"

	ActionProjectCreate = "create"
	ActionProjectUpdate = "update"
	ActionProjectDelete = "delete"
	ActionProjectView   = "view"

	ActionOfferCreate = "create"
	ActionOfferDecide = "decide"
	ActionOfferView   = "view"
	ActionOfferExport = "export"

	ActionFinancialView   = "view"
	ActionFinancialUpdate = "update"

	ActionCategoryCreate = "create"
	ActionCategoryView   = "view"

	ActionAuditLogView = "view"
)

const (
	subjectManager    = "role:manager"
	subjectFreelancer = "role:freelancer"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, sess session.Session, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}
	if sess.IdentityID == 0 {
		return ErrForbidden
	}

	allowed, err := s.enforcer.Enforce(sess.Subject(), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, sess, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, sess session.Session, object string, action string) {
	s.log.Debug("authorization denied",
		zap.String("subject", sess.Subject()),
		zap.String("object", object),
		zap.String("action", action),
	)
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.Record(ctx, nil, auditdomain.Entry{
		ActorID:    sess.IdentityID,
		Action:     "authorization.denied",
		TargetType: "authorization",
		TargetID:   object,
		Metadata: map[string]any{
			"object":  object,
			"action":  action,
			"subject": sess.Subject(),
		},
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{subjectManager, ObjectInvitation, ActionInvitationCreateFreelancer},
		{subjectManager, ObjectInvitation, ActionInvitationList},
		{subjectManager, ObjectInvitation, ActionInvitationDelete},

		{subjectManager, ObjectProject, ActionProjectCreate},
		{subjectManager, ObjectProject, ActionProjectUpdate},
		{subjectManager, ObjectProject, ActionProjectDelete},
		{subjectManager, ObjectProject, ActionProjectView},
		{subjectFreelancer, ObjectProject, ActionProjectView},

		{subjectFreelancer, ObjectOffer, ActionOfferCreate},
		{subjectFreelancer, ObjectOffer, ActionOfferView},
		{subjectFreelancer, ObjectOffer, ActionOfferExport},
		{subjectManager, ObjectOffer, ActionOfferDecide},
		{subjectManager, ObjectOffer, ActionOfferView},
		{subjectManager, ObjectOffer, ActionOfferExport},

		{subjectManager, ObjectFinancial, ActionFinancialView},
		{subjectManager, ObjectFinancial, ActionFinancialUpdate},
		{subjectFreelancer, ObjectFinancial, ActionFinancialView},

		{subjectManager, ObjectCategory, ActionCategoryCreate},
		{subjectManager, ObjectCategory, ActionCategoryView},
		{subjectFreelancer, ObjectCategory, ActionCategoryView},

		{subjectManager, ObjectAuditLog, ActionAuditLogView},
	}

	for _, policy := range policies {
		params := make([]interface{}, 0, len(policy))
		for _, value := range policy {
			params = append(params, value)
		}
		has, err := enforcer.HasPolicy(params...)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(params...); err != nil {
			return err
		}
	}
	return nil
}
