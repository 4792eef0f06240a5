package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/metrics"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNameLength = 120

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Policy   *config.PolicyHolder
	Repo     domain.Repository
	Pending  domain.PendingInvitations `optional:"true"`
	AuditSvc auditdomain.Service       `optional:"true"`
	Metrics  *metrics.Metrics          `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	policy   *config.PolicyHolder
	repo     domain.Repository
	pending  domain.PendingInvitations
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("profile.service"),
		clock:    p.Clock,
		policy:   p.Policy,
		repo:     p.Repo,
		pending:  p.Pending,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

func (s *Service) EnsureProfile(ctx context.Context, sess session.Session) (*domain.Profile, error) {
	if sess.IdentityID == 0 {
		return nil, domain.ErrInvalidSession
	}

	existing, err := s.repo.FindByID(ctx, s.db, sess.IdentityID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if !s.policy.Get().Profiles.SelfHeal {
		return nil, domain.ErrProfileRequired
	}

	now := s.clock.Now()
	email := strings.ToLower(strings.TrimSpace(sess.Email))
	if s.pending != nil && email != "" {
		pending, err := s.pending.HasPendingFor(ctx, email, now)
		if err != nil {
			return nil, err
		}
		if pending {
			// The identity was invited; it must finish the invitation so the invited role applies.
			return nil, domain.ErrInvitationPending
		}
	}

	profile := &domain.Profile{
		ID:                sess.IdentityID,
		Email:             email,
		Name:              optionalString(sess.Name),
		Role:              domain.RoleFreelancer,
		PreferredPlatform: domain.PlatformInApp,
		ProvisionedVia:    domain.ProvisionedViaSelfHeal,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, profile); err != nil {
			return err
		}
		if s.auditSvc != nil {
			return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
				ActorID:    sess.IdentityID,
				Action:     auditdomain.ActionProfileSelfHealed,
				TargetType: "profile",
				TargetID:   sess.IdentityID.String(),
				Metadata:   map[string]any{"role": string(profile.Role)},
			})
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			// A concurrent request created the profile first.
			existing, findErr := s.repo.FindByID(ctx, s.db, sess.IdentityID)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.metrics.RecordProfileSelfHealed(ctx)
	s.log.Info("profile self-healed", zap.String("profile_id", profile.ID.String()))
	return profile, nil
}

func (s *Service) Get(ctx context.Context, sess session.Session) (*domain.Profile, error) {
	if sess.IdentityID == 0 {
		return nil, domain.ErrInvalidSession
	}
	return s.Lookup(ctx, sess.IdentityID)
}

func (s *Service) Lookup(ctx context.Context, id snowflake.ID) (*domain.Profile, error) {
	profile, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, sess session.Session, req domain.UpdateRequest) (*domain.Profile, error) {
	if sess.IdentityID == 0 {
		return nil, domain.ErrInvalidSession
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > maxNameLength {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.AvatarURL != nil {
		raw := strings.TrimSpace(*req.AvatarURL)
		if raw == "" {
			fields["avatar_url"] = nil
		} else {
			parsed, err := url.Parse(raw)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
				return nil, domain.ErrInvalidAvatarURL
			}
			fields["avatar_url"] = raw
		}
	}
	if req.PreferredPlatform != nil {
		platform := domain.MessagePlatform(strings.ToUpper(strings.TrimSpace(*req.PreferredPlatform)))
		if !platform.Valid() {
			return nil, domain.ErrInvalidPlatform
		}
		fields["preferred_platform"] = platform
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateFields(ctx, s.db, sess.IdentityID, fields); err != nil {
			return nil, err
		}
	}
	return s.Lookup(ctx, sess.IdentityID)
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
