package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/masking"
	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/authorization"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/metrics"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/providers/email"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/pagination"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/rls"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reasonEmailFailed = "email_failed"

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	GenID        *snowflake.Node
	Cfg          config.Config
	Policy       *config.PolicyHolder
	Repo         domain.Repository
	ProfileRepo  profiledomain.Repository
	IdentityRepo authdomain.Repository
	Authz        authorization.Service
	Email        email.Provider
	AuditSvc     auditdomain.Service `optional:"true"`
	Metrics      *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	genID        *snowflake.Node
	origin       string
	policy       *config.PolicyHolder
	repo         domain.Repository
	profileRepo  profiledomain.Repository
	identityRepo authdomain.Repository
	authz        authorization.Service
	email        email.Provider
	auditSvc     auditdomain.Service
	metrics      *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("invitation.service"),
		clock:        p.Clock,
		genID:        p.GenID,
		origin:       strings.TrimRight(strings.TrimSpace(p.Cfg.PublicOrigin), "/"),
		policy:       p.Policy,
		repo:         p.Repo,
		profileRepo:  p.ProfileRepo,
		identityRepo: p.IdentityRepo,
		authz:        p.Authz,
		email:        p.Email,
		auditSvc:     p.AuditSvc,
		metrics:      p.Metrics,
	}
}

func (s *Service) GenerateSignupLink(ctx context.Context, sess session.Session, req domain.GenerateRequest) (*domain.Invitation, error) {
	role := profiledomain.UserRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	action := authorization.ActionInvitationCreateFreelancer
	if role == profiledomain.RoleManager {
		action = authorization.ActionInvitationCreateManager
	}
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectInvitation, action); err != nil {
		return nil, err
	}

	policy := s.policy.Get()
	addr := strings.TrimSpace(req.Email)
	if addr == "" {
		if !policy.Invitations.AllowOpenLinks {
			return nil, domain.ErrOpenLinksDisabled
		}
	} else {
		normalized, err := normalizeEmail(addr)
		if err != nil {
			return nil, domain.ErrInvalidEmail
		}
		addr = normalized
	}

	now := s.clock.Now()
	invitation := &domain.Invitation{
		ID:        s.genID.Generate(),
		Token:     uuid.NewString(),
		Role:      role,
		Email:     addr,
		InviterID: sess.IdentityID,
		CreatedAt: now,
		ExpiresAt: now.Add(policy.Invitations.TTL),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, invitation); err != nil {
			return err
		}
		return s.audit(ctx, tx, sess.IdentityID, auditdomain.ActionInvitationCreated, invitation)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvitationIssued(ctx, string(role))
	s.log.Info("invitation created",
		zap.String("invitation_id", invitation.ID.String()),
		zap.String("role", string(role)),
		zap.Bool("open_link", invitation.IsOpen()),
	)
	return invitation, nil
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*domain.Validation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &domain.InvalidTokenError{Reason: domain.ReasonUnknown}
	}

	invitation, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	if invitation == nil {
		return nil, &domain.InvalidTokenError{Reason: domain.ReasonUnknown}
	}
	if err := invitation.Check(s.clock.Now()); err != nil {
		return nil, err
	}

	return &domain.Validation{
		Role:      invitation.Role,
		Email:     invitation.Email,
		ExpiresAt: invitation.ExpiresAt,
	}, nil
}

// CompleteInvitation consumes the token and creates the profile in one
// transaction, so a failed profile insert leaves the token usable.
func (s *Service) CompleteInvitation(ctx context.Context, req domain.CompleteRequest) (*domain.CompleteResult, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, &domain.InvalidTokenError{Reason: domain.ReasonUnknown}
	}
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUserID
	}

	var (
		invitation *domain.Invitation
		profile    *profiledomain.Profile
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The caller has no profile yet, so its own row policies cannot apply.
		if err := rls.Privileged(tx); err != nil {
			return err
		}

		var err error
		invitation, err = s.repo.FindByToken(ctx, tx, token)
		if err != nil {
			return err
		}
		if invitation == nil {
			return &domain.InvalidTokenError{Reason: domain.ReasonUnknown}
		}

		now := s.clock.Now()
		if err := invitation.Check(now); err != nil {
			return err
		}

		identity, err := s.identityRepo.FindByID(ctx, tx, req.UserID)
		if err != nil {
			if errors.Is(err, authdomain.ErrIdentityNotFound) {
				return domain.ErrIdentityNotFound
			}
			return err
		}

		existing, err := s.profileRepo.FindByID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrProfileExists
		}

		affected, err := s.repo.MarkUsed(ctx, tx, invitation.ID, now, req.UserID)
		if err != nil {
			return err
		}
		if affected != 1 {
			return &domain.InvalidTokenError{Reason: domain.ReasonUsed}
		}

		// Targeted invitations dictate the email; open links fall back to the identity.
		profileEmail := invitation.Email
		if profileEmail == "" {
			profileEmail = identity.Email
		}
		name := identity.DisplayName()
		if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
			name = strings.TrimSpace(*req.Name)
		}

		invitationID := invitation.ID
		profile = &profiledomain.Profile{
			ID:                req.UserID,
			Email:             profileEmail,
			Role:              invitation.Role,
			PreferredPlatform: profiledomain.PlatformInApp,
			ProvisionedVia:    profiledomain.ProvisionedViaInvitation,
			InvitationID:      &invitationID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if name != "" {
			profile.Name = &name
		}
		if err := s.profileRepo.Insert(ctx, tx, profile); err != nil {
			return err
		}

		return s.audit(ctx, tx, req.UserID, auditdomain.ActionInvitationCompleted, invitation)
	})
	if err != nil {
		if reason := domain.TokenReason(err); reason != "" {
			s.log.Info("invitation completion rejected", zap.String("reason", reason))
		}
		return nil, err
	}

	s.metrics.RecordInvitationCompleted(ctx, string(invitation.Role))
	s.log.Info("invitation completed",
		zap.String("invitation_id", invitation.ID.String()),
		zap.String("profile_id", profile.ID.String()),
	)
	return &domain.CompleteResult{Role: invitation.Role, Profile: profile}, nil
}

func (s *Service) DeleteInvitation(ctx context.Context, sess session.Session, id snowflake.ID) error {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectInvitation, authorization.ActionInvitationDelete); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invitation, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		// Other issuers' invitations are invisible rather than forbidden.
		if invitation == nil || (invitation.InviterID != sess.IdentityID && !sess.Superadmin) {
			return domain.ErrInvitationNotFound
		}

		affected, err := s.repo.Delete(ctx, tx, id)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvitationNotFound
		}
		return s.audit(ctx, tx, sess.IdentityID, auditdomain.ActionInvitationDeleted, invitation)
	})
}

func (s *Service) List(ctx context.Context, sess session.Session, req domain.ListRequest) (domain.ListResponse, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectInvitation, authorization.ActionInvitationList); err != nil {
		return domain.ListResponse{}, err
	}

	filter := domain.ListFilter{Limit: req.Size()}
	if !sess.Superadmin {
		inviterID := sess.IdentityID
		filter.InviterID = &inviterID
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		filter.Cursor = &id
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}
	page, info, err := pagination.BuildPage(items, filter.Limit, func(item *domain.Invitation) pagination.Cursor {
		return pagination.NewCursor(item.ID.String(), item.CreatedAt)
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	now := s.clock.Now()
	views := make([]domain.View, 0, len(page))
	for _, item := range page {
		views = append(views, domain.View{
			Invitation: *item,
			Status:     item.Status(now),
			Link:       s.SignupLink(item.Token),
		})
	}
	return domain.ListResponse{PageInfo: info, Invitations: views}, nil
}

// SendInvitation creates a targeted invitation and emails the link. The row is
// removed again when the email cannot be delivered.
func (s *Service) SendInvitation(ctx context.Context, sess session.Session, req domain.SendRequest) (*domain.SendResult, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, domain.ErrInvalidEmail
	}

	invitation, err := s.GenerateSignupLink(ctx, sess, domain.GenerateRequest{Role: req.Role, Email: req.Email})
	if err != nil {
		return nil, err
	}

	link := s.SignupLink(invitation.Token)
	data := map[string]any{
		"role":       string(invitation.Role),
		"link":       link,
		"expires_at": invitation.ExpiresAt.Format("2006-01-02 15:04 MST"),
	}
	if sess.Name != "" {
		data["inviter_name"] = sess.Name
	}

	if sendErr := s.email.SendTemplate(ctx, []string{invitation.Email}, email.TemplateInviteSignup, data); sendErr != nil {
		s.log.Warn("invitation email failed, rolling back",
			zap.String("invitation_id", invitation.ID.String()),
			zap.Error(sendErr),
		)
		if delErr := s.rollback(ctx, sess.IdentityID, invitation); delErr != nil {
			s.log.Error("failed to roll back invitation",
				zap.String("invitation_id", invitation.ID.String()),
				zap.Error(delErr),
			)
			return nil, errors.Join(fmt.Errorf("%w: %v", domain.ErrEmailDelivery, sendErr), delErr)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmailDelivery, sendErr)
	}

	if err := s.audit(ctx, nil, sess.IdentityID, auditdomain.ActionInvitationSent, invitation); err != nil {
		s.log.Warn("failed to audit invitation send", zap.Error(err))
	}
	return &domain.SendResult{Invitation: invitation, Link: link}, nil
}

// SignupLink builds <origin>/auth?token=<token>.
func (s *Service) SignupLink(token string) string {
	return s.origin + "/auth?token=" + url.QueryEscape(token)
}

// Sweep deletes invitations that were consumed or expired longer ago than the retention window.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.policy.Get().Invitations.Retention)
	deleted, err := s.repo.DeleteStale(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("swept stale invitations", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

// rollback removes an invitation whose email could not be delivered and
// records the removal next to its creation entry.
func (s *Service) rollback(ctx context.Context, actorID snowflake.ID, invitation *domain.Invitation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.Delete(ctx, tx, invitation.ID); err != nil {
			return err
		}
		return s.auditWith(ctx, tx, actorID, auditdomain.ActionInvitationDeleted, invitation, map[string]any{
			"reason": reasonEmailFailed,
		})
	})
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, actorID snowflake.ID, action string, invitation *domain.Invitation) error {
	return s.auditWith(ctx, tx, actorID, action, invitation, nil)
}

func (s *Service) auditWith(ctx context.Context, tx *gorm.DB, actorID snowflake.ID, action string, invitation *domain.Invitation, extra map[string]any) error {
	if s.auditSvc == nil {
		return nil
	}
	metadata := map[string]any{
		"role":  string(invitation.Role),
		"token": masking.MaskSecret(invitation.Token),
	}
	for key, value := range extra {
		metadata[key] = value
	}
	if invitation.Email != "" {
		metadata["email"] = masking.MaskEmail(invitation.Email)
	}
	return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		ActorID:    actorID,
		Action:     action,
		TargetType: "invitation",
		TargetID:   invitation.ID.String(),
		Metadata:   metadata,
	})
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Address), nil
}
