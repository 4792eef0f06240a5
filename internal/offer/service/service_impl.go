package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/authorization"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/export"
	financialdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/metrics"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/domain"
	projectdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/ratelimit"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/pagination"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxMessageLength   = 2000
	maxDeliveryDays    = 3650
	exportBatchSize    = pagination.MaxPageSize
	acceptLockTemplate = "offer:accept:project:%s"
)

var exportHeader = []string{"id", "project_id", "freelancer_id", "price", "delivery_time", "status", "message", "created_at", "decided_at"}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	GenID        *snowflake.Node
	Policy       *config.PolicyHolder
	Repo         domain.Repository
	ProjectRepo  projectdomain.Repository
	FinancialSvc financialdomain.Service
	Authz        authorization.Service
	Locker       *ratelimit.Locker   `optional:"true"`
	AuditSvc     auditdomain.Service `optional:"true"`
	Metrics      *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	genID        *snowflake.Node
	policy       *config.PolicyHolder
	repo         domain.Repository
	projectRepo  projectdomain.Repository
	financialSvc financialdomain.Service
	authz        authorization.Service
	locker       *ratelimit.Locker
	auditSvc     auditdomain.Service
	metrics      *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("offer.service"),
		clock:        p.Clock,
		genID:        p.GenID,
		policy:       p.Policy,
		repo:         p.Repo,
		projectRepo:  p.ProjectRepo,
		financialSvc: p.FinancialSvc,
		authz:        p.Authz,
		locker:       p.Locker,
		auditSvc:     p.AuditSvc,
		metrics:      p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, sess session.Session, projectID snowflake.ID, req domain.CreateRequest) (*domain.Offer, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectOffer, authorization.ActionOfferCreate); err != nil {
		return nil, err
	}

	if req.Price <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.DeliveryTime <= 0 || req.DeliveryTime > maxDeliveryDays {
		return nil, domain.ErrInvalidDeliveryTime
	}
	message := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, domain.ErrInvalidMessage
	}

	project, err := s.projectRepo.FindByID(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, projectdomain.ErrProjectNotFound
	}
	if project.Status != projectdomain.StatusOpen {
		return nil, domain.ErrProjectNotOpen
	}

	now := s.clock.Now()
	offer := &domain.Offer{
		ID:           s.genID.Generate(),
		ProjectID:    project.ID,
		FreelancerID: sess.IdentityID,
		Price:        req.Price,
		DeliveryTime: req.DeliveryTime,
		Message:      message,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, offer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrOfferExists
		}
		return nil, err
	}

	s.log.Info("offer submitted",
		zap.String("offer_id", offer.ID.String()),
		zap.String("project_id", project.ID.String()),
	)
	return offer, nil
}

func (s *Service) Get(ctx context.Context, sess session.Session, id snowflake.ID) (*domain.Offer, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectOffer, authorization.ActionOfferView); err != nil {
		return nil, err
	}

	offer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, domain.ErrOfferNotFound
	}
	if sess.Superadmin || offer.FreelancerID == sess.IdentityID {
		return offer, nil
	}
	if sess.IsManager() {
		project, err := s.projectRepo.FindByID(ctx, s.db, offer.ProjectID)
		if err != nil {
			return nil, err
		}
		if project != nil && project.ManagerID == sess.IdentityID {
			return offer, nil
		}
	}
	return nil, domain.ErrOfferNotFound
}

func (s *Service) List(ctx context.Context, sess session.Session, req domain.ListRequest) (domain.ListResponse, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectOffer, authorization.ActionOfferView); err != nil {
		return domain.ListResponse{}, err
	}

	filter, err := s.buildFilter(ctx, sess, req)
	if err != nil {
		return domain.ListResponse{}, err
	}
	filter.Limit = req.Size()
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
	page, info, err := pagination.BuildPage(items, filter.Limit, func(item *domain.Offer) pagination.Cursor {
		return pagination.NewCursor(item.ID.String(), item.CreatedAt)
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	offers := make([]domain.Offer, 0, len(page))
	for _, item := range page {
		offers = append(offers, *item)
	}
	return domain.ListResponse{PageInfo: info, Offers: offers}, nil
}

func (s *Service) UpdateOfferStatus(ctx context.Context, sess session.Session, id snowflake.ID, status string) (*domain.DecisionResult, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectOffer, authorization.ActionOfferDecide); err != nil {
		return nil, err
	}

	next := domain.OfferStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !next.Decided() {
		return nil, domain.ErrInvalidStatus
	}

	offer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, domain.ErrOfferNotFound
	}

	if next == domain.StatusAccepted && s.locker != nil {
		release, err := s.lockProject(ctx, offer.ProjectID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	result := &domain.DecisionResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithActor(tx, sess.IdentityID, sess.Superadmin); err != nil {
			return err
		}

		project, err := s.projectRepo.FindForUpdate(ctx, tx, offer.ProjectID)
		if err != nil {
			return err
		}
		// Offers on other managers' projects are invisible rather than forbidden.
		if project == nil || (project.ManagerID != sess.IdentityID && !sess.Superadmin) {
			return domain.ErrOfferNotFound
		}

		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrOfferNotFound
		}
		if current.Status.Decided() {
			return domain.ErrOfferAlreadyDecided
		}

		if next == domain.StatusAccepted {
			if project.Status != projectdomain.StatusOpen {
				return domain.ErrProjectNotOpen
			}
			accepted, err := s.repo.CountAccepted(ctx, tx, project.ID)
			if err != nil {
				return err
			}
			if accepted > 0 {
				return domain.ErrProjectAlreadyAccepted
			}
		}

		now := s.clock.Now()
		affected, err := s.repo.Decide(ctx, tx, id, next, now)
		if err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrProjectAlreadyAccepted
			}
			return err
		}
		if affected != 1 {
			return domain.ErrOfferAlreadyDecided
		}
		current.Status = next
		current.DecidedAt = &now
		current.UpdatedAt = now
		result.Offer = current

		if next == domain.StatusAccepted {
			if err := s.projectRepo.UpdateStatus(ctx, tx, project.ID, projectdomain.StatusInProgress, now); err != nil {
				return err
			}
			project.Status = projectdomain.StatusInProgress
			project.UpdatedAt = now
			result.Project = project

			financial, err := s.financialSvc.CreateForAcceptedOffer(ctx, tx, financialdomain.CreateInput{
				ProjectID:       project.ID,
				OfferID:         current.ID,
				FreelancerID:    current.FreelancerID,
				ManagerID:       project.ManagerID,
				AcceptedPrice:   current.Price,
				EstimatedBudget: project.Budget,
			})
			if err != nil {
				if errors.Is(err, financialdomain.ErrFinancialExists) {
					return domain.ErrProjectAlreadyAccepted
				}
				return err
			}
			result.Financial = financial
		}

		return s.audit(ctx, tx, sess.IdentityID, current)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOfferDecided(ctx, string(next))
	s.log.Info("offer decided",
		zap.String("offer_id", id.String()),
		zap.String("project_id", offer.ProjectID.String()),
		zap.String("status", string(next)),
	)
	return result, nil
}

// ExportCSV writes every offer visible to the caller, honouring the list filters.
func (s *Service) ExportCSV(ctx context.Context, sess session.Session, req domain.ListRequest) (*export.File, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectOffer, authorization.ActionOfferExport); err != nil {
		return nil, err
	}

	filter, err := s.buildFilter(ctx, sess, req)
	if err != nil {
		return nil, err
	}
	filter.Limit = exportBatchSize

	var rows [][]string
	for {
		items, err := s.repo.List(ctx, s.db, filter)
		if err != nil {
			return nil, err
		}
		more := len(items) > filter.Limit
		if more {
			items = items[:filter.Limit]
		}
		for _, item := range items {
			rows = append(rows, offerRow(item))
		}
		if !more {
			break
		}
		last := items[len(items)-1].ID
		filter.Cursor = &last
	}

	data, err := export.CSV(exportHeader, rows)
	if err != nil {
		return nil, err
	}
	return &export.File{Name: export.Filename("offers", s.clock.Now()), Data: data}, nil
}

// buildFilter scopes freelancers to their own offers and managers to offers on
// their projects. A project filter from a manager must name one they own.
func (s *Service) buildFilter(ctx context.Context, sess session.Session, req domain.ListRequest) (domain.ListFilter, error) {
	var filter domain.ListFilter

	if raw := strings.TrimSpace(req.ProjectID); raw != "" {
		projectID, err := snowflake.ParseString(raw)
		if err != nil {
			return filter, domain.ErrInvalidProject
		}
		filter.ProjectID = &projectID

		if sess.IsManager() && !sess.Superadmin {
			project, err := s.projectRepo.FindByID(ctx, s.db, projectID)
			if err != nil {
				return filter, err
			}
			if project == nil || project.ManagerID != sess.IdentityID {
				return filter, projectdomain.ErrProjectNotFound
			}
		}
	}

	switch {
	case sess.Superadmin:
	case sess.IsManager():
		managerID := sess.IdentityID
		filter.ManagerID = &managerID
	default:
		freelancerID := sess.IdentityID
		filter.FreelancerID = &freelancerID
	}

	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := domain.OfferStatus(strings.ToUpper(raw))
		if !status.Valid() {
			return filter, domain.ErrInvalidStatus
		}
		filter.Status = &status
	}
	return filter, nil
}

func (s *Service) lockProject(ctx context.Context, projectID snowflake.ID) (func(), error) {
	key := fmt.Sprintf(acceptLockTemplate, projectID.String())
	ttl := s.policy.Get().Offers.AcceptLockTTL

	lease, ok, err := s.locker.Acquire(ctx, key, ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLockUnavailable, err)
	}
	if !ok {
		return nil, domain.ErrDecisionInProgress
	}
	return func() {
		if err := lease.Release(ctx); err != nil {
			s.log.Warn("failed to release offer lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, actorID snowflake.ID, offer *domain.Offer) error {
	if s.auditSvc == nil {
		return nil
	}
	action := auditdomain.ActionOfferRejected
	if offer.Status == domain.StatusAccepted {
		action = auditdomain.ActionOfferAccepted
	}
	return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		ActorID:    actorID,
		Action:     action,
		TargetType: "offer",
		TargetID:   offer.ID.String(),
		Metadata: map[string]any{
			"project_id":    offer.ProjectID.String(),
			"freelancer_id": offer.FreelancerID.String(),
			"price":         offer.Price,
		},
	})
}

func offerRow(o *domain.Offer) []string {
	decidedAt := ""
	if o.DecidedAt != nil {
		decidedAt = o.DecidedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		o.ID.String(),
		o.ProjectID.String(),
		o.FreelancerID.String(),
		export.Amount(o.Price),
		strconv.Itoa(o.DeliveryTime),
		string(o.Status),
		o.Message,
		o.CreatedAt.UTC().Format(time.RFC3339),
		decidedAt,
	}
}
