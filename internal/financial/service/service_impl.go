package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/authorization"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/export"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/metrics"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	projectdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/providers/pdf"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/option"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxDescriptionLength = 500

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Repo        domain.Repository
	Updates     repository.Repository[domain.Update]
	ProjectRepo projectdomain.Repository
	ProfileRepo profiledomain.Repository
	Authz       authorization.Service
	PDF         pdf.Provider
	AuditSvc    auditdomain.Service `optional:"true"`
	Metrics     *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	repo        domain.Repository
	updates     repository.Repository[domain.Update]
	projectRepo projectdomain.Repository
	profileRepo profiledomain.Repository
	authz       authorization.Service
	pdf         pdf.Provider
	auditSvc    auditdomain.Service
	metrics     *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("financial.service"),
		clock:       p.Clock,
		genID:       p.GenID,
		repo:        p.Repo,
		updates:     p.Updates,
		projectRepo: p.ProjectRepo,
		profileRepo: p.ProfileRepo,
		authz:       p.Authz,
		pdf:         p.PDF,
		auditSvc:    p.AuditSvc,
		metrics:     p.Metrics,
	}
}

func (s *Service) CreateForAcceptedOffer(ctx context.Context, tx *gorm.DB, input domain.CreateInput) (*domain.Financial, error) {
	if input.AcceptedPrice <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	existing, err := s.repo.FindByProject(ctx, tx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrFinancialExists
	}

	now := s.clock.Now()
	financial := &domain.Financial{
		ID:              s.genID.Generate(),
		ProjectID:       input.ProjectID,
		OfferID:         input.OfferID,
		FreelancerID:    input.FreelancerID,
		ManagerID:       input.ManagerID,
		AcceptedPrice:   input.AcceptedPrice,
		EstimatedBudget: input.EstimatedBudget,
		AmountPaid:      0,
		PaymentStatus:   domain.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Insert(ctx, tx, financial); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrFinancialExists
		}
		return nil, err
	}
	return financial, nil
}

func (s *Service) Get(ctx context.Context, sess session.Session, id snowflake.ID) (*domain.Financial, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectFinancial, authorization.ActionFinancialView); err != nil {
		return nil, err
	}
	financial, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !canView(sess, financial) {
		return nil, domain.ErrFinancialNotFound
	}
	return financial, nil
}

func (s *Service) GetByProject(ctx context.Context, sess session.Session, projectID snowflake.ID) (*domain.Financial, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectFinancial, authorization.ActionFinancialView); err != nil {
		return nil, err
	}
	financial, err := s.repo.FindByProject(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}
	if !canView(sess, financial) {
		return nil, domain.ErrFinancialNotFound
	}
	return financial, nil
}

// AddUpdate appends a ledger entry. When it carries an amount, the paid total
// is recomputed from every recorded amount under the header's row lock.
func (s *Service) AddUpdate(ctx context.Context, sess session.Session, financialID snowflake.ID, req domain.AddUpdateRequest) (*domain.AddUpdateResult, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectFinancial, authorization.ActionFinancialUpdate); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" || utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, domain.ErrInvalidDescription
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var (
		financial *domain.Financial
		update    *domain.Update
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithActor(tx, sess.IdentityID, sess.Superadmin); err != nil {
			return err
		}

		var err error
		financial, err = s.repo.FindForUpdate(ctx, tx, financialID)
		if err != nil {
			return err
		}
		if financial == nil || (financial.ManagerID != sess.IdentityID && !sess.Superadmin) {
			return domain.ErrFinancialNotFound
		}

		now := s.clock.Now()
		update = &domain.Update{
			ID:          s.genID.Generate(),
			FinancialID: financial.ID,
			Amount:      req.Amount,
			Description: description,
			UpdatedByID: sess.IdentityID,
			CreatedAt:   now,
		}
		if err := s.updates.WithTrx(tx).Create(ctx, update); err != nil {
			return err
		}

		if req.Amount != nil {
			total, count, err := s.repo.SumPayments(ctx, tx, financial.ID)
			if err != nil {
				return err
			}
			financial.AmountPaid = total
			financial.PaymentStatus = domain.StatusFor(total, financial.AcceptedPrice, count > 0)
			financial.UpdatedAt = now
			if err := s.repo.UpdateTotals(ctx, tx, financial); err != nil {
				return err
			}
		}

		if s.auditSvc == nil {
			return nil
		}
		metadata := map[string]any{
			"project_id":     financial.ProjectID.String(),
			"amount_paid":    financial.AmountPaid,
			"payment_status": string(financial.PaymentStatus),
		}
		if req.Amount != nil {
			metadata["amount"] = *req.Amount
		}
		return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
			ActorID:    sess.IdentityID,
			Action:     auditdomain.ActionFinancialUpdate,
			TargetType: "financial",
			TargetID:   financial.ID.String(),
			Metadata:   metadata,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordFinancialUpdate(ctx, string(financial.PaymentStatus))
	s.log.Info("financial update recorded",
		zap.String("financial_id", financial.ID.String()),
		zap.Bool("payment", req.Amount != nil),
		zap.String("payment_status", string(financial.PaymentStatus)),
	)
	return &domain.AddUpdateResult{Financial: financial, Update: update}, nil
}

func (s *Service) ListUpdates(ctx context.Context, sess session.Session, financialID snowflake.ID) ([]domain.Update, error) {
	if _, err := s.Get(ctx, sess, financialID); err != nil {
		return nil, err
	}
	return s.listUpdates(ctx, financialID)
}

// Statement renders the ledger as a PDF named statement-<project id>.pdf.
func (s *Service) Statement(ctx context.Context, sess session.Session, financialID snowflake.ID) (*export.File, error) {
	financial, err := s.Get(ctx, sess, financialID)
	if err != nil {
		return nil, err
	}
	updates, err := s.listUpdates(ctx, financialID)
	if err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, s.db, financial.ProjectID)
	if err != nil {
		return nil, err
	}

	ids := []snowflake.ID{financial.ManagerID, financial.FreelancerID}
	for _, update := range updates {
		ids = append(ids, update.UpdatedByID)
	}
	profiles, err := s.profileRepo.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[snowflake.ID]string, len(profiles))
	for _, profile := range profiles {
		names[profile.ID] = displayName(profile)
	}

	data := pdf.StatementData{
		ProjectID:       financial.ProjectID.String(),
		FreelancerName:  names[financial.FreelancerID],
		ManagerName:     names[financial.ManagerID],
		IssueDate:       s.clock.Now().Format("2006-01-02"),
		AcceptedPrice:   export.Amount(financial.AcceptedPrice),
		EstimatedBudget: export.Amount(financial.EstimatedBudget),
		AmountPaid:      export.Amount(financial.AmountPaid),
		Remaining:       export.Amount(financial.Remaining()),
		PaymentStatus:   string(financial.PaymentStatus),
	}
	if project != nil {
		data.ProjectTitle = project.Title
	}
	for _, update := range updates {
		entry := pdf.StatementEntry{
			Date:        update.CreatedAt.Format("2006-01-02"),
			Description: update.Description,
			RecordedBy:  names[update.UpdatedByID],
		}
		if update.Amount != nil {
			entry.Amount = export.Amount(*update.Amount)
		}
		data.Entries = append(data.Entries, entry)
	}

	doc, err := s.pdf.RenderStatement(ctx, data)
	if err != nil {
		return nil, err
	}
	return &export.File{Name: "statement-" + financial.ProjectID.String() + ".pdf", Data: doc}, nil
}

func (s *Service) listUpdates(ctx context.Context, financialID snowflake.ID) ([]domain.Update, error) {
	items, err := s.updates.Find(ctx, &domain.Update{FinancialID: financialID}, option.WithOrder("id asc"))
	if err != nil {
		return nil, err
	}
	updates := make([]domain.Update, 0, len(items))
	for _, item := range items {
		updates = append(updates, *item)
	}
	return updates, nil
}

func canView(sess session.Session, financial *domain.Financial) bool {
	if financial == nil {
		return false
	}
	return sess.Superadmin ||
		financial.ManagerID == sess.IdentityID ||
		financial.FreelancerID == sess.IdentityID
}

func displayName(profile profiledomain.Profile) string {
	if profile.Name != nil && *profile.Name != "" {
		return *profile.Name
	}
	return profile.Email
}
