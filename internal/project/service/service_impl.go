package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/authorization"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/export"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/option"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db/pagination"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/rls"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTitleLength        = 200
	maxCategoryNameLength = 80
	exportBatchSize       = pagination.MaxPageSize
)

var exportHeader = []string{"id", "title", "status", "budget", "deadline", "manager_id", "category_id", "created_at"}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Repo       domain.Repository
	Categories repository.Repository[domain.Category]
	Authz      authorization.Service
	AuditSvc   auditdomain.Service `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	repo       domain.Repository
	categories repository.Repository[domain.Category]
	authz      authorization.Service
	auditSvc   auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("project.service"),
		clock:      p.Clock,
		genID:      p.GenID,
		repo:       p.Repo,
		categories: p.Categories,
		authz:      p.Authz,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, sess session.Session, req domain.CreateRequest) (*domain.Project, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectProject, authorization.ActionProjectCreate); err != nil {
		return nil, err
	}

	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	if req.Budget <= 0 {
		return nil, domain.ErrInvalidBudget
	}
	now := s.clock.Now()
	if req.Deadline != nil && !req.Deadline.After(now) {
		return nil, domain.ErrInvalidDeadline
	}
	categoryID, err := s.resolveCategory(ctx, sess, req.CategoryID)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{
		ID:          s.genID.Generate(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Budget:      req.Budget,
		Deadline:    req.Deadline,
		Status:      domain.StatusOpen,
		ManagerID:   sess.IdentityID,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, project); err != nil {
		return nil, err
	}

	s.log.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("manager_id", project.ManagerID.String()),
	)
	return project, nil
}

func (s *Service) Get(ctx context.Context, sess session.Session, id snowflake.ID) (*domain.Project, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectProject, authorization.ActionProjectView); err != nil {
		return nil, err
	}

	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domain.ErrProjectNotFound
	}
	visible, err := s.visible(ctx, sess, project)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, domain.ErrProjectNotFound
	}
	return project, nil
}

func (s *Service) List(ctx context.Context, sess session.Session, req domain.ListRequest) (domain.ListResponse, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectProject, authorization.ActionProjectView); err != nil {
		return domain.ListResponse{}, err
	}

	filter, err := s.buildFilter(sess, req)
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
	page, info, err := pagination.BuildPage(items, filter.Limit, func(item *domain.Project) pagination.Cursor {
		return pagination.NewCursor(item.ID.String(), item.CreatedAt)
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	projects := make([]domain.Project, 0, len(page))
	for _, item := range page {
		projects = append(projects, *item)
	}
	return domain.ListResponse{PageInfo: info, Projects: projects}, nil
}

func (s *Service) Update(ctx context.Context, sess session.Session, id snowflake.ID, req domain.UpdateRequest) (*domain.Project, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectProject, authorization.ActionProjectUpdate); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	fields := map[string]any{"updated_at": now}
	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		fields["title"] = title
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Budget != nil {
		if *req.Budget <= 0 {
			return nil, domain.ErrInvalidBudget
		}
		fields["budget"] = *req.Budget
	}
	if req.Deadline != nil {
		if !req.Deadline.After(now) {
			return nil, domain.ErrInvalidDeadline
		}
		fields["deadline"] = *req.Deadline
	}
	if req.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, sess, req.CategoryID)
		if err != nil {
			return nil, err
		}
		fields["category_id"] = categoryID
	}

	var project *domain.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.ownedForUpdate(ctx, tx, sess, id)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return domain.ErrProjectTerminal
		}
		if err := s.repo.UpdateFields(ctx, tx, id, fields); err != nil {
			return err
		}
		project, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateStatus applies a manual status change. IN_PROGRESS is only reachable
// through offer acceptance, and COMPLETED/CANCELLED are final.
func (s *Service) UpdateStatus(ctx context.Context, sess session.Session, id snowflake.ID, status string) (*domain.Project, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectProject, authorization.ActionProjectUpdate); err != nil {
		return nil, err
	}

	next := domain.ProjectStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	var project *domain.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.ownedForUpdate(ctx, tx, sess, id)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return domain.ErrProjectTerminal
		}
		if !allowedTransition(current.Status, next) {
			return domain.ErrInvalidTransition
		}
		if err := s.repo.UpdateStatus(ctx, tx, id, next, s.clock.Now()); err != nil {
			return err
		}
		project, err = s.repo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("project status changed",
		zap.String("project_id", id.String()),
		zap.String("status", string(next)),
	)
	return project, nil
}

func (s *Service) Delete(ctx context.Context, sess session.Session, id snowflake.ID) error {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectProject, authorization.ActionProjectDelete); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.WithActor(tx, sess.IdentityID, sess.Superadmin); err != nil {
			return err
		}
		project, err := s.ownedForUpdate(ctx, tx, sess, id)
		if err != nil {
			return err
		}
		// Payment history is append-only, so a project with a ledger stays.
		hasLedger, err := s.repo.HasFinancial(ctx, tx, id)
		if err != nil {
			return err
		}
		if hasLedger {
			return domain.ErrProjectHasLedger
		}
		if err := s.repo.DeleteCascade(ctx, tx, id); err != nil {
			return err
		}
		if s.auditSvc == nil {
			return nil
		}
		return s.auditSvc.Record(ctx, tx, auditdomain.Entry{
			ActorID:    sess.IdentityID,
			Action:     auditdomain.ActionProjectDeleted,
			TargetType: "project",
			TargetID:   id.String(),
			Metadata: map[string]any{
				"title":  project.Title,
				"status": string(project.Status),
			},
		})
	})
}

// ExportCSV writes every project visible to the caller, honouring the list filters.
func (s *Service) ExportCSV(ctx context.Context, sess session.Session, req domain.ListRequest) (*export.File, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectProject, authorization.ActionProjectView); err != nil {
		return nil, err
	}

	filter, err := s.buildFilter(sess, req)
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
			rows = append(rows, projectRow(item))
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
	return &export.File{Name: export.Filename("projects", s.clock.Now()), Data: data}, nil
}

func (s *Service) CreateCategory(ctx context.Context, sess session.Session, req domain.CreateCategoryRequest) (*domain.Category, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectCategory, authorization.ActionCategoryCreate); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > maxCategoryNameLength {
		return nil, domain.ErrInvalidName
	}
	categorySlug := slug.Make(name)
	if categorySlug == "" {
		return nil, domain.ErrInvalidName
	}

	existing, err := s.categories.FindOne(ctx, &domain.Category{ManagerID: sess.IdentityID, Slug: categorySlug})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrCategoryExists
	}

	category := &domain.Category{
		ID:        s.genID.Generate(),
		ManagerID: sess.IdentityID,
		Name:      name,
		Slug:      categorySlug,
		CreatedAt: s.clock.Now(),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCategoryExists
		}
		return nil, err
	}
	return category, nil
}

// ListCategories returns the caller's own categories for managers and every
// category otherwise, since freelancers browse projects across managers.
func (s *Service) ListCategories(ctx context.Context, sess session.Session) ([]domain.Category, error) {
	if err := s.authz.Authorize(ctx, sess, authorization.ObjectCategory, authorization.ActionCategoryView); err != nil {
		return nil, err
	}

	var query *domain.Category
	if sess.IsManager() && !sess.Superadmin {
		query = &domain.Category{ManagerID: sess.IdentityID}
	}
	items, err := s.categories.Find(ctx, query, option.WithOrder("name asc"))
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(items))
	for _, item := range items {
		categories = append(categories, *item)
	}
	return categories, nil
}

func (s *Service) buildFilter(sess session.Session, req domain.ListRequest) (domain.ListFilter, error) {
	var filter domain.ListFilter
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
		status := domain.ProjectStatus(strings.ToUpper(raw))
		if !status.Valid() {
			return filter, domain.ErrInvalidStatus
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		categoryID, err := snowflake.ParseString(raw)
		if err != nil {
			return filter, domain.ErrInvalidCategory
		}
		filter.CategoryID = &categoryID
	}
	return filter, nil
}

func (s *Service) visible(ctx context.Context, sess session.Session, project *domain.Project) (bool, error) {
	switch {
	case sess.Superadmin:
		return true, nil
	case sess.IsManager():
		return project.ManagerID == sess.IdentityID, nil
	case project.Status == domain.StatusOpen:
		return true, nil
	}

	return s.repo.HasOfferFrom(ctx, s.db, project.ID, sess.IdentityID)
}

// ownedForUpdate locks the project and hides projects owned by other managers.
func (s *Service) ownedForUpdate(ctx context.Context, tx *gorm.DB, sess session.Session, id snowflake.ID) (*domain.Project, error) {
	project, err := s.repo.FindForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if project == nil || (project.ManagerID != sess.IdentityID && !sess.Superadmin) {
		return nil, domain.ErrProjectNotFound
	}
	return project, nil
}

func (s *Service) resolveCategory(ctx context.Context, sess session.Session, raw *string) (*snowflake.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, domain.ErrInvalidCategory
	}
	category, err := s.categories.FindOne(ctx, &domain.Category{ID: id})
	if err != nil {
		return nil, err
	}
	if category == nil || (category.ManagerID != sess.IdentityID && !sess.Superadmin) {
		return nil, domain.ErrCategoryNotFound
	}
	return &category.ID, nil
}

func allowedTransition(from, to domain.ProjectStatus) bool {
	switch to {
	case domain.StatusCompleted, domain.StatusCancelled:
		return true
	case domain.StatusOpen:
		return from == domain.StatusOpen
	default:
		return false
	}
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return "", domain.ErrInvalidTitle
	}
	return title, nil
}

func projectRow(p *domain.Project) []string {
	deadline := ""
	if p.Deadline != nil {
		deadline = p.Deadline.UTC().Format("2006-01-02")
	}
	category := ""
	if p.CategoryID != nil {
		category = p.CategoryID.String()
	}
	return []string{
		p.ID.String(),
		p.Title,
		string(p.Status),
		export.Amount(p.Budget),
		deadline,
		p.ManagerID.String(),
		category,
		p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
