package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	auditrepository "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/repository"
	auditservice "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/service"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/authorization"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	financialdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	financialrepository "github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/repository"
	financialservice "github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/service"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/repository"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	profilerepository "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/repository"
	projectdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	projectrepository "github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/providers/pdf"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/ratelimit"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	pkgrepository "github.com/coderjoher/Project-Managment-Tool-sub000/pkg/repository"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var (
	manager     = session.Session{IdentityID: 3001, Email: "mgr@example.com", Role: session.RoleManager}
	otherMgr    = session.Session{IdentityID: 3002, Email: "other@example.com", Role: session.RoleManager}
	superadmin  = session.Session{IdentityID: 3003, Email: "root@example.com", Role: session.RoleManager, Superadmin: true}
	freelancer  = session.Session{IdentityID: 3004, Email: "free@example.com", Role: session.RoleFreelancer}
	freelancer2 = session.Session{IdentityID: 3005, Email: "free2@example.com", Role: session.RoleFreelancer}
)

type fixture struct {
	db    *gorm.DB
	clock *clock.FakeClock
	svc   domain.Service
}

func newFixture(t *testing.T, locker *ratelimit.Locker) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Offer{},
		&projectdomain.Project{},
		&financialdomain.Financial{},
		&financialdomain.Update{},
		&profiledomain.Profile{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))

	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)
	authz := authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer})
	auditSvc := auditservice.NewService(auditservice.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: auditrepository.Provide(),
	})

	financialSvc := financialservice.NewService(financialservice.Params{
		DB:          conn,
		Log:         log,
		Clock:       clk,
		GenID:       node,
		Repo:        financialrepository.Provide(),
		Updates:     pkgrepository.ProvideStore[financialdomain.Update](conn),
		ProjectRepo: projectrepository.Provide(),
		ProfileRepo: profilerepository.Provide(),
		Authz:       authz,
		PDF:         pdf.New(),
		AuditSvc:    auditSvc,
	})

	svc := NewService(Params{
		DB:           conn,
		Log:          log,
		Clock:        clk,
		GenID:        node,
		Policy:       config.NewStaticPolicyHolder(config.DefaultPolicy()),
		Repo:         repository.Provide(),
		ProjectRepo:  projectrepository.Provide(),
		FinancialSvc: financialSvc,
		Authz:        authz,
		Locker:       locker,
		AuditSvc:     auditSvc,
	})
	return &fixture{db: conn, clock: clk, svc: svc}
}

func (f *fixture) project(t *testing.T, id snowflake.ID, budget int64) {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, f.db.Create(&projectdomain.Project{
		ID: id, Title: "Project", Budget: budget, Status: projectdomain.StatusOpen,
		ManagerID: manager.IdentityID, CreatedAt: now, UpdatedAt: now,
	}).Error)
}

func (f *fixture) reloadProject(t *testing.T, id snowflake.ID) projectdomain.Project {
	t.Helper()
	var project projectdomain.Project
	require.NoError(t, f.db.First(&project, "id = ?", id).Error)
	return project
}

func (f *fixture) financialCount(t *testing.T, projectID snowflake.ID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&financialdomain.Financial{}).Where("project_id = ?", projectID).Count(&count).Error)
	return count
}

func TestAcceptOfferOpensLedger(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)

	offer, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 500, DeliveryTime: 14, Message: "  can start monday "})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, offer.Status)
	assert.Equal(t, "can start monday", offer.Message)

	res, err := f.svc.UpdateOfferStatus(ctx, manager, offer.ID, "accepted")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, res.Offer.Status)
	require.NotNil(t, res.Offer.DecidedAt)

	require.NotNil(t, res.Financial)
	assert.Equal(t, int64(500), res.Financial.AcceptedPrice)
	assert.Equal(t, int64(600), res.Financial.EstimatedBudget)
	assert.Equal(t, int64(0), res.Financial.AmountPaid)
	assert.Equal(t, financialdomain.PaymentPending, res.Financial.PaymentStatus)
	assert.Equal(t, freelancer.IdentityID, res.Financial.FreelancerID)

	assert.Equal(t, projectdomain.StatusInProgress, f.reloadProject(t, 100).Status)
	assert.Equal(t, int64(1), f.financialCount(t, 100))

	var audits int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).Where("action = ?", auditdomain.ActionOfferAccepted).Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestSecondAcceptanceIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)

	first, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 500, DeliveryTime: 7})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, freelancer2, 100, domain.CreateRequest{Price: 450, DeliveryTime: 9})
	require.NoError(t, err)

	_, err = f.svc.UpdateOfferStatus(ctx, manager, first.ID, "ACCEPTED")
	require.NoError(t, err)

	_, err = f.svc.UpdateOfferStatus(ctx, manager, second.ID, "ACCEPTED")
	assert.ErrorIs(t, err, domain.ErrProjectNotOpen)
	assert.Equal(t, int64(1), f.financialCount(t, 100))

	// Siblings can still be declined after the project moved on.
	res, err := f.svc.UpdateOfferStatus(ctx, manager, second.ID, "REJECTED")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, res.Offer.Status)
	assert.Nil(t, res.Financial)
}

func TestAcceptedOfferCheckWithoutProjectChange(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)

	first, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 500, DeliveryTime: 7})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, freelancer2, 100, domain.CreateRequest{Price: 450, DeliveryTime: 9})
	require.NoError(t, err)

	// An accepted row left behind with the project still OPEN must still block.
	require.NoError(t, f.db.Model(&domain.Offer{}).Where("id = ?", first.ID).Update("status", domain.StatusAccepted).Error)

	_, err = f.svc.UpdateOfferStatus(ctx, manager, second.ID, "ACCEPTED")
	assert.ErrorIs(t, err, domain.ErrProjectAlreadyAccepted)
	assert.Equal(t, projectdomain.StatusOpen, f.reloadProject(t, 100).Status)
}

func TestDecisionIsFinal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)

	offer, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 500, DeliveryTime: 7})
	require.NoError(t, err)

	_, err = f.svc.UpdateOfferStatus(ctx, manager, offer.ID, "REJECTED")
	require.NoError(t, err)

	_, err = f.svc.UpdateOfferStatus(ctx, manager, offer.ID, "ACCEPTED")
	assert.ErrorIs(t, err, domain.ErrOfferAlreadyDecided)
	assert.Equal(t, projectdomain.StatusOpen, f.reloadProject(t, 100).Status)

	_, err = f.svc.UpdateOfferStatus(ctx, manager, offer.ID, "PENDING")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestDecisionOwnership(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)

	offer, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 500, DeliveryTime: 7})
	require.NoError(t, err)

	_, err = f.svc.UpdateOfferStatus(ctx, otherMgr, offer.ID, "ACCEPTED")
	assert.ErrorIs(t, err, domain.ErrOfferNotFound)

	_, err = f.svc.UpdateOfferStatus(ctx, freelancer, offer.ID, "ACCEPTED")
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	_, err = f.svc.UpdateOfferStatus(ctx, manager, 999, "ACCEPTED")
	assert.ErrorIs(t, err, domain.ErrOfferNotFound)

	res, err := f.svc.UpdateOfferStatus(ctx, superadmin, offer.ID, "ACCEPTED")
	require.NoError(t, err)
	assert.Equal(t, manager.IdentityID, res.Financial.ManagerID)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)

	_, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 0, DeliveryTime: 7})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 10, DeliveryTime: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidDeliveryTime)

	_, err = f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 10, DeliveryTime: 1, Message: strings.Repeat("x", maxMessageLength+1)})
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	_, err = f.svc.Create(ctx, freelancer, 404, domain.CreateRequest{Price: 10, DeliveryTime: 1})
	assert.ErrorIs(t, err, projectdomain.ErrProjectNotFound)

	_, err = f.svc.Create(ctx, manager, 100, domain.CreateRequest{Price: 10, DeliveryTime: 1})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	_, err = f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 10, DeliveryTime: 1})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 12, DeliveryTime: 1})
	assert.ErrorIs(t, err, domain.ErrOfferExists)

	require.NoError(t, f.db.Model(&projectdomain.Project{}).Where("id = ?", 100).Update("status", projectdomain.StatusCancelled).Error)
	_, err = f.svc.Create(ctx, freelancer2, 100, domain.CreateRequest{Price: 10, DeliveryTime: 1})
	assert.ErrorIs(t, err, domain.ErrProjectNotOpen)
}

func TestListScopes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)
	now := f.clock.Now()
	require.NoError(t, f.db.Create(&projectdomain.Project{
		ID: 200, Title: "Other", Budget: 50, Status: projectdomain.StatusOpen,
		ManagerID: otherMgr.IdentityID, CreatedAt: now, UpdatedAt: now,
	}).Error)

	_, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 500, DeliveryTime: 7})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, freelancer2, 100, domain.CreateRequest{Price: 400, DeliveryTime: 7})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, freelancer, 200, domain.CreateRequest{Price: 40, DeliveryTime: 2})
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, freelancer, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, mine.Offers, 2)

	byProject, err := f.svc.List(ctx, freelancer, domain.ListRequest{ProjectID: "100"})
	require.NoError(t, err)
	require.Len(t, byProject.Offers, 1)
	assert.Equal(t, freelancer.IdentityID, byProject.Offers[0].FreelancerID)

	managed, err := f.svc.List(ctx, manager, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, managed.Offers, 2)

	_, err = f.svc.List(ctx, otherMgr, domain.ListRequest{ProjectID: "100"})
	assert.ErrorIs(t, err, projectdomain.ErrProjectNotFound)

	all, err := f.svc.List(ctx, superadmin, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Offers, 3)

	_, err = f.svc.List(ctx, manager, domain.ListRequest{Status: "maybe"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestListPagination(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)

	bidders := []session.Session{freelancer, freelancer2,
		{IdentityID: 3006, Role: session.RoleFreelancer},
	}
	for _, bidder := range bidders {
		_, err := f.svc.Create(ctx, bidder, 100, domain.CreateRequest{Price: 100, DeliveryTime: 3})
		require.NoError(t, err)
	}

	req := domain.ListRequest{}
	req.PageSize = 2
	first, err := f.svc.List(ctx, manager, req)
	require.NoError(t, err)
	require.Len(t, first.Offers, 2)
	require.True(t, first.HasMore)

	req.PageToken = first.NextPageToken
	second, err := f.svc.List(ctx, manager, req)
	require.NoError(t, err)
	require.Len(t, second.Offers, 1)
	assert.False(t, second.HasMore)

	req.PageToken = "%%%"
	_, err = f.svc.List(ctx, manager, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)

	offer, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 500, DeliveryTime: 7})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, freelancer, offer.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, manager, offer.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, freelancer2, offer.ID)
	assert.ErrorIs(t, err, domain.ErrOfferNotFound)
	_, err = f.svc.Get(ctx, otherMgr, offer.ID)
	assert.ErrorIs(t, err, domain.ErrOfferNotFound)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.project(t, 100, 600)

	_, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 500, DeliveryTime: 7, Message: "hello, world"})
	require.NoError(t, err)

	file, err := f.svc.ExportCSV(ctx, freelancer, domain.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, "offers-2025-02-01.csv", file.Name)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(exportHeader, ","), lines[0])
	assert.Contains(t, lines[1], "\"hello, world\"")
	assert.Contains(t, lines[1], ",5.00,7,PENDING,")
}

func TestAcceptHonoursProjectLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, ratelimit.NewLocker(client))
	ctx := context.Background()
	f.project(t, 100, 600)

	offer, err := f.svc.Create(ctx, freelancer, 100, domain.CreateRequest{Price: 500, DeliveryTime: 7})
	require.NoError(t, err)

	require.NoError(t, mr.Set("offer:accept:project:100", "someone-else"))
	_, err = f.svc.UpdateOfferStatus(ctx, manager, offer.ID, "ACCEPTED")
	assert.ErrorIs(t, err, domain.ErrDecisionInProgress)
	assert.Equal(t, projectdomain.StatusOpen, f.reloadProject(t, 100).Status)

	mr.Del("offer:accept:project:100")
	_, err = f.svc.UpdateOfferStatus(ctx, manager, offer.ID, "ACCEPTED")
	require.NoError(t, err)
	assert.False(t, mr.Exists("offer:accept:project:100"))
}
