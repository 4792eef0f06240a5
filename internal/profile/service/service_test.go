package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fakePending struct {
	emails map[string]bool
}

func (f fakePending) HasPendingFor(_ context.Context, email string, _ time.Time) (bool, error) {
	return f.emails[email], nil
}

// staleRepo hides existing rows from the first lookup to simulate a concurrent insert.
type staleRepo struct {
	domain.Repository
	lookups int
}

func (r *staleRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Profile, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, nil
	}
	return r.Repository.FindByID(ctx, db, id)
}

type fixture struct {
	db   *gorm.DB
	repo domain.Repository
	svc  domain.Service
}

func newFixture(t *testing.T, policy config.Policy, pending domain.PendingInvitations, repo domain.Repository) fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Profile{}))

	if repo == nil {
		repo = repository.Provide()
	}
	svc := NewService(Params{
		DB:      conn,
		Log:     zaptest.NewLogger(t),
		Clock:   clock.NewFakeClock(time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)),
		Policy:  config.NewStaticPolicyHolder(policy),
		Repo:    repo,
		Pending: pending,
	})
	return fixture{db: conn, repo: repo, svc: svc}
}

func TestEnsureProfileSelfHealsAsFreelancer(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy(), fakePending{}, nil)
	sess := session.Session{IdentityID: 101, Email: "Jane@Example.com", Name: "Jane"}

	profile, err := f.svc.EnsureProfile(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(101), profile.ID)
	assert.Equal(t, domain.RoleFreelancer, profile.Role)
	assert.Equal(t, domain.ProvisionedViaSelfHeal, profile.ProvisionedVia)
	assert.Equal(t, domain.PlatformInApp, profile.PreferredPlatform)
	assert.Equal(t, "jane@example.com", profile.Email)
	require.NotNil(t, profile.Name)
	assert.Equal(t, "Jane", *profile.Name)

	again, err := f.svc.EnsureProfile(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)

	var count int64
	require.NoError(t, f.db.Model(&domain.Profile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureProfileRespectsPolicy(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.Profiles.SelfHeal = false
	f := newFixture(t, policy, fakePending{}, nil)

	_, err := f.svc.EnsureProfile(context.Background(), session.Session{IdentityID: 7, Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrProfileRequired)
}

func TestEnsureProfileRefusesWhenInvitationPending(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy(), fakePending{emails: map[string]bool{"invited@example.com": true}}, nil)

	_, err := f.svc.EnsureProfile(context.Background(), session.Session{IdentityID: 7, Email: "invited@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvitationPending)
}

func TestEnsureProfileRecoversFromConcurrentInsert(t *testing.T) {
	stale := &staleRepo{Repository: repository.Provide()}
	f := newFixture(t, config.DefaultPolicy(), fakePending{}, stale)

	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Create(&domain.Profile{
		ID:                55,
		Email:             "mgr@example.com",
		Role:              domain.RoleManager,
		PreferredPlatform: domain.PlatformInApp,
		ProvisionedVia:    domain.ProvisionedViaInvitation,
		CreatedAt:         now,
		UpdatedAt:         now,
	}).Error)

	profile, err := f.svc.EnsureProfile(context.Background(), session.Session{IdentityID: 55, Email: "mgr@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, profile.Role)
}

func TestEnsureProfileRequiresIdentity(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy(), nil, nil)
	_, err := f.svc.EnsureProfile(context.Background(), session.Session{})
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, config.DefaultPolicy(), fakePending{}, nil)
	sess := session.Session{IdentityID: 9, Email: "sam@example.com"}
	_, err := f.svc.EnsureProfile(context.Background(), sess)
	require.NoError(t, err)

	name := "Sam"
	platform := "telegram"
	avatar := "https://cdn.example.com/sam.png"
	updated, err := f.svc.Update(context.Background(), sess, domain.UpdateRequest{
		Name:              &name,
		PreferredPlatform: &platform,
		AvatarURL:         &avatar,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sam", *updated.Name)
	assert.Equal(t, domain.PlatformTelegram, updated.PreferredPlatform)
	assert.Equal(t, domain.RoleFreelancer, updated.Role)

	bad := "SMOKE_SIGNAL"
	_, err = f.svc.Update(context.Background(), sess, domain.UpdateRequest{PreferredPlatform: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidPlatform)

	badURL := "javascript:alert(1)"
	_, err = f.svc.Update(context.Background(), sess, domain.UpdateRequest{AvatarURL: &badURL})
	assert.ErrorIs(t, err, domain.ErrInvalidAvatarURL)

	_, err = f.svc.Update(context.Background(), session.Session{IdentityID: 404}, domain.UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
