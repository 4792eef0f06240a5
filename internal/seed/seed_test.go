package seed

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	auditrepository "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/repository"
	auditservice "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/service"
	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/password"
	authrepository "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	profilerepository "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newParams(t *testing.T, bootstrap config.BootstrapConfig) Params {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.Identity{}, &profiledomain.Profile{}, &auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	identityRepo, _ := authrepository.New(conn)

	return Params{
		DB:           conn,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Cfg:          config.Config{Bootstrap: bootstrap},
		IdentityRepo: identityRepo,
		ProfileRepo:  profilerepository.Provide(),
		AuditSvc: auditservice.NewService(auditservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk, Repo: auditrepository.Provide(),
		}),
	}
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	p := newParams(t, config.BootstrapConfig{
		AdminEmail: "Root@Example.com", AdminPassword: "correct-horse", AdminName: "Root",
	})
	ctx := context.Background()

	created, err := EnsureBootstrapAdmin(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)

	var identity authdomain.Identity
	require.NoError(t, p.DB.First(&identity, "email = ?", "root@example.com").Error)
	assert.True(t, password.Verify("correct-horse", identity.PasswordHash))

	var profile profiledomain.Profile
	require.NoError(t, p.DB.First(&profile, "id = ?", identity.ID).Error)
	assert.True(t, profile.IsSuperadmin)
	assert.Equal(t, profiledomain.RoleManager, profile.Role)
	assert.Equal(t, profiledomain.ProvisionedViaBootstrap, profile.ProvisionedVia)

	created, err = EnsureBootstrapAdmin(ctx, p)
	require.NoError(t, err)
	assert.False(t, created)

	var audits int64
	require.NoError(t, p.DB.Model(&auditdomain.AuditLog{}).Where("action = ?", auditdomain.ActionProfileBootstrapped).Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestEnsureBootstrapAdminSkipsWhenUnset(t *testing.T) {
	p := newParams(t, config.BootstrapConfig{})
	created, err := EnsureBootstrapAdmin(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureBootstrapAdminRejectsWeakPassword(t *testing.T) {
	p := newParams(t, config.BootstrapConfig{AdminEmail: "root@example.com", AdminPassword: "short"})
	_, err := EnsureBootstrapAdmin(context.Background(), p)
	assert.ErrorIs(t, err, ErrBootstrapPasswordTooShort)
}
