package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auditcontext"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/authorization"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) auditdomain.Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.AuditLog{}))
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:       conn,
		Log:      zaptest.NewLogger(t),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		Repo:     repository.Provide(),
		Enforcer: enforcer,
	})
}

func TestRecordCapturesRequestInfo(t *testing.T) {
	svc := newTestService(t)
	ctx := auditcontext.WithRequestInfo(context.Background(), "10.0.0.1", "curl/8.0")

	err := svc.Record(ctx, nil, auditdomain.Entry{
		ActorID:    7,
		Action:     auditdomain.ActionInvitationCreated,
		TargetType: "invitation",
		TargetID:   "42",
		Metadata:   map[string]any{"role": "FREELANCER", "": "dropped"},
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), session.Session{IdentityID: 1, Superadmin: true}, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, auditdomain.ActionInvitationCreated, entry.Action)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, snowflake.ID(7), *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.1", *entry.IPAddress)
	assert.Equal(t, "FREELANCER", entry.Metadata["role"])
	assert.NotContains(t, entry.Metadata, "")
}

func TestRecordRequiresAction(t *testing.T) {
	svc := newTestService(t)
	err := svc.Record(context.Background(), nil, auditdomain.Entry{TargetType: "project"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListScopesManagersToOwnActions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, actor := range []snowflake.ID{1, 2, 1} {
		require.NoError(t, svc.Record(ctx, nil, auditdomain.Entry{
			ActorID:    actor,
			Action:     auditdomain.ActionProjectDeleted,
			TargetType: "project",
		}))
	}

	manager := session.Session{IdentityID: 1, Role: session.RoleManager}
	resp, err := svc.List(ctx, manager, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 2)
	for _, entry := range resp.AuditLogs {
		require.NotNil(t, entry.ActorID)
		assert.Equal(t, snowflake.ID(1), *entry.ActorID)
	}

	_, err = svc.List(ctx, manager, auditdomain.ListAuditLogRequest{ActorID: "2"})
	assert.ErrorIs(t, err, auditdomain.ErrForbidden)

	admin := session.Session{IdentityID: 9, Superadmin: true}
	all, err := svc.List(ctx, admin, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	assert.Len(t, all.AuditLogs, 3)

	other, err := svc.List(ctx, admin, auditdomain.ListAuditLogRequest{ActorID: "2"})
	require.NoError(t, err)
	assert.Len(t, other.AuditLogs, 1)
}

func TestListDeniesFreelancers(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.List(context.Background(), session.Session{IdentityID: 1, Role: session.RoleFreelancer}, auditdomain.ListAuditLogRequest{})
	assert.ErrorIs(t, err, auditdomain.ErrForbidden)

	_, err = svc.List(context.Background(), session.Session{}, auditdomain.ListAuditLogRequest{})
	assert.ErrorIs(t, err, auditdomain.ErrForbidden)
}

func TestListPaginates(t *testing.T) {
	svc := newTestService(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(context.Background(), nil, auditdomain.Entry{
			Action:     auditdomain.ActionProjectDeleted,
			TargetType: "project",
		}))
	}

	admin := session.Session{IdentityID: 1, Superadmin: true}
	req := auditdomain.ListAuditLogRequest{}
	req.PageSize = 2

	first, err := svc.List(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)

	req.PageToken = first.NextPageToken
	second, err := svc.List(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.Less(t, int64(second.AuditLogs[0].ID), int64(first.AuditLogs[1].ID))
}
