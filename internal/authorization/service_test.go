package authorization

import (
	"context"
	"testing"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/session"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) Service {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)

	return NewService(Params{Log: zaptest.NewLogger(t), Enforcer: enforcer})
}

func TestAuthorizeByRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	manager := session.Session{IdentityID: 1, Role: session.RoleManager}
	freelancer := session.Session{IdentityID: 2, Role: session.RoleFreelancer}
	admin := session.Session{IdentityID: 3, Role: session.RoleManager, Superadmin: true}

	assert.NoError(t, svc.Authorize(ctx, manager, ObjectInvitation, ActionInvitationCreateFreelancer))
	assert.ErrorIs(t, svc.Authorize(ctx, manager, ObjectInvitation, ActionInvitationCreateManager), ErrForbidden)
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectInvitation, ActionInvitationCreateManager))

	assert.NoError(t, svc.Authorize(ctx, freelancer, ObjectOffer, ActionOfferCreate))
	assert.ErrorIs(t, svc.Authorize(ctx, freelancer, ObjectOffer, ActionOfferDecide), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, manager, ObjectOffer, ActionOfferCreate), ErrForbidden)

	assert.NoError(t, svc.Authorize(ctx, manager, ObjectAuditLog, ActionAuditLogView))
	assert.ErrorIs(t, svc.Authorize(ctx, freelancer, ObjectAuditLog, ActionAuditLogView), ErrForbidden)
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectAuditLog, ActionAuditLogView))
}

func TestAuthorizeRejectsMissingIdentity(t *testing.T) {
	svc := newTestService(t)
	err := svc.Authorize(context.Background(), session.Session{Role: session.RoleManager}, ObjectProject, ActionProjectView)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSeedPoliciesIsIdempotent(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	first, err := NewEnforcer(conn)
	require.NoError(t, err)
	before, err := first.GetPolicy()
	require.NoError(t, err)

	second, err := NewEnforcer(conn)
	require.NoError(t, err)
	after, err := second.GetPolicy()
	require.NoError(t, err)

	assert.Equal(t, len(before), len(after))
}
