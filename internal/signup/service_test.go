package signup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	authrepository "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/repository"
	authservice "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/service"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	invitationdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/signup/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeInvitations struct {
	invitationdomain.Service

	validation  *invitationdomain.Validation
	validateErr error
	completeErr error
	completed   []invitationdomain.CompleteRequest
}

func (f *fakeInvitations) ValidateToken(context.Context, string) (*invitationdomain.Validation, error) {
	return f.validation, f.validateErr
}

func (f *fakeInvitations) CompleteInvitation(_ context.Context, req invitationdomain.CompleteRequest) (*invitationdomain.CompleteResult, error) {
	f.completed = append(f.completed, req)
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &invitationdomain.CompleteResult{
		Role:    f.validation.Role,
		Profile: &profiledomain.Profile{ID: req.UserID, Role: f.validation.Role},
	}, nil
}

func newTestService(t *testing.T, invitations *fakeInvitations) (domain.Service, authdomain.Service) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&authdomain.Identity{}, &authdomain.Session{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	repo, sessionRepo := authrepository.New(conn)
	authSvc := authservice.New(authservice.Params{
		DB:          conn,
		Log:         zaptest.NewLogger(t),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		Repo:        repo,
		SessionRepo: sessionRepo,
	})

	return NewService(Params{Log: zaptest.NewLogger(t), AuthSvc: authSvc, InvitationSvc: invitations}), authSvc
}

func TestSignupWithInvitation(t *testing.T) {
	invitations := &fakeInvitations{validation: &invitationdomain.Validation{Role: profiledomain.RoleFreelancer}}
	svc, _ := newTestService(t, invitations)

	result, err := svc.SignupWithInvitation(context.Background(), domain.Request{
		Token:    "tok",
		Email:    "Jane@Example.com",
		Password: "long-enough-password",
		Name:     "Jane Doe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawToken)
	assert.Equal(t, "jane@example.com", result.Identity.Email)
	assert.Equal(t, profiledomain.RoleFreelancer, result.Profile.Role)

	require.Len(t, invitations.completed, 1)
	assert.Equal(t, result.Identity.ID, invitations.completed[0].UserID)
	require.NotNil(t, invitations.completed[0].Name)
	assert.Equal(t, "Jane Doe", *invitations.completed[0].Name)
}

func TestSignupWithInvitationPartialCompletion(t *testing.T) {
	invitations := &fakeInvitations{
		validation:  &invitationdomain.Validation{Role: profiledomain.RoleFreelancer},
		completeErr: &invitationdomain.InvalidTokenError{Reason: invitationdomain.ReasonUsed},
	}
	svc, authSvc := newTestService(t, invitations)

	_, err := svc.SignupWithInvitation(context.Background(), domain.Request{
		Token:    "tok",
		Email:    "raced@example.com",
		Password: "long-enough-password",
	})
	require.ErrorIs(t, err, domain.ErrPartialCompletion)
	assert.ErrorIs(t, err, invitationdomain.ErrInvalidToken)

	identity, err := authSvc.FindByEmail(context.Background(), "raced@example.com")
	require.NoError(t, err)
	assert.NotZero(t, identity.ID)
}

func TestSignupWithInvalidTokenCreatesNothing(t *testing.T) {
	invitations := &fakeInvitations{validateErr: &invitationdomain.InvalidTokenError{Reason: invitationdomain.ReasonExpired}}
	svc, authSvc := newTestService(t, invitations)

	_, err := svc.SignupWithInvitation(context.Background(), domain.Request{
		Token:    "tok",
		Email:    "late@example.com",
		Password: "long-enough-password",
	})
	require.ErrorIs(t, err, invitationdomain.ErrInvalidToken)

	_, err = authSvc.FindByEmail(context.Background(), "late@example.com")
	assert.True(t, errors.Is(err, authdomain.ErrIdentityNotFound))
}

func TestSignupWithTargetedInvitation(t *testing.T) {
	invitations := &fakeInvitations{validation: &invitationdomain.Validation{
		Role:  profiledomain.RoleManager,
		Email: "lead@example.com",
	}}
	svc, _ := newTestService(t, invitations)

	_, err := svc.SignupWithInvitation(context.Background(), domain.Request{
		Token:    "tok",
		Email:    "someone-else@example.com",
		Password: "long-enough-password",
	})
	assert.ErrorIs(t, err, domain.ErrEmailMismatch)

	result, err := svc.SignupWithInvitation(context.Background(), domain.Request{
		Token:    "tok",
		Password: "long-enough-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "lead@example.com", result.Identity.Email)
}

func TestSignupRequiresTokenAndPassword(t *testing.T) {
	svc, _ := newTestService(t, &fakeInvitations{})
	_, err := svc.SignupWithInvitation(context.Background(), domain.Request{Email: "a@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
