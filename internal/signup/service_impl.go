package signup

import (
	"context"
	"strings"

	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	invitationdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/signup/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log           *zap.Logger
	AuthSvc       authdomain.Service
	InvitationSvc invitationdomain.Service
}

type Service struct {
	log           *zap.Logger
	authSvc       authdomain.Service
	invitationSvc invitationdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		log:           p.Log.Named("signup.service"),
		authSvc:       p.AuthSvc,
		invitationSvc: p.InvitationSvc,
	}
}

func (s *Service) SignupWithInvitation(ctx context.Context, req domain.Request) (*domain.Result, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" || strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidRequest
	}

	// Checked up front so a dead token never creates an identity.
	validation, err := s.invitationSvc.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = validation.Email
	}
	if email == "" {
		return nil, domain.ErrInvalidRequest
	}
	if validation.Email != "" && email != validation.Email {
		return nil, domain.ErrEmailMismatch
	}

	name := strings.TrimSpace(req.Name)
	identity, err := s.authSvc.SignUp(ctx, authdomain.SignUpRequest{
		Email:    email,
		Password: req.Password,
		Metadata: map[string]any{
			"name":           name,
			"requested_role": string(validation.Role),
		},
	})
	if err != nil {
		return nil, err
	}

	var namePtr *string
	if name != "" {
		namePtr = &name
	}
	completed, err := s.invitationSvc.CompleteInvitation(ctx, invitationdomain.CompleteRequest{
		Token:  token,
		UserID: identity.ID,
		Name:   namePtr,
	})
	if err != nil {
		s.log.Warn("identity created but invitation completion failed",
			zap.String("identity_id", identity.ID.String()),
			zap.Error(err),
		)
		return nil, &domain.PartialCompletionError{IdentityID: identity.ID.String(), Cause: err}
	}

	login, err := s.authSvc.Login(ctx, authdomain.LoginRequest{
		Email:     email,
		Password:  req.Password,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Result{
		Identity:  identity,
		Profile:   completed.Profile,
		RawToken:  login.RawToken,
		ExpiresAt: login.ExpiresAt,
	}, nil
}
