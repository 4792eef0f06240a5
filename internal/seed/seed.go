// Package seed provisions the bootstrap superadmin on start-up.
package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/domain"
	authdomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/password"
	authservice "github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/service"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/clock"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	profiledomain "github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrBootstrapPasswordTooShort = errors.New("bootstrap_password_too_short")

var Module = fx.Module("seed",
	fx.Invoke(Run),
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Cfg          config.Config
	IdentityRepo authdomain.Repository
	ProfileRepo  profiledomain.Repository
	AuditSvc     auditdomain.Service `optional:"true"`
}

func Run(p Params) error {
	_, err := EnsureBootstrapAdmin(context.Background(), p)
	return err
}

// EnsureBootstrapAdmin creates the configured admin identity and its superadmin
// MANAGER profile when they are missing. It reports whether anything was created.
func EnsureBootstrapAdmin(ctx context.Context, p Params) (bool, error) {
	log := p.Log.Named("seed")
	cfg := p.Cfg.Bootstrap
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Debug("bootstrap admin not configured")
		return false, nil
	}

	email, err := authservice.NormalizeEmail(cfg.AdminEmail)
	if err != nil {
		return false, authdomain.ErrInvalidEmail
	}
	if len(cfg.AdminPassword) < password.MinLength {
		return false, ErrBootstrapPasswordTooShort
	}

	created := false
	err = p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := rls.Privileged(tx); err != nil {
			return err
		}

		now := p.Clock.Now()
		identity, err := p.IdentityRepo.FindByEmail(ctx, tx, email)
		if errors.Is(err, authdomain.ErrIdentityNotFound) {
			hashed, err := password.Hash(cfg.AdminPassword)
			if err != nil {
				return err
			}
			identity = &authdomain.Identity{
				ID:           p.GenID.Generate(),
				Email:        email,
				PasswordHash: hashed,
				Metadata:     datatypes.JSONMap{"name": cfg.AdminName},
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := p.IdentityRepo.CreateIdentity(ctx, tx, identity); err != nil {
				return err
			}
			created = true
		} else if err != nil {
			return err
		}

		profile, err := p.ProfileRepo.FindByID(ctx, tx, identity.ID)
		if err != nil {
			return err
		}
		if profile != nil {
			return nil
		}

		profile = &profiledomain.Profile{
			ID:                identity.ID,
			Email:             email,
			Role:              profiledomain.RoleManager,
			IsSuperadmin:      true,
			PreferredPlatform: profiledomain.PlatformInApp,
			ProvisionedVia:    profiledomain.ProvisionedViaBootstrap,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if name := strings.TrimSpace(cfg.AdminName); name != "" {
			profile.Name = &name
		}
		if err := p.ProfileRepo.Insert(ctx, tx, profile); err != nil {
			return err
		}
		created = true

		if p.AuditSvc == nil {
			return nil
		}
		return p.AuditSvc.Record(ctx, tx, auditdomain.Entry{
			ActorID:    identity.ID,
			Action:     auditdomain.ActionProfileBootstrapped,
			TargetType: "profile",
			TargetID:   identity.ID.String(),
		})
	})
	if err != nil {
		return false, err
	}

	if created {
		log.Info("bootstrap superadmin provisioned", zap.String("email", email))
	}
	return created, nil
}
