package invitation

import (
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(service.NewPendingInvitations),
)
