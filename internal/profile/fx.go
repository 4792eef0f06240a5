package profile

import (
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/profile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("profile.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
