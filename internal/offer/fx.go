package offer

import (
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/offer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("offer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
