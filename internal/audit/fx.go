package audit

import (
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
