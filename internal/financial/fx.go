package financial

import (
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/financial/service"
	pkgrepository "github.com/coderjoher/Project-Managment-Tool-sub000/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("financial.service",
	fx.Provide(repository.Provide),
	fx.Provide(pkgrepository.ProvideStore[domain.Update]),
	fx.Provide(service.NewService),
)
