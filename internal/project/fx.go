package project

import (
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/domain"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/project/service"
	pkgrepository "github.com/coderjoher/Project-Managment-Tool-sub000/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(pkgrepository.ProvideStore[domain.Category]),
	fx.Provide(service.NewService),
)
