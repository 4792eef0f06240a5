package auth

import (
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/cookie"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/repository"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(cookie.NewManager),
)
