package user

import (
	"github.com/foodyhq/entitlement/internal/user/repository"
	"github.com/foodyhq/entitlement/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
