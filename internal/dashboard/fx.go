package dashboard

import (
	"github.com/foodyhq/entitlement/internal/dashboard/repository"
	"github.com/foodyhq/entitlement/internal/dashboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dashboard",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
