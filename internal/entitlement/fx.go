package entitlement

import (
	"github.com/foodyhq/entitlement/internal/entitlement/repository"
	"github.com/foodyhq/entitlement/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
