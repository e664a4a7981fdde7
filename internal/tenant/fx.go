package tenant

import (
	"github.com/foodyhq/entitlement/internal/tenant/repository"
	"github.com/foodyhq/entitlement/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
