package subscription

import (
	"github.com/foodyhq/entitlement/internal/subscription/repository"
	"github.com/foodyhq/entitlement/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
