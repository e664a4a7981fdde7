package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	"github.com/foodyhq/entitlement/internal/clock"
	"github.com/foodyhq/entitlement/internal/config"
	"github.com/foodyhq/entitlement/internal/dashboard"
	"github.com/foodyhq/entitlement/internal/entitlement"
	"github.com/foodyhq/entitlement/internal/migration"
	"github.com/foodyhq/entitlement/internal/observability"
	"github.com/foodyhq/entitlement/internal/scheduler"
	"github.com/foodyhq/entitlement/internal/server"
	"github.com/foodyhq/entitlement/internal/subscription"
	"github.com/foodyhq/entitlement/internal/tenant"
	"github.com/foodyhq/entitlement/internal/user"
	"github.com/foodyhq/entitlement/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		catalog.Module,
		user.Module,
		tenant.Module,
		entitlement.Module,
		subscription.Module,
		dashboard.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
