package scheduler

import (
	"context"
	"time"

	"github.com/foodyhq/entitlement/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(NewScheduler),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: time.Duration(cfg.Billing.SweepInterval) * time.Second,
	}.withDefaults()
}

func NewScheduler(lc fx.Lifecycle, cfg config.Config, sched *Scheduler) {
	// SweepInterval 0 disables the sweep; a deploy can run the engine as an
	// API-only replica and leave sweeping to a dedicated one.
	if cfg.Billing.SweepInterval == 0 {
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sched.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
