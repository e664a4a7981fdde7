package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/foodyhq/entitlement/internal/clock"
	obsmetrics "github.com/foodyhq/entitlement/internal/observability/metrics"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

// Config controls the overdue-subscription sweep.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 5 * time.Minute,
		JobTimeout:  time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

type Params struct {
	fx.In

	Log             *zap.Logger
	Clock           clock.Clock
	SubscriptionSvc subscriptiondomain.Service
	Config          Config `optional:"true"`
}

// Scheduler periodically deactivates past_due subscriptions whose grace
// window has elapsed. The sweep itself is idempotent, so overlapping runs
// across replicas only cost redundant row locks.
type Scheduler struct {
	log             *zap.Logger
	cfg             Config
	clock           clock.Clock
	subscriptionSvc subscriptiondomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.SubscriptionSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:             p.Config.withDefaults(),
		clock:           p.Clock,
		subscriptionSvc: p.SubscriptionSvc,
	}, nil
}

// RunOnce executes a single sweep with the configured timeout.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	expired, err := s.subscriptionSvc.ExpireOverdue(ctx)
	elapsed := time.Since(start)

	obsmetrics.Sweep().ObserveRun(elapsed, expired, err)

	if err != nil {
		s.log.Warn("overdue sweep failed",
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return expired, err
	}
	if expired > 0 {
		s.log.Info("overdue sweep deactivated subscriptions",
			zap.Int("expired", expired),
			zap.Duration("elapsed", elapsed),
		)
	}
	return expired, nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
