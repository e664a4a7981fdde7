package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	"github.com/foodyhq/entitlement/internal/clock"
	"github.com/foodyhq/entitlement/internal/config"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	subscriptionrepo "github.com/foodyhq/entitlement/internal/subscription/repository"
	subscriptionservice "github.com/foodyhq/entitlement/internal/subscription/service"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupScheduler(t *testing.T) (*Scheduler, subscriptiondomain.Service, *clock.FakeClock, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.Event{},
	))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	c, err := catalog.NewCatalog()
	require.NoError(t, err)
	plans, err := catalog.NewPlanRegistry(c)
	require.NoError(t, err)

	subs := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: fake,
		Cfg:  config.Config{Billing: config.BillingConfig{TrialDays: 14, GraceDays: 7}},
		Repo: subscriptionrepo.Provide(), Plans: plans,
	})

	sched, err := New(Params{
		Log:             zap.NewNop(),
		Clock:           fake,
		SubscriptionSvc: subs,
	})
	require.NoError(t, err)
	return sched, subs, fake, db
}

func TestRunOnceDeactivatesExpiredGrace(t *testing.T) {
	sched, subs, fake, db := setupScheduler(t)
	ctx := context.Background()

	_, err := subs.Create(ctx, snowflake.ID(7001), catalog.TierStarter)
	require.NoError(t, err)
	require.NoError(t, subs.Activate(ctx, snowflake.ID(7001)))
	require.NoError(t, subs.HandlePaymentEvent(ctx, subscriptiondomain.PaymentEventRequest{
		RestaurantID: snowflake.ID(7001),
		EventType:    subscriptiondomain.EventPaymentFailed,
	}))

	// Still inside the grace window: nothing to do.
	expired, err := sched.RunOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, expired)

	fake.Advance(8 * 24 * time.Hour)

	expired, err = sched.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	var sub subscriptiondomain.Subscription
	require.NoError(t, db.Where("restaurant_id = ?", snowflake.ID(7001)).First(&sub).Error)
	require.Equal(t, subscriptiondomain.StatusDeactivated, sub.Status)

	// Idempotent: a second pass finds nothing.
	expired, err = sched.RunOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, expired)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, 5*time.Minute, cfg.RunInterval)
	require.Equal(t, time.Minute, cfg.JobTimeout)

	cfg = Config{RunInterval: time.Second, JobTimeout: time.Second}.withDefaults()
	require.Equal(t, time.Second, cfg.RunInterval)
}
