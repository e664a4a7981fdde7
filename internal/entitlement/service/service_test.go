package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	"github.com/foodyhq/entitlement/internal/clock"
	entitlementdomain "github.com/foodyhq/entitlement/internal/entitlement/domain"
	"github.com/foodyhq/entitlement/internal/entitlement/repository"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	subscriptionrepo "github.com/foodyhq/entitlement/internal/subscription/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testRestaurant snowflake.ID = 2001

func setupService(t *testing.T) (entitlementdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entitlementdomain.FeatureState{},
		&entitlementdomain.RestaurantPlan{},
		&subscriptiondomain.Subscription{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	c, err := catalog.NewCatalog()
	require.NoError(t, err)
	plans, err := catalog.NewPlanRegistry(c)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Repo:    repository.Provide(),
		Subs:    subscriptionrepo.Provide(),
		Catalog: c,
		Plans:   plans,
	})
	return svc, db
}

func seedSubscription(t *testing.T, db *gorm.DB, status subscriptiondomain.Status) {
	t.Helper()
	require.NoError(t, db.Create(&subscriptiondomain.Subscription{
		ID:           snowflake.ID(9000),
		RestaurantID: testRestaurant,
		Status:       status,
		PlanTier:     catalog.TierStarter,
	}).Error)
}

func setStatus(t *testing.T, db *gorm.DB, status subscriptiondomain.Status) {
	t.Helper()
	require.NoError(t, db.Model(&subscriptiondomain.Subscription{}).
		Where("restaurant_id = ?", testRestaurant).
		Update("status", status).Error)
}

func enabledSet(snapshot *entitlementdomain.Snapshot) map[catalog.FeatureKey]bool {
	set := make(map[catalog.FeatureKey]bool, len(snapshot.States))
	for _, state := range snapshot.States {
		set[state.FeatureKey] = state.Enabled
	}
	return set
}

func TestResolveBackfillsFreshTenant(t *testing.T) {
	svc, db := setupService(t)
	seedSubscription(t, db, subscriptiondomain.StatusTrial)

	snapshot, err := svc.Resolve(context.Background(), testRestaurant)
	require.NoError(t, err)

	c, err := catalog.NewCatalog()
	require.NoError(t, err)
	require.Len(t, snapshot.States, len(c.All()))
	require.True(t, snapshot.Servable)

	for i, state := range snapshot.States {
		def := c.All()[i]
		require.Equal(t, def.Key, state.FeatureKey, "states follow catalog order")
		require.Equal(t, def.AlwaysOn, state.Enabled, "backfilled rows are disabled unless always-on")
		require.Nil(t, state.OverriddenBy)
	}
}

func TestApplyPlanSeedsDefaults(t *testing.T) {
	svc, db := setupService(t)
	seedSubscription(t, db, subscriptiondomain.StatusTrial)
	ctx := context.Background()

	snapshot, err := svc.ApplyPlan(ctx, testRestaurant, catalog.TierStarter, snowflake.ID(501))
	require.NoError(t, err)
	require.NotNil(t, snapshot.Plan)
	require.Equal(t, catalog.TierStarter, snapshot.Plan.PlanTier)
	require.Equal(t, 300, snapshot.Plan.OrderLimit)

	set := enabledSet(snapshot)
	require.True(t, set[catalog.FeaturePOS])
	require.True(t, set[catalog.FeatureMenuManagement])
	require.True(t, set[catalog.FeatureReceiptPrinting])
	require.True(t, set[catalog.FeaturePushNotif])
	require.False(t, set[catalog.FeatureDeliveryFlow])
	require.False(t, set[catalog.FeatureOnlinePayments])
}

func TestApplyPlanIsIdempotent(t *testing.T) {
	svc, db := setupService(t)
	seedSubscription(t, db, subscriptiondomain.StatusTrial)
	ctx := context.Background()

	first, err := svc.ApplyPlan(ctx, testRestaurant, catalog.TierPremium, snowflake.ID(501))
	require.NoError(t, err)
	second, err := svc.ApplyPlan(ctx, testRestaurant, catalog.TierPremium, snowflake.ID(501))
	require.NoError(t, err)

	require.Equal(t, enabledSet(first), enabledSet(second))
	for _, state := range second.States {
		require.Nil(t, state.OverriddenBy)
	}
}

func TestApplyPlanDiscardsOverrides(t *testing.T) {
	svc, db := setupService(t)
	seedSubscription(t, db, subscriptiondomain.StatusTrial)
	ctx := context.Background()

	_, err := svc.ApplyPlan(ctx, testRestaurant, catalog.TierStarter, snowflake.ID(501))
	require.NoError(t, err)

	// No enabled feature depends on menu_management under starter, so the
	// manual disable goes through.
	_, err = svc.Toggle(ctx, testRestaurant, catalog.FeatureMenuManagement, false, snowflake.ID(502))
	require.NoError(t, err)

	snapshot, err := svc.ApplyPlan(ctx, testRestaurant, catalog.TierEnterprise, snowflake.ID(501))
	require.NoError(t, err)
	require.NotNil(t, snapshot.Plan)
	require.Equal(t, catalog.TierEnterprise, snapshot.Plan.PlanTier)
	require.Equal(t, 0, snapshot.Plan.OrderLimit)

	set := enabledSet(snapshot)
	require.True(t, set[catalog.FeatureMenuManagement], "override discarded by plan reset")
	for _, state := range snapshot.States {
		require.True(t, state.Enabled, "enterprise includes every feature")
		require.Nil(t, state.OverriddenBy)
	}
}

func TestApplyPlanRejectsUnknownTier(t *testing.T) {
	svc, db := setupService(t)
	seedSubscription(t, db, subscriptiondomain.StatusTrial)

	_, err := svc.ApplyPlan(context.Background(), testRestaurant, catalog.PlanTier("platinum"), snowflake.ID(501))
	require.ErrorIs(t, err, catalog.ErrUnknownPlan)
}

func TestToggleValidation(t *testing.T) {
	svc, db := setupService(t)
	seedSubscription(t, db, subscriptiondomain.StatusTrial)
	ctx := context.Background()

	_, err := svc.ApplyPlan(ctx, testRestaurant, catalog.TierStarter, snowflake.ID(501))
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, testRestaurant, catalog.FeatureKey("jetpack"), true, snowflake.ID(501))
	require.ErrorIs(t, err, entitlementdomain.ErrUnknownFeature)

	_, err = svc.Toggle(ctx, testRestaurant, catalog.FeaturePushNotif, false, snowflake.ID(501))
	require.ErrorIs(t, err, entitlementdomain.ErrAlwaysOnImmutable)

	// scheduled_orders requires online_payments, disabled under starter.
	_, err = svc.Toggle(ctx, testRestaurant, catalog.FeatureScheduledOrders, true, snowflake.ID(501))
	require.ErrorIs(t, err, entitlementdomain.ErrDependencyUnsatisfied)

	// Dependencies are enabled explicitly, in order, never cascaded.
	_, err = svc.Toggle(ctx, testRestaurant, catalog.FeatureOnlinePayments, true, snowflake.ID(501))
	require.NoError(t, err)
	snapshot, err := svc.Toggle(ctx, testRestaurant, catalog.FeatureScheduledOrders, true, snowflake.ID(501))
	require.NoError(t, err)
	require.True(t, enabledSet(snapshot)[catalog.FeatureScheduledOrders])
}

func TestToggleRejectsDisablingDependency(t *testing.T) {
	svc, db := setupService(t)
	seedSubscription(t, db, subscriptiondomain.StatusTrial)
	ctx := context.Background()

	_, err := svc.ApplyPlan(ctx, testRestaurant, catalog.TierStarter, snowflake.ID(501))
	require.NoError(t, err)

	// receipt_printing is enabled and requires pos.
	_, err = svc.Toggle(ctx, testRestaurant, catalog.FeaturePOS, false, snowflake.ID(501))
	require.ErrorIs(t, err, entitlementdomain.ErrDependentStillEnabled)

	_, err = svc.Toggle(ctx, testRestaurant, catalog.FeatureReceiptPrinting, false, snowflake.ID(501))
	require.NoError(t, err)

	snapshot, err := svc.Toggle(ctx, testRestaurant, catalog.FeaturePOS, false, snowflake.ID(501))
	require.NoError(t, err)
	require.False(t, enabledSet(snapshot)[catalog.FeaturePOS])
}

func TestToggleMutatesExactlyOneRow(t *testing.T) {
	svc, db := setupService(t)
	seedSubscription(t, db, subscriptiondomain.StatusTrial)
	ctx := context.Background()

	before, err := svc.ApplyPlan(ctx, testRestaurant, catalog.TierStarter, snowflake.ID(501))
	require.NoError(t, err)

	after, err := svc.Toggle(ctx, testRestaurant, catalog.FeatureAdvancedAnalytics, true, snowflake.ID(502))
	require.NoError(t, err)

	beforeSet := enabledSet(before)
	afterSet := enabledSet(after)
	for key, enabled := range beforeSet {
		if key == catalog.FeatureAdvancedAnalytics {
			continue
		}
		require.Equal(t, enabled, afterSet[key], "row %s untouched", key)
	}
	require.True(t, afterSet[catalog.FeatureAdvancedAnalytics])

	for _, state := range after.States {
		if state.FeatureKey == catalog.FeatureAdvancedAnalytics {
			require.NotNil(t, state.OverriddenBy)
			require.Equal(t, snowflake.ID(502), *state.OverriddenBy)
		}
	}
}

func TestEffectiveFeaturesGatedBySubscription(t *testing.T) {
	svc, db := setupService(t)
	seedSubscription(t, db, subscriptiondomain.StatusTrial)
	ctx := context.Background()

	_, err := svc.ApplyPlan(ctx, testRestaurant, catalog.TierStarter, snowflake.ID(501))
	require.NoError(t, err)

	keys, err := svc.EffectiveFeatures(ctx, testRestaurant)
	require.NoError(t, err)
	require.Contains(t, keys, catalog.FeaturePOS)
	require.Contains(t, keys, catalog.FeaturePushNotif)
	require.NotContains(t, keys, catalog.FeatureDeliveryFlow)
	original := keys

	// past_due keeps access (grace window), deactivated and cancelled cut it.
	setStatus(t, db, subscriptiondomain.StatusPastDue)
	keys, err = svc.EffectiveFeatures(ctx, testRestaurant)
	require.NoError(t, err)
	require.Equal(t, original, keys)

	setStatus(t, db, subscriptiondomain.StatusDeactivated)
	keys, err = svc.EffectiveFeatures(ctx, testRestaurant)
	require.NoError(t, err)
	require.Empty(t, keys)

	// Reactivation restores exactly the prior set.
	setStatus(t, db, subscriptiondomain.StatusActive)
	keys, err = svc.EffectiveFeatures(ctx, testRestaurant)
	require.NoError(t, err)
	require.Equal(t, original, keys)
}

func TestEffectiveFeaturesMissingSubscription(t *testing.T) {
	svc, _ := setupService(t)

	keys, err := svc.EffectiveFeatures(context.Background(), testRestaurant)
	require.NoError(t, err)
	require.Empty(t, keys)
}
