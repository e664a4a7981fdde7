package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
)

var (
	ErrUnknownFeature        = errors.New("unknown_feature")
	ErrAlwaysOnImmutable     = errors.New("always_on_immutable")
	ErrDependencyUnsatisfied = errors.New("dependency_unsatisfied")
	ErrDependentStillEnabled = errors.New("dependent_still_enabled")
)

// Snapshot is a restaurant's full resolved feature state.
type Snapshot struct {
	Plan *RestaurantPlan `json:"plan,omitempty"`

	// Servable reports whether the subscription status currently grants
	// any feature access at all.
	Servable bool `json:"servable"`

	// States holds one row per catalog key, in catalog declaration order.
	States []FeatureState `json:"states"`
}

type Service interface {
	// Resolve returns the stored per-feature state regardless of
	// subscription status, backfilling missing rows.
	Resolve(ctx context.Context, restaurantID snowflake.ID) (*Snapshot, error)

	// EffectiveFeatures returns the keys the restaurant may use right now:
	// enabled rows plus always-on keys, or nothing when the subscription
	// is deactivated or cancelled.
	EffectiveFeatures(ctx context.Context, restaurantID snowflake.ID) ([]catalog.FeatureKey, error)

	Toggle(ctx context.Context, restaurantID snowflake.ID, key catalog.FeatureKey, enabled bool, actor snowflake.ID) (*Snapshot, error)
	ApplyPlan(ctx context.Context, restaurantID snowflake.ID, tier catalog.PlanTier, actor snowflake.ID) (*Snapshot, error)
}
