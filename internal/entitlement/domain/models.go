package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
)

// FeatureState is one (restaurant, feature) row. Every catalog key has
// exactly one row per restaurant; rows for keys added to the catalog later
// are backfilled on first read.
type FeatureState struct {
	ID           snowflake.ID       `json:"id" gorm:"primaryKey"`
	RestaurantID snowflake.ID       `json:"restaurant_id" gorm:"uniqueIndex:idx_restaurant_feature"`
	FeatureKey   catalog.FeatureKey `json:"feature_key" gorm:"uniqueIndex:idx_restaurant_feature"`
	Enabled      bool               `json:"enabled"`

	// OverriddenBy is the admin who last changed the row, unset while the
	// row still reflects the plan default.
	OverriddenBy *snowflake.ID `json:"overridden_by,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (FeatureState) TableName() string {
	return "restaurant_features"
}

// RestaurantPlan is the restaurant's current plan assignment. OrderLimit is
// denormalized from the plan definition so the console can render it without
// a second lookup.
type RestaurantPlan struct {
	ID           snowflake.ID     `json:"id" gorm:"primaryKey"`
	RestaurantID snowflake.ID     `json:"restaurant_id" gorm:"uniqueIndex"`
	PlanTier     catalog.PlanTier `json:"plan_tier"`
	OrderLimit   int              `json:"order_limit"`
	TrialEndsAt  *time.Time       `json:"trial_ends_at,omitempty"`
	UpdatedBy    *snowflake.ID    `json:"updated_by,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (RestaurantPlan) TableName() string {
	return "restaurant_plans"
}
