package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListStates(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) ([]FeatureState, error)
	ListStatesForUpdate(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) ([]FeatureState, error)
	InsertStates(ctx context.Context, db *gorm.DB, states []FeatureState) error
	UpdateState(ctx context.Context, db *gorm.DB, state *FeatureState) error

	FindPlan(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) (*RestaurantPlan, error)
	SavePlan(ctx context.Context, db *gorm.DB, plan *RestaurantPlan) error
}
