package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/entitlement/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListStates(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) ([]domain.FeatureState, error) {
	return r.listStates(ctx, db, restaurantID)
}

func (r *repo) ListStatesForUpdate(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) ([]domain.FeatureState, error) {
	return r.listStates(ctx, forUpdate(db), restaurantID)
}

func (r *repo) listStates(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) ([]domain.FeatureState, error) {
	var states []domain.FeatureState
	err := db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Find(&states).Error
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (r *repo) InsertStates(ctx context.Context, db *gorm.DB, states []domain.FeatureState) error {
	if len(states) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(states).Error
}

func (r *repo) UpdateState(ctx context.Context, db *gorm.DB, state *domain.FeatureState) error {
	return db.WithContext(ctx).
		Model(&domain.FeatureState{}).
		Where("id = ?", state.ID).
		Updates(map[string]any{
			"enabled":       state.Enabled,
			"overridden_by": state.OverriddenBy,
			"updated_at":    state.UpdatedAt,
		}).Error
}

func (r *repo) FindPlan(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) (*domain.RestaurantPlan, error) {
	var plan domain.RestaurantPlan
	err := db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Take(&plan).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repo) SavePlan(ctx context.Context, db *gorm.DB, plan *domain.RestaurantPlan) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "restaurant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan_tier", "order_limit", "trial_ends_at", "updated_by", "updated_at",
			}),
		}).
		Create(plan).Error
}

// forUpdate applies a row lock so per-restaurant mutations serialize.
// sqlite is a single-writer engine and rejects the clause.
func forUpdate(db *gorm.DB) *gorm.DB {
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return db
	}
}
