package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CountOrders(ctx context.Context, db *gorm.DB) (int64, error)
	CountOrdersSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error)
	// CountActiveRestaurants counts restaurants whose subscription status
	// currently permits serving customers.
	CountActiveRestaurants(ctx context.Context, db *gorm.DB) (int64, error)
	PlanBreakdown(ctx context.Context, db *gorm.DB) ([]PlanCount, error)
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}
