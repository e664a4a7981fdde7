package repository

import (
	"context"
	"time"

	"github.com/foodyhq/entitlement/internal/dashboard/domain"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func servableStatuses() []subscriptiondomain.Status {
	all := []subscriptiondomain.Status{
		subscriptiondomain.StatusTrial,
		subscriptiondomain.StatusActive,
		subscriptiondomain.StatusPastDue,
		subscriptiondomain.StatusDeactivated,
		subscriptiondomain.StatusCancelled,
	}
	var out []subscriptiondomain.Status
	for _, s := range all {
		if s.Servable() {
			out = append(out, s)
		}
	}
	return out
}

func (r *repo) CountOrders(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Order{}).Count(&count).Error
	return count, err
}

func (r *repo) CountOrdersSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *repo) CountActiveRestaurants(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&subscriptiondomain.Subscription{}).
		Where("status IN ?", servableStatuses()).
		Count(&count).Error
	return count, err
}

func (r *repo) PlanBreakdown(ctx context.Context, db *gorm.DB) ([]domain.PlanCount, error) {
	var breakdown []domain.PlanCount
	err := db.WithContext(ctx).
		Model(&subscriptiondomain.Subscription{}).
		Select("plan_tier, count(*) as count").
		Group("plan_tier").
		Order("plan_tier").
		Find(&breakdown).Error
	return breakdown, err
}
