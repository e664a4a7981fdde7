package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("id = ?", subscription.ID).
		Updates(map[string]any{
			"status":               subscription.Status,
			"plan_tier":            subscription.PlanTier,
			"card_brand":           subscription.CardBrand,
			"card_last_four":       subscription.CardLastFour,
			"current_period_start": subscription.CurrentPeriodStart,
			"current_period_end":   subscription.CurrentPeriodEnd,
			"trial_ends_at":        subscription.TrialEndsAt,
			"grace_period_until":   subscription.GracePeriodUntil,
			"updated_at":           subscription.UpdatedAt,
		}).Error
}

func (r *repo) FindByRestaurantID(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) (*domain.Subscription, error) {
	return r.findByRestaurantID(ctx, db, restaurantID)
}

func (r *repo) FindByRestaurantIDForUpdate(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) (*domain.Subscription, error) {
	return r.findByRestaurantID(ctx, forUpdate(db), restaurantID)
}

func (r *repo) findByRestaurantID(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Take(&subscription).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, status *domain.Status) ([]domain.WithRestaurant, error) {
	var items []domain.WithRestaurant
	stmt := db.WithContext(ctx).
		Table("subscriptions").
		Select("subscriptions.*, restaurants.name AS restaurant_name, restaurants.slug AS restaurant_slug").
		Joins("JOIN restaurants ON restaurants.id = subscriptions.restaurant_id").
		Order("subscriptions.created_at DESC")

	if status != nil {
		stmt = stmt.Where("subscriptions.status = ?", *status)
	}

	if err := stmt.Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Subscription, error) {
	var items []domain.Subscription
	err := db.WithContext(ctx).
		Where("status = ? AND grace_period_until IS NOT NULL AND grace_period_until < ?", domain.StatusPastDue, now).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) ListEvents(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]domain.Event, error) {
	var events []domain.Event
	err := db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// forUpdate applies a row lock where the dialect supports one. SQLite is a
// single-writer database, so the lock clause is omitted there.
func forUpdate(db *gorm.DB) *gorm.DB {
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return db
	}
}
