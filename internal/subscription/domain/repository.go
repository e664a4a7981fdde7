package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByRestaurantID(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) (*Subscription, error)
	FindByRestaurantIDForUpdate(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) (*Subscription, error)
	List(ctx context.Context, db *gorm.DB, status *Status) ([]WithRestaurant, error)
	ListOverdue(ctx context.Context, db *gorm.DB, now time.Time) ([]Subscription, error)
	InsertEvent(ctx context.Context, db *gorm.DB, event *Event) error
	ListEvents(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Event, error)
}
