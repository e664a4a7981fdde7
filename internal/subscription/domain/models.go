// Package domain contains persistence models and contracts for the
// subscription lifecycle.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	"gorm.io/datatypes"
)

// Status represents lifecycle states for a restaurant subscription.
type Status string

const (
	StatusTrial       Status = "trial"
	StatusActive      Status = "active"
	StatusPastDue     Status = "past_due"
	StatusDeactivated Status = "deactivated"
	StatusCancelled   Status = "cancelled"
)

// Servable reports whether entitlements may be served in this status.
func (s Status) Servable() bool {
	switch s {
	case StatusTrial, StatusActive, StatusPastDue:
		return true
	default:
		return false
	}
}

// EventType labels entries in the subscription history.
type EventType string

const (
	EventTrialStarted     EventType = "trial_started"
	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
	EventActivated        EventType = "activated"
	EventDeactivated      EventType = "deactivated"
	EventCancelled        EventType = "cancelled"
	EventPlanChanged      EventType = "plan_changed"
)

// Subscription tracks one restaurant's billing lifecycle.
type Subscription struct {
	ID           snowflake.ID     `gorm:"primaryKey" json:"id"`
	RestaurantID snowflake.ID     `gorm:"not null;uniqueIndex" json:"restaurant_id"`
	Status       Status           `gorm:"type:text;not null" json:"status"`
	PlanTier     catalog.PlanTier `gorm:"type:text;not null" json:"plan_tier"`

	CardBrand    *string `gorm:"type:text" json:"card_brand,omitempty"`
	CardLastFour *string `gorm:"type:text" json:"card_last_four,omitempty"`

	CurrentPeriodStart *time.Time `gorm:"" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"" json:"current_period_end,omitempty"`
	TrialEndsAt        *time.Time `gorm:"" json:"trial_ends_at,omitempty"`
	GracePeriodUntil   *time.Time `gorm:"" json:"grace_period_until,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// Event is one append-only entry in a subscription's history. Rows are
// never updated or deleted once written.
type Event struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	SubscriptionID snowflake.ID      `gorm:"not null;index" json:"subscription_id"`
	EventType      EventType         `gorm:"type:text;not null" json:"event_type"`
	Amount         *int64            `gorm:"" json:"amount,omitempty"`
	Currency       *string           `gorm:"type:text" json:"currency,omitempty"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "subscription_events" }

// WithRestaurant is the admin listing row: a subscription joined with its
// restaurant's display fields.
type WithRestaurant struct {
	Subscription
	RestaurantName string `json:"restaurant_name"`
	RestaurantSlug string `json:"restaurant_slug"`
}
