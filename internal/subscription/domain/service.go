package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
)

// PaymentEventRequest is the normalized form of an inbound billing event.
// Gateway mechanics live outside this engine; by the time an event reaches
// the state machine it is just a typed fact about one restaurant.
type PaymentEventRequest struct {
	RestaurantID snowflake.ID
	EventType    EventType
	Amount       *int64
	Currency     *string
	CardBrand    *string
	CardLastFour *string
}

// Detail is a subscription with its ordered event history, newest first.
type Detail struct {
	Subscription
	Events []Event `json:"events"`
}

type Service interface {
	// Create starts a trial subscription for a newly onboarded restaurant.
	Create(ctx context.Context, restaurantID snowflake.ID, tier catalog.PlanTier) (*Subscription, error)
	Get(ctx context.Context, restaurantID snowflake.ID) (*Detail, error)
	List(ctx context.Context, status *Status) ([]WithRestaurant, error)

	// Activate is the explicit administrative activation: legal from trial
	// and deactivated only.
	Activate(ctx context.Context, restaurantID snowflake.ID) error
	// Deactivate is the administrative override, legal from any
	// non-cancelled, non-deactivated state.
	Deactivate(ctx context.Context, restaurantID snowflake.ID) error
	// Cancel is terminal; legal from any non-cancelled state.
	Cancel(ctx context.Context, restaurantID snowflake.ID) error

	// HandlePaymentEvent applies a payment_succeeded or payment_failed
	// event from the billing source.
	HandlePaymentEvent(ctx context.Context, req PaymentEventRequest) error

	// RecordPlanChange syncs the subscription's tier after an entitlement
	// plan reset and appends a plan_changed event.
	RecordPlanChange(ctx context.Context, restaurantID snowflake.ID, tier catalog.PlanTier) error

	// ExpireOverdue deactivates every past_due subscription whose grace
	// window has elapsed. Returns the number of subscriptions deactivated.
	ExpireOverdue(ctx context.Context) (int, error)
}

var (
	ErrNotFound          = errors.New("subscription_not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrUnknownEventType  = errors.New("unknown_event_type")
)
