package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
)

// Order is the slice of the ordering system the dashboard aggregates over.
// Order lifecycle itself is owned elsewhere; this table is read-only here.
type Order struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	RestaurantID snowflake.ID `gorm:"index" json:"restaurant_id"`
	Status       string       `json:"status"`
	TotalAmount  int64        `json:"total_amount"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}

// PlanCount is one slice of the plan breakdown chart.
type PlanCount struct {
	PlanTier catalog.PlanTier `json:"plan_tier"`
	Count    int64            `json:"count"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalRestaurants  int64       `json:"total_restaurants"`
	ActiveRestaurants int64       `json:"active_restaurants"`
	TotalUsers        int64       `json:"total_users"`
	TotalOrders       int64       `json:"total_orders"`
	OrdersThisWeek    int64       `json:"orders_this_week"`
	PlanBreakdown     []PlanCount `json:"plan_breakdown"`
}
