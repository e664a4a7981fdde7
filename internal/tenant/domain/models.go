package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Restaurant struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	OwnerID         snowflake.ID `json:"owner_id"`
	Name            string       `json:"name"`
	Slug            string       `json:"slug" gorm:"uniqueIndex"`
	Address         string       `json:"address"`
	Timezone        string       `json:"timezone"`
	LogoURL         string       `json:"logo_url"`
	CoverURL        string       `json:"cover_url"`
	Phone           string       `json:"phone"`
	Description     string       `json:"description"`
	DeliveryEnabled bool         `json:"delivery_enabled"`
	PickupEnabled   bool         `json:"pickup_enabled"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (Restaurant) TableName() string {
	return "restaurants"
}

// Settings carries the per-restaurant operational switches the console
// renders alongside feature toggles.
type Settings struct {
	ID                   snowflake.ID `json:"id" gorm:"primaryKey"`
	RestaurantID         snowflake.ID `json:"restaurant_id" gorm:"uniqueIndex"`
	RequireOrderApproval bool         `json:"require_order_approval"`
	ServiceMode          string       `json:"service_mode"`
	SchedulingEnabled    bool         `json:"scheduling_enabled"`
	TipsEnabled          bool         `json:"tips_enabled"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

func (Settings) TableName() string {
	return "restaurant_settings"
}
