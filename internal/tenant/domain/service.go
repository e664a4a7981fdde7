package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	entitlementdomain "github.com/foodyhq/entitlement/internal/entitlement/domain"
	userdomain "github.com/foodyhq/entitlement/internal/user/domain"
)

var (
	ErrNotFound      = errors.New("restaurant_not_found")
	ErrNameRequired  = errors.New("restaurant_name_required")
	ErrOwnerRequired = errors.New("owner_required")
	ErrSlugTaken     = errors.New("slug_taken")
)

// OnboardRequest creates a restaurant with its owner, plan seed, and trial
// subscription in one step. Either OwnerID references an existing user, or
// OwnerName/OwnerEmail/OwnerPassword describe a new one.
type OnboardRequest struct {
	RestaurantName string           `json:"restaurant_name"`
	Slug           string           `json:"slug"`
	Address        string           `json:"address"`
	Phone          string           `json:"phone"`
	Timezone       string           `json:"timezone"`
	OwnerID        snowflake.ID     `json:"owner_id"`
	OwnerName      string           `json:"owner_name"`
	OwnerEmail     string           `json:"owner_email"`
	OwnerPhone     string           `json:"owner_phone"`
	OwnerPassword  string           `json:"owner_password"`
	PlanTier       catalog.PlanTier `json:"plan_tier"`
}

// Detail is a restaurant with the related records the console shows on the
// detail page.
type Detail struct {
	Restaurant
	Plan     *entitlementdomain.RestaurantPlan  `json:"plan,omitempty"`
	Owner    *userdomain.User                   `json:"owner,omitempty"`
	Features []entitlementdomain.FeatureState   `json:"features,omitempty"`
	Settings *Settings                          `json:"settings,omitempty"`
}

type Service interface {
	Onboard(ctx context.Context, req OnboardRequest, actor snowflake.ID) (*Detail, error)
	Get(ctx context.Context, id snowflake.ID) (*Detail, error)
	List(ctx context.Context, search string) ([]Restaurant, error)
}
