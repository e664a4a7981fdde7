package catalog

import "errors"

// ErrUnknownPlan is returned when a tier is not in the registry.
var ErrUnknownPlan = errors.New("unknown_plan")

// PlanTier identifies a subscription plan.
type PlanTier string

const (
	TierStarter    PlanTier = "starter"
	TierPremium    PlanTier = "premium"
	TierEnterprise PlanTier = "enterprise"
)

// tierOrder is the canonical ascending-capability order the console renders,
// independent of declaration order.
var tierOrder = []PlanTier{TierStarter, TierPremium, TierEnterprise}

// PlanDefinition describes one plan tier. Definitions are immutable
// process-wide constants. OrderLimit 0 means unlimited.
type PlanDefinition struct {
	Tier        PlanTier     `json:"tier"`
	Name        string       `json:"name"`
	Price       string       `json:"price"`
	Period      string       `json:"period"`
	Description string       `json:"description"`
	Features    []FeatureKey `json:"features"`
	OrderLimit  int          `json:"order_limit"`
}

var plans = []PlanDefinition{
	{
		Tier:        TierStarter,
		Name:        "Starter",
		Price:       "$29",
		Period:      "/month",
		Description: "For single locations getting started with in-store and pickup orders.",
		OrderLimit:  300,
		Features: []FeatureKey{
			FeaturePOS,
			FeatureMenuManagement,
			FeatureReceiptPrinting,
			FeaturePickupFlow,
			FeaturePushNotif,
		},
	},
	{
		Tier:        TierPremium,
		Name:        "Premium",
		Price:       "$79",
		Period:      "/month",
		Description: "Full online ordering with payments, scheduling, and stock tracking.",
		OrderLimit:  1000,
		Features: []FeatureKey{
			FeaturePOS,
			FeatureMenuManagement,
			FeatureReceiptPrinting,
			FeaturePickupFlow,
			FeatureDeliveryFlow,
			FeatureQRDineIn,
			FeatureOnlinePayments,
			FeatureScheduledOrders,
			FeatureStockManagement,
			FeatureWhatsAppNotif,
			FeaturePushNotif,
		},
	},
	{
		Tier:        TierEnterprise,
		Name:        "Enterprise",
		Price:       "$199",
		Period:      "/month",
		Description: "Every feature, unlimited orders, multi-location and API access.",
		OrderLimit:  0,
		Features: []FeatureKey{
			FeaturePOS,
			FeatureMenuManagement,
			FeatureReceiptPrinting,
			FeaturePickupFlow,
			FeatureDeliveryFlow,
			FeatureQRDineIn,
			FeatureOnlinePayments,
			FeatureScheduledOrders,
			FeatureStockManagement,
			FeatureGroceryRecon,
			FeatureAIMenuImport,
			FeatureAdvancedAnalytics,
			FeatureSuggestions,
			FeatureMultiRestaurant,
			FeatureCustomAPI,
			FeatureWhatsAppNotif,
			FeaturePushNotif,
		},
	},
}
