// Package catalog holds the process-wide feature catalog and plan registry.
// Both are write-once at startup and safe for unsynchronized concurrent reads.
package catalog

// FeatureKey identifies one toggleable capability.
type FeatureKey string

const (
	FeaturePOS               FeatureKey = "pos"
	FeatureMenuManagement    FeatureKey = "menu_management"
	FeatureReceiptPrinting   FeatureKey = "receipt_printing"
	FeaturePickupFlow        FeatureKey = "pickup_flow"
	FeatureDeliveryFlow      FeatureKey = "delivery_flow"
	FeatureQRDineIn          FeatureKey = "qr_dine_in"
	FeatureOnlinePayments    FeatureKey = "online_payments"
	FeatureScheduledOrders   FeatureKey = "scheduled_orders"
	FeatureStockManagement   FeatureKey = "stock_management"
	FeatureGroceryRecon      FeatureKey = "grocery_recon"
	FeatureAIMenuImport      FeatureKey = "ai_menu_import"
	FeatureAdvancedAnalytics FeatureKey = "advanced_analytics"
	FeatureSuggestions       FeatureKey = "suggestions"
	FeatureMultiRestaurant   FeatureKey = "multi_restaurant"
	FeatureCustomAPI         FeatureKey = "custom_api"
	FeatureWhatsAppNotif     FeatureKey = "whatsapp_notif"
	FeaturePushNotif         FeatureKey = "push_notif"
)

// Category groups features for the admin console.
type Category string

const (
	CategoryCore          Category = "core"
	CategoryOrdering      Category = "ordering"
	CategoryOperations    Category = "operations"
	CategoryIntelligence  Category = "intelligence"
	CategoryNotifications Category = "notifications"
)

// FeatureDefinition describes one capability. Definitions are immutable
// process-wide constants.
type FeatureDefinition struct {
	Key         FeatureKey   `json:"key"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	RequiresAll []FeatureKey `json:"requires_all"`
	AlwaysOn    bool         `json:"always_on"`
}

// features is the declaration order surfaced by Catalog.All; the console
// relies on it for stable grouping.
var features = []FeatureDefinition{
	{
		Key:         FeaturePOS,
		Label:       "Point of Sale",
		Description: "In-store order taking and checkout.",
		Category:    CategoryCore,
	},
	{
		Key:         FeatureMenuManagement,
		Label:       "Menu Management",
		Description: "Create and edit menus, items, and modifiers.",
		Category:    CategoryCore,
	},
	{
		Key:         FeatureReceiptPrinting,
		Label:       "Receipt Printing",
		Description: "Print customer and kitchen receipts from the POS.",
		Category:    CategoryOrdering,
		RequiresAll: []FeatureKey{FeaturePOS},
	},
	{
		Key:         FeaturePickupFlow,
		Label:       "Pickup Orders",
		Description: "Customer-facing pickup ordering flow.",
		Category:    CategoryOrdering,
	},
	{
		Key:         FeatureDeliveryFlow,
		Label:       "Delivery Orders",
		Description: "Customer-facing delivery ordering flow.",
		Category:    CategoryOrdering,
	},
	{
		Key:         FeatureQRDineIn,
		Label:       "QR Dine-in",
		Description: "Table-side ordering via QR codes, routed to the POS.",
		Category:    CategoryOrdering,
		RequiresAll: []FeatureKey{FeaturePOS},
	},
	{
		Key:         FeatureOnlinePayments,
		Label:       "Online Payments",
		Description: "Accept card payments on customer-facing flows.",
		Category:    CategoryOrdering,
	},
	{
		Key:         FeatureScheduledOrders,
		Label:       "Scheduled Orders",
		Description: "Let customers schedule orders ahead of time.",
		Category:    CategoryOrdering,
		RequiresAll: []FeatureKey{FeatureOnlinePayments},
	},
	{
		Key:         FeatureStockManagement,
		Label:       "Stock Management",
		Description: "Track ingredient and item stock levels against the menu.",
		Category:    CategoryOperations,
		RequiresAll: []FeatureKey{FeatureMenuManagement},
	},
	{
		Key:         FeatureGroceryRecon,
		Label:       "Grocery Reconciliation",
		Description: "Reconcile supplier deliveries against tracked stock.",
		Category:    CategoryOperations,
		RequiresAll: []FeatureKey{FeatureStockManagement},
	},
	{
		Key:         FeatureAIMenuImport,
		Label:       "AI Menu Import",
		Description: "Import menus from photos and PDFs automatically.",
		Category:    CategoryIntelligence,
		RequiresAll: []FeatureKey{FeatureMenuManagement},
	},
	{
		Key:         FeatureAdvancedAnalytics,
		Label:       "Advanced Analytics",
		Description: "Sales, item, and hour-of-day analytics dashboards.",
		Category:    CategoryIntelligence,
	},
	{
		Key:         FeatureSuggestions,
		Label:       "Smart Suggestions",
		Description: "Menu and pricing suggestions derived from analytics.",
		Category:    CategoryIntelligence,
		RequiresAll: []FeatureKey{FeatureAdvancedAnalytics},
	},
	{
		Key:         FeatureMultiRestaurant,
		Label:       "Multi-restaurant",
		Description: "Manage several locations under one account.",
		Category:    CategoryOperations,
	},
	{
		Key:         FeatureCustomAPI,
		Label:       "Custom API Access",
		Description: "Token-based API access for custom integrations.",
		Category:    CategoryOperations,
	},
	{
		Key:         FeatureWhatsAppNotif,
		Label:       "WhatsApp Notifications",
		Description: "Order status notifications over WhatsApp.",
		Category:    CategoryNotifications,
	},
	{
		Key:         FeaturePushNotif,
		Label:       "Push Notifications",
		Description: "Order status push notifications. Included with every plan.",
		Category:    CategoryNotifications,
		AlwaysOn:    true,
	},
}
