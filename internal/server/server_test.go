package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	"github.com/foodyhq/entitlement/internal/clock"
	"github.com/foodyhq/entitlement/internal/config"
	dashboarddomain "github.com/foodyhq/entitlement/internal/dashboard/domain"
	dashboardrepo "github.com/foodyhq/entitlement/internal/dashboard/repository"
	dashboardservice "github.com/foodyhq/entitlement/internal/dashboard/service"
	entitlementdomain "github.com/foodyhq/entitlement/internal/entitlement/domain"
	entitlementrepo "github.com/foodyhq/entitlement/internal/entitlement/repository"
	entitlementservice "github.com/foodyhq/entitlement/internal/entitlement/service"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	subscriptionrepo "github.com/foodyhq/entitlement/internal/subscription/repository"
	subscriptionservice "github.com/foodyhq/entitlement/internal/subscription/service"
	tenantdomain "github.com/foodyhq/entitlement/internal/tenant/domain"
	tenantrepo "github.com/foodyhq/entitlement/internal/tenant/repository"
	tenantservice "github.com/foodyhq/entitlement/internal/tenant/service"
	userdomain "github.com/foodyhq/entitlement/internal/user/domain"
	userrepo "github.com/foodyhq/entitlement/internal/user/repository"
	userservice "github.com/foodyhq/entitlement/internal/user/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testToken = "test-admin-token"

func setupServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&userdomain.RestaurantRole{},
		&tenantdomain.Restaurant{},
		&tenantdomain.Settings{},
		&entitlementdomain.FeatureState{},
		&entitlementdomain.RestaurantPlan{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.Event{},
		&dashboarddomain.Order{},
	))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{
		AdminToken: testToken,
		Billing:    config.BillingConfig{TrialDays: 14, GraceDays: 7},
	}

	c, err := catalog.NewCatalog()
	require.NoError(t, err)
	plans, err := catalog.NewPlanRegistry(c)
	require.NoError(t, err)

	userRepo := userrepo.Provide()
	users := userservice.NewService(userservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: userRepo,
	})
	ents := entitlementservice.NewService(entitlementservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo: entitlementrepo.Provide(), Subs: subscriptionrepo.Provide(),
		Catalog: c, Plans: plans,
	})
	subs := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Cfg: cfg,
		Repo: subscriptionrepo.Provide(), Plans: plans,
	})
	tenants := tenantservice.NewService(tenantservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo: tenantrepo.Provide(), Users: users, UserRepo: userRepo,
		Ents: ents, Subs: subs, Plans: plans,
	})
	dashboards := dashboardservice.NewService(dashboardservice.ServiceParam{
		DB: db, Log: log, Clock: fake,
		Repo:        dashboardrepo.Provide(),
		Restaurants: tenantrepo.Provide(),
		Users:       userRepo,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin: engine, Cfg: cfg, DB: db, GenID: node,
		Catalog: c, Plans: plans,
		TenantSvc: tenants, UserSvc: users,
		EntitlementSvc: ents, SubscriptionSvc: subs,
		DashboardSvc: dashboards,
	})
}

func (s *Server) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("X-Admin-Id", "501")
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func onboardBody(name, email string) map[string]any {
	return map[string]any{
		"restaurant_name": name,
		"timezone":        "Asia/Jakarta",
		"owner_name":      "Owner " + name,
		"owner_email":     email,
		"owner_password":  "long-enough-password",
		"plan_tier":       "starter",
	}
}

func (s *Server) onboard(t *testing.T, name, email string) snowflake.ID {
	t.Helper()
	w := s.request(t, http.MethodPost, "/api/v1/admin/restaurants/onboard", onboardBody(name, email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Restaurant struct {
			ID snowflake.ID `json:"id"`
		} `json:"restaurant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotZero(t, resp.Restaurant.ID)
	return resp.Restaurant.ID
}

func TestAdminAuthRequired(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "unauthorized", errorCode(t, w))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOnboardAndFetchRestaurant(t *testing.T) {
	s := setupServer(t)
	id := s.onboard(t, "Warung Tekno", "tekno@example.com")

	w := s.request(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/restaurants/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Restaurant struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
			Plan *struct {
				PlanTier   string `json:"plan_tier"`
				OrderLimit int    `json:"order_limit"`
			} `json:"plan"`
			Owner *struct {
				Email string `json:"email"`
			} `json:"owner"`
		} `json:"restaurant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Warung Tekno", resp.Restaurant.Name)
	require.Equal(t, "warung-tekno", resp.Restaurant.Slug)
	require.NotNil(t, resp.Restaurant.Plan)
	require.Equal(t, "starter", resp.Restaurant.Plan.PlanTier)
	require.NotNil(t, resp.Restaurant.Owner)
	require.Equal(t, "tekno@example.com", resp.Restaurant.Owner.Email)

	w = s.request(t, http.MethodGet, "/api/v1/admin/restaurants?search=tekno", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Restaurants []json.RawMessage `json:"restaurants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Restaurants, 1)
}

func TestGetRestaurantNotFound(t *testing.T) {
	s := setupServer(t)

	w := s.request(t, http.MethodGet, "/api/v1/admin/restaurants/987654321", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_found", errorCode(t, w))

	w = s.request(t, http.MethodGet, "/api/v1/admin/restaurants/not-a-number", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnboardValidationErrors(t *testing.T) {
	s := setupServer(t)

	body := onboardBody("", "x@example.com")
	w := s.request(t, http.MethodPost, "/api/v1/admin/restaurants/onboard", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "restaurant_name_required", errorCode(t, w))

	body = onboardBody("Resto", "y@example.com")
	body["plan_tier"] = "diamond"
	w = s.request(t, http.MethodPost, "/api/v1/admin/restaurants/onboard", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "unknown_plan", errorCode(t, w))

	s.onboard(t, "Resto Dua", "dua@example.com")
	body = onboardBody("Resto Tiga", "dua@example.com")
	w = s.request(t, http.MethodPost, "/api/v1/admin/restaurants/onboard", body)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "email_taken", errorCode(t, w))
}

func TestFeatureCatalogEndpoint(t *testing.T) {
	s := setupServer(t)

	w := s.request(t, http.MethodGet, "/api/v1/admin/features/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Features []struct {
			Key string `json:"key"`
		} `json:"features"`
		Plans []struct {
			Tier string `json:"tier"`
		} `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Features)
	require.Len(t, resp.Plans, 3)
}

func TestToggleFeatureOverHTTP(t *testing.T) {
	s := setupServer(t)
	id := s.onboard(t, "Toggle Resto", "toggle@example.com")
	base := fmt.Sprintf("/api/v1/admin/restaurants/%d/features", id)

	w := s.request(t, http.MethodPut, base, map[string]any{
		"feature_key": "jetpack", "enabled": true,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "unknown_feature", errorCode(t, w))

	// Disabling a dependency of a still-enabled feature is a conflict.
	w = s.request(t, http.MethodPut, base, map[string]any{
		"feature_key": "pos", "enabled": false,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "dependent_still_enabled", errorCode(t, w))

	w = s.request(t, http.MethodPut, base, map[string]any{
		"feature_key": "receipt_printing", "enabled": false,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Features []entitlementdomain.FeatureState `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, f := range resp.Features {
		if f.FeatureKey == "receipt_printing" {
			require.False(t, f.Enabled)
			require.NotNil(t, f.OverriddenBy)
			require.Equal(t, snowflake.ID(501), *f.OverriddenBy)
		}
	}
}

func TestUpdatePlanOverHTTP(t *testing.T) {
	s := setupServer(t)
	id := s.onboard(t, "Plan Resto", "plan@example.com")
	path := fmt.Sprintf("/api/v1/admin/restaurants/%d/plan", id)

	w := s.request(t, http.MethodPut, path, map[string]any{"plan_tier": "enterprise"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Plan struct {
			PlanTier   string `json:"plan_tier"`
			OrderLimit int    `json:"order_limit"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "enterprise", resp.Plan.PlanTier)
	require.Equal(t, 0, resp.Plan.OrderLimit)

	w = s.request(t, http.MethodPut, path, map[string]any{"plan_tier": "diamond"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "unknown_plan", errorCode(t, w))
}

func TestSubscriptionLifecycleOverHTTP(t *testing.T) {
	s := setupServer(t)
	id := s.onboard(t, "Lifecycle Resto", "cycle@example.com")
	base := fmt.Sprintf("/api/v1/admin/restaurants/%d/subscription", id)

	w := s.request(t, http.MethodPost, base+"/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A second activation is not a legal transition.
	w = s.request(t, http.MethodPost, base+"/activate", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "invalid_transition", errorCode(t, w))

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/v1/restaurants/%d/subscription", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Subscription struct {
			Status string `json:"status"`
			Events []struct {
				EventType string `json:"event_type"`
			} `json:"events"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Equal(t, "active", detail.Subscription.Status)
	require.NotEmpty(t, detail.Subscription.Events)

	w = s.request(t, http.MethodPost, base+"/deactivate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.request(t, http.MethodGet, "/api/v1/admin/subscriptions?status=deactivated", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Subscriptions []struct {
			RestaurantName string `json:"restaurant_name"`
		} `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Subscriptions, 1)
	require.Equal(t, "Lifecycle Resto", list.Subscriptions[0].RestaurantName)

	w = s.request(t, http.MethodGet, "/api/v1/admin/subscriptions?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBillingWebhookOverHTTP(t *testing.T) {
	s := setupServer(t)
	id := s.onboard(t, "Webhook Resto", "hook@example.com")

	w := s.request(t, http.MethodPost, "/api/v1/billing/webhooks", map[string]any{
		"restaurant_id": id, "event_type": "payment_succeeded",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/v1/restaurants/%d/subscription", id), nil)
	var detail struct {
		Subscription struct {
			Status string `json:"status"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Equal(t, "active", detail.Subscription.Status)

	w = s.request(t, http.MethodPost, "/api/v1/billing/webhooks", map[string]any{
		"restaurant_id": id, "event_type": "subscription_beamed_up",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "unknown_event_type", errorCode(t, w))
}

func TestEffectiveFeaturesGatedOverHTTP(t *testing.T) {
	s := setupServer(t)
	id := s.onboard(t, "Gated Resto", "gate@example.com")
	path := fmt.Sprintf("/api/v1/restaurants/%d/entitlements", id)

	w := s.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Features []string `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Features)

	base := fmt.Sprintf("/api/v1/admin/restaurants/%d/subscription", id)
	w = s.request(t, http.MethodPost, base+"/deactivate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp.Features = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Empty(t, resp.Features)
}

func TestDashboardAndUsersOverHTTP(t *testing.T) {
	s := setupServer(t)
	s.onboard(t, "Stats Resto", "stats@example.com")

	w := s.request(t, http.MethodGet, "/api/v1/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats dashboarddomain.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(t, int64(1), stats.TotalRestaurants)
	require.Equal(t, int64(1), stats.ActiveRestaurants)
	require.Equal(t, int64(1), stats.TotalUsers)

	w = s.request(t, http.MethodGet, "/api/v1/admin/users?search=stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users struct {
		Users []userdomain.WithRoles `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users.Users, 1)
	require.Len(t, users.Users[0].RestaurantRoles, 1)
	require.Equal(t, "Stats Resto", users.Users[0].RestaurantRoles[0].RestaurantName)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/users/%d", users.Users[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
}
