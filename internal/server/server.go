package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	"github.com/foodyhq/entitlement/internal/config"
	dashboarddomain "github.com/foodyhq/entitlement/internal/dashboard/domain"
	entitlementdomain "github.com/foodyhq/entitlement/internal/entitlement/domain"
	"github.com/foodyhq/entitlement/internal/observability"
	obsmiddleware "github.com/foodyhq/entitlement/internal/observability/logger"
	obsmetrics "github.com/foodyhq/entitlement/internal/observability/metrics"
	obstracing "github.com/foodyhq/entitlement/internal/observability/tracing"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	tenantdomain "github.com/foodyhq/entitlement/internal/tenant/domain"
	userdomain "github.com/foodyhq/entitlement/internal/user/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	catalog *catalog.Catalog
	plans   *catalog.PlanRegistry

	tenantSvc       tenantdomain.Service
	userSvc         userdomain.Service
	entitlementSvc  entitlementdomain.Service
	subscriptionSvc subscriptiondomain.Service
	dashboardSvc    dashboarddomain.Service

	webhookLimiter *rateLimiter
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node

	Catalog *catalog.Catalog
	Plans   *catalog.PlanRegistry

	TenantSvc       tenantdomain.Service
	UserSvc         userdomain.Service
	EntitlementSvc  entitlementdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	DashboardSvc    dashboarddomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		catalog:         p.Catalog,
		plans:           p.Plans,
		tenantSvc:       p.TenantSvc,
		userSvc:         p.UserSvc,
		entitlementSvc:  p.EntitlementSvc,
		subscriptionSvc: p.SubscriptionSvc,
		dashboardSvc:    p.DashboardSvc,
		webhookLimiter:  newRateLimiter(60, time.Minute),
	}

	svc.registerAdminRoutes()
	svc.registerPlatformRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/v1/admin")
	admin.Use(s.AdminAuthRequired())

	admin.GET("/dashboard", s.GetDashboard)

	admin.GET("/users", s.ListUsers)
	admin.GET("/users/:id", s.GetUserByID)

	admin.GET("/restaurants", s.ListRestaurants)
	admin.GET("/restaurants/:id", s.GetRestaurantByID)
	admin.POST("/restaurants/onboard", s.OnboardRestaurant)

	admin.GET("/features/catalog", s.GetFeatureCatalog)
	admin.GET("/restaurants/:id/features", s.GetRestaurantFeatures)
	admin.PUT("/restaurants/:id/features", s.ToggleRestaurantFeature)
	admin.PUT("/restaurants/:id/plan", s.UpdateRestaurantPlan)

	admin.GET("/subscriptions", s.ListSubscriptions)
	admin.POST("/restaurants/:id/subscription/activate", s.ActivateSubscription)
	admin.POST("/restaurants/:id/subscription/deactivate", s.DeactivateSubscription)
	admin.POST("/restaurants/:id/subscription/cancel", s.CancelSubscription)
}

// registerPlatformRoutes serves the endpoints the ordering platform itself
// calls: subscription detail reads and inbound billing events.
func (s *Server) registerPlatformRoutes() {
	api := s.engine.Group("/api/v1")

	api.GET("/restaurants/:id/subscription", s.AdminAuthRequired(), s.GetRestaurantSubscription)
	api.GET("/restaurants/:id/entitlements", s.AdminAuthRequired(), s.GetEffectiveFeatures)

	api.POST("/billing/webhooks", s.AdminAuthRequired(), s.HandleBillingWebhook)
}
