package service

import (
	"context"
	"time"

	"github.com/foodyhq/entitlement/internal/clock"
	dashboarddomain "github.com/foodyhq/entitlement/internal/dashboard/domain"
	tenantdomain "github.com/foodyhq/entitlement/internal/tenant/domain"
	userdomain "github.com/foodyhq/entitlement/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	repo        dashboarddomain.Repository
	restaurants tenantdomain.Repository
	users       userdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Repo        dashboarddomain.Repository
	Restaurants tenantdomain.Repository
	Users       userdomain.Repository
}

func NewService(p ServiceParam) dashboarddomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("dashboard.service"),
		clock:       p.Clock,
		repo:        p.Repo,
		restaurants: p.Restaurants,
		users:       p.Users,
	}
}

func (s *Service) Stats(ctx context.Context) (*dashboarddomain.Stats, error) {
	stats := &dashboarddomain.Stats{PlanBreakdown: []dashboarddomain.PlanCount{}}

	var err error
	if stats.TotalRestaurants, err = s.restaurants.Count(ctx, s.db); err != nil {
		return nil, err
	}
	if stats.ActiveRestaurants, err = s.repo.CountActiveRestaurants(ctx, s.db); err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = s.users.Count(ctx, s.db); err != nil {
		return nil, err
	}
	if stats.TotalOrders, err = s.repo.CountOrders(ctx, s.db); err != nil {
		return nil, err
	}
	weekAgo := s.clock.Now().Add(-7 * 24 * time.Hour)
	if stats.OrdersThisWeek, err = s.repo.CountOrdersSince(ctx, s.db, weekAgo); err != nil {
		return nil, err
	}

	breakdown, err := s.repo.PlanBreakdown(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if breakdown != nil {
		stats.PlanBreakdown = breakdown
	}
	return stats, nil
}
