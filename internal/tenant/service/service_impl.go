package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	"github.com/foodyhq/entitlement/internal/clock"
	entitlementdomain "github.com/foodyhq/entitlement/internal/entitlement/domain"
	obsmetrics "github.com/foodyhq/entitlement/internal/observability/metrics"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	tenantdomain "github.com/foodyhq/entitlement/internal/tenant/domain"
	userdomain "github.com/foodyhq/entitlement/internal/user/domain"
	"github.com/foodyhq/entitlement/pkg/db"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const slugAttempts = 20

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    tenantdomain.Repository
	users   userdomain.Service
	userRepo userdomain.Repository
	ents    entitlementdomain.Service
	subs    subscriptiondomain.Service
	plans   *catalog.PlanRegistry
	metrics *obsmetrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     tenantdomain.Repository
	Users    userdomain.Service
	UserRepo userdomain.Repository
	Ents     entitlementdomain.Service
	Subs     subscriptiondomain.Service
	Plans    *catalog.PlanRegistry
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) tenantdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("tenant.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		users:    p.Users,
		userRepo: p.UserRepo,
		ents:     p.Ents,
		subs:     p.Subs,
		plans:    p.Plans,
		metrics:  p.Metrics,
	}
}

// Onboard creates the restaurant record set, seeds its plan defaults, and
// opens a trial subscription. Plan seeding is idempotent, so a failed
// onboarding can be retried with the same input once the cause is fixed.
func (s *Service) Onboard(ctx context.Context, req tenantdomain.OnboardRequest, actor snowflake.ID) (*tenantdomain.Detail, error) {
	name := strings.TrimSpace(req.RestaurantName)
	if name == "" {
		return nil, tenantdomain.ErrNameRequired
	}
	if _, ok := s.plans.Get(req.PlanTier); !ok {
		return nil, catalog.ErrUnknownPlan
	}

	owner, err := s.resolveOwner(ctx, req)
	if err != nil {
		return nil, err
	}

	restaurant := &tenantdomain.Restaurant{
		ID:            s.genID.Generate(),
		OwnerID:       owner.ID,
		Name:          name,
		Address:       strings.TrimSpace(req.Address),
		Timezone:      strings.TrimSpace(req.Timezone),
		Phone:         strings.TrimSpace(req.Phone),
		PickupEnabled: true,
		CreatedAt:     s.clock.Now(),
		UpdatedAt:     s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		restaurant.Slug, err = s.uniqueSlug(ctx, tx, name, req.Slug)
		if err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, restaurant); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return tenantdomain.ErrSlugTaken
			}
			return err
		}
		if err := s.repo.InsertSettings(ctx, tx, &tenantdomain.Settings{
			ID:           s.genID.Generate(),
			RestaurantID: restaurant.ID,
			ServiceMode:  "pickup",
			CreatedAt:    s.clock.Now(),
			UpdatedAt:    s.clock.Now(),
		}); err != nil {
			return err
		}
		return s.userRepo.InsertRole(ctx, tx, &userdomain.RestaurantRole{
			ID:           s.genID.Generate(),
			RestaurantID: restaurant.ID,
			UserID:       owner.ID,
			Role:         userdomain.RoleOwner,
			CreatedAt:    s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.ents.ApplyPlan(ctx, restaurant.ID, req.PlanTier, actor); err != nil {
		return nil, err
	}
	if _, err := s.subs.Create(ctx, restaurant.ID, req.PlanTier); err != nil {
		return nil, err
	}
	// Sync the trial end onto the denormalized plan row now that the
	// subscription exists.
	if _, err := s.ents.ApplyPlan(ctx, restaurant.ID, req.PlanTier, actor); err != nil {
		return nil, err
	}

	s.metrics.RecordOnboarding(ctx, string(req.PlanTier))
	s.log.Info("restaurant onboarded",
		zap.String("restaurant_id", restaurant.ID.String()),
		zap.String("slug", restaurant.Slug),
		zap.String("plan_tier", string(req.PlanTier)),
	)
	return s.Get(ctx, restaurant.ID)
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*tenantdomain.Detail, error) {
	restaurant, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, tenantdomain.ErrNotFound
	}

	detail := &tenantdomain.Detail{Restaurant: *restaurant}

	if detail.Settings, err = s.repo.FindSettings(ctx, s.db, id); err != nil {
		return nil, err
	}
	if detail.Owner, err = s.userRepo.FindByID(ctx, s.db, restaurant.OwnerID); err != nil {
		return nil, err
	}

	snapshot, err := s.ents.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Plan = snapshot.Plan
	detail.Features = snapshot.States

	return detail, nil
}

func (s *Service) List(ctx context.Context, search string) ([]tenantdomain.Restaurant, error) {
	return s.repo.List(ctx, s.db, search)
}

func (s *Service) resolveOwner(ctx context.Context, req tenantdomain.OnboardRequest) (*userdomain.User, error) {
	if req.OwnerID != 0 {
		owner, err := s.userRepo.FindByID(ctx, s.db, req.OwnerID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, userdomain.ErrNotFound
		}
		return owner, nil
	}

	if strings.TrimSpace(req.OwnerEmail) == "" || strings.TrimSpace(req.OwnerPassword) == "" {
		return nil, tenantdomain.ErrOwnerRequired
	}
	return s.users.Create(ctx, userdomain.CreateRequest{
		FullName: req.OwnerName,
		Email:    req.OwnerEmail,
		Phone:    req.OwnerPhone,
		Role:     userdomain.RoleOwner,
		Password: req.OwnerPassword,
	})
}

// uniqueSlug slugifies the requested or derived name and suffixes a counter
// until the slug is free. An explicitly requested slug that is taken is an
// error, not silently suffixed.
func (s *Service) uniqueSlug(ctx context.Context, tx *gorm.DB, name, requested string) (string, error) {
	if requested = strings.TrimSpace(requested); requested != "" {
		candidate := slug.Make(requested)
		taken, err := s.repo.SlugExists(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if taken {
			return "", tenantdomain.ErrSlugTaken
		}
		return candidate, nil
	}

	base := slug.Make(name)
	candidate := base
	for i := 2; i <= slugAttempts; i++ {
		taken, err := s.repo.SlugExists(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", errors.New("slug_space_exhausted")
}
