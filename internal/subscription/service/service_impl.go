package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	"github.com/foodyhq/entitlement/internal/clock"
	"github.com/foodyhq/entitlement/internal/config"
	obsmetrics "github.com/foodyhq/entitlement/internal/observability/metrics"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const billingPeriod = 30 * 24 * time.Hour

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	cfg   config.BillingConfig
	genID *snowflake.Node
	clock clock.Clock
	repo  subscriptiondomain.Repository

	plans   *catalog.PlanRegistry
	metrics *obsmetrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Cfg     config.Config
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    subscriptiondomain.Repository
	Plans   *catalog.PlanRegistry
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("subscription.service"),
		cfg:     p.Cfg.Billing,
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		plans:   p.Plans,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, restaurantID snowflake.ID, tier catalog.PlanTier) (*subscriptiondomain.Subscription, error) {
	if _, ok := s.plans.Get(tier); !ok {
		return nil, catalog.ErrUnknownPlan
	}

	now := s.clock.Now()
	trialEndsAt := now.Add(time.Duration(s.cfg.TrialDays) * 24 * time.Hour)

	subscription := &subscriptiondomain.Subscription{
		ID:           s.genID.Generate(),
		RestaurantID: restaurantID,
		Status:       subscriptiondomain.StatusTrial,
		PlanTier:     tier,
		TrialEndsAt:  &trialEndsAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, subscription); err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, subscription.ID, subscriptiondomain.EventTrialStarted, nil, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription created",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("plan_tier", string(tier)),
	)
	return subscription, nil
}

func (s *Service) Get(ctx context.Context, restaurantID snowflake.ID) (*subscriptiondomain.Detail, error) {
	subscription, err := s.repo.FindByRestaurantID(ctx, s.db, restaurantID)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, subscriptiondomain.ErrNotFound
	}

	events, err := s.repo.ListEvents(ctx, s.db, subscription.ID)
	if err != nil {
		return nil, err
	}

	return &subscriptiondomain.Detail{
		Subscription: *subscription,
		Events:       events,
	}, nil
}

func (s *Service) List(ctx context.Context, status *subscriptiondomain.Status) ([]subscriptiondomain.WithRestaurant, error) {
	return s.repo.List(ctx, s.db, status)
}

func (s *Service) Activate(ctx context.Context, restaurantID snowflake.ID) error {
	return s.withLockedSubscription(ctx, restaurantID, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		// Administrative activation covers trial and deactivated only;
		// past_due recovers exclusively through a successful payment.
		switch sub.Status {
		case subscriptiondomain.StatusTrial, subscriptiondomain.StatusDeactivated:
		default:
			return subscriptiondomain.ErrInvalidTransition
		}
		s.startPeriod(sub)
		return s.transition(ctx, tx, sub, subscriptiondomain.StatusActive, subscriptiondomain.EventActivated, nil, nil, nil)
	})
}

func (s *Service) Deactivate(ctx context.Context, restaurantID snowflake.ID) error {
	return s.withLockedSubscription(ctx, restaurantID, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		return s.transition(ctx, tx, sub, subscriptiondomain.StatusDeactivated, subscriptiondomain.EventDeactivated, nil, nil, nil)
	})
}

func (s *Service) Cancel(ctx context.Context, restaurantID snowflake.ID) error {
	return s.withLockedSubscription(ctx, restaurantID, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		return s.transition(ctx, tx, sub, subscriptiondomain.StatusCancelled, subscriptiondomain.EventCancelled, nil, nil, nil)
	})
}

func (s *Service) HandlePaymentEvent(ctx context.Context, req subscriptiondomain.PaymentEventRequest) error {
	switch req.EventType {
	case subscriptiondomain.EventPaymentSucceeded, subscriptiondomain.EventPaymentFailed:
	default:
		return subscriptiondomain.ErrUnknownEventType
	}

	err := s.withLockedSubscription(ctx, req.RestaurantID, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		if req.EventType == subscriptiondomain.EventPaymentSucceeded {
			return s.applyPaymentSucceeded(ctx, tx, sub, req)
		}
		return s.applyPaymentFailed(ctx, tx, sub, req)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordPaymentEvent(ctx, string(req.EventType))
	return nil
}

func (s *Service) applyPaymentSucceeded(ctx context.Context, tx *gorm.DB, sub *subscriptiondomain.Subscription, req subscriptiondomain.PaymentEventRequest) error {
	now := s.clock.Now()
	updateCard(sub, req)

	switch sub.Status {
	case subscriptiondomain.StatusTrial:
		s.startPeriod(sub)
		return s.transition(ctx, tx, sub, subscriptiondomain.StatusActive, subscriptiondomain.EventPaymentSucceeded, req.Amount, req.Currency, nil)
	case subscriptiondomain.StatusPastDue:
		if sub.GracePeriodUntil == nil || now.After(*sub.GracePeriodUntil) {
			// Payment landed outside the grace window; the sweep owns
			// this subscription now.
			return subscriptiondomain.ErrInvalidTransition
		}
		sub.GracePeriodUntil = nil
		s.startPeriod(sub)
		return s.transition(ctx, tx, sub, subscriptiondomain.StatusActive, subscriptiondomain.EventPaymentSucceeded, req.Amount, req.Currency, nil)
	case subscriptiondomain.StatusActive:
		// Renewal: no state transition, but the payment is part of the
		// history and rolls the billing period forward.
		s.startPeriod(sub)
		sub.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, sub); err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, sub.ID, subscriptiondomain.EventPaymentSucceeded, req.Amount, req.Currency, nil)
	default:
		return subscriptiondomain.ErrInvalidTransition
	}
}

func (s *Service) applyPaymentFailed(ctx context.Context, tx *gorm.DB, sub *subscriptiondomain.Subscription, req subscriptiondomain.PaymentEventRequest) error {
	now := s.clock.Now()
	updateCard(sub, req)

	switch sub.Status {
	case subscriptiondomain.StatusActive:
		grace := now.Add(time.Duration(s.cfg.GraceDays) * 24 * time.Hour)
		sub.GracePeriodUntil = &grace
		return s.transition(ctx, tx, sub, subscriptiondomain.StatusPastDue, subscriptiondomain.EventPaymentFailed, req.Amount, req.Currency, nil)
	case subscriptiondomain.StatusPastDue:
		// A failed retry keeps the subscription past_due; the event is
		// still recorded for the history.
		sub.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, sub); err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, sub.ID, subscriptiondomain.EventPaymentFailed, req.Amount, req.Currency, nil)
	default:
		return subscriptiondomain.ErrInvalidTransition
	}
}

func (s *Service) RecordPlanChange(ctx context.Context, restaurantID snowflake.ID, tier catalog.PlanTier) error {
	if _, ok := s.plans.Get(tier); !ok {
		return catalog.ErrUnknownPlan
	}

	err := s.withLockedSubscription(ctx, restaurantID, func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error {
		previous := sub.PlanTier
		sub.PlanTier = tier
		sub.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, sub); err != nil {
			return err
		}
		return s.appendEvent(ctx, tx, sub.ID, subscriptiondomain.EventPlanChanged, nil, nil, datatypes.JSONMap{
			"from": string(previous),
			"to":   string(tier),
		})
	})
	if err != nil {
		return err
	}

	s.metrics.RecordPlanChange(ctx, string(tier))
	return nil
}

func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	overdue, err := s.repo.ListOverdue(ctx, s.db, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, sub := range overdue {
		deactivated := false
		err := s.withLockedSubscription(ctx, sub.RestaurantID, func(tx *gorm.DB, locked *subscriptiondomain.Subscription) error {
			// Re-check under the lock: a payment may have raced the sweep.
			if locked.Status != subscriptiondomain.StatusPastDue ||
				locked.GracePeriodUntil == nil ||
				!locked.GracePeriodUntil.Before(now) {
				return nil
			}
			deactivated = true
			return s.transition(ctx, tx, locked, subscriptiondomain.StatusDeactivated, subscriptiondomain.EventDeactivated, nil, nil, datatypes.JSONMap{
				"reason": "grace_period_expired",
			})
		})
		if err != nil {
			return expired, err
		}
		if deactivated {
			expired++
		}
	}

	if expired > 0 {
		s.log.Info("overdue subscriptions deactivated", zap.Int("count", expired))
	}
	return expired, nil
}

// withLockedSubscription runs fn inside a transaction holding the
// restaurant's subscription row lock, serializing mutations per tenant.
func (s *Service) withLockedSubscription(ctx context.Context, restaurantID snowflake.ID, fn func(tx *gorm.DB, sub *subscriptiondomain.Subscription) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByRestaurantIDForUpdate(ctx, tx, restaurantID)
		if err != nil {
			return err
		}
		if sub == nil {
			return subscriptiondomain.ErrNotFound
		}
		return fn(tx, sub)
	})
}

// transition moves sub to target after checking legality, persists it, and
// appends exactly one event. Illegal targets leave no trace.
func (s *Service) transition(ctx context.Context, tx *gorm.DB, sub *subscriptiondomain.Subscription, target subscriptiondomain.Status, eventType subscriptiondomain.EventType, amount *int64, currency *string, metadata datatypes.JSONMap) error {
	if !isTransitionAllowed(sub.Status, target) {
		return subscriptiondomain.ErrInvalidTransition
	}

	from := sub.Status
	sub.Status = target
	sub.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, tx, sub); err != nil {
		return err
	}
	if err := s.appendEvent(ctx, tx, sub.ID, eventType, amount, currency, metadata); err != nil {
		return err
	}

	s.metrics.RecordTransition(ctx, string(from), string(target))
	s.log.Info("subscription transitioned",
		zap.String("restaurant_id", sub.RestaurantID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	return nil
}

func (s *Service) appendEvent(ctx context.Context, tx *gorm.DB, subscriptionID snowflake.ID, eventType subscriptiondomain.EventType, amount *int64, currency *string, metadata datatypes.JSONMap) error {
	return s.repo.InsertEvent(ctx, tx, &subscriptiondomain.Event{
		ID:             s.genID.Generate(),
		SubscriptionID: subscriptionID,
		EventType:      eventType,
		Amount:         amount,
		Currency:       currency,
		Metadata:       metadata,
		CreatedAt:      s.clock.Now(),
	})
}

func (s *Service) startPeriod(sub *subscriptiondomain.Subscription) {
	now := s.clock.Now()
	end := now.Add(billingPeriod)
	sub.CurrentPeriodStart = &now
	sub.CurrentPeriodEnd = &end
}

func updateCard(sub *subscriptiondomain.Subscription, req subscriptiondomain.PaymentEventRequest) {
	if req.CardBrand != nil {
		sub.CardBrand = req.CardBrand
	}
	if req.CardLastFour != nil {
		sub.CardLastFour = req.CardLastFour
	}
}

// isTransitionAllowed encodes the lifecycle graph. Self-transitions are not
// listed: re-requesting the current state is rejected, not absorbed.
func isTransitionAllowed(current, target subscriptiondomain.Status) bool {
	switch current {
	case subscriptiondomain.StatusTrial:
		return target == subscriptiondomain.StatusActive ||
			target == subscriptiondomain.StatusDeactivated ||
			target == subscriptiondomain.StatusCancelled
	case subscriptiondomain.StatusActive:
		return target == subscriptiondomain.StatusPastDue ||
			target == subscriptiondomain.StatusDeactivated ||
			target == subscriptiondomain.StatusCancelled
	case subscriptiondomain.StatusPastDue:
		return target == subscriptiondomain.StatusActive ||
			target == subscriptiondomain.StatusDeactivated ||
			target == subscriptiondomain.StatusCancelled
	case subscriptiondomain.StatusDeactivated:
		return target == subscriptiondomain.StatusActive ||
			target == subscriptiondomain.StatusCancelled
	case subscriptiondomain.StatusCancelled:
		return false
	default:
		return false
	}
}
