package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/catalog"
	"github.com/foodyhq/entitlement/internal/clock"
	entitlementdomain "github.com/foodyhq/entitlement/internal/entitlement/domain"
	obsmetrics "github.com/foodyhq/entitlement/internal/observability/metrics"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    entitlementdomain.Repository
	subs    subscriptiondomain.Repository
	catalog *catalog.Catalog
	plans   *catalog.PlanRegistry
	metrics *obsmetrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    entitlementdomain.Repository
	Subs    subscriptiondomain.Repository
	Catalog *catalog.Catalog
	Plans   *catalog.PlanRegistry
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) entitlementdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("entitlement.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		subs:    p.Subs,
		catalog: p.Catalog,
		plans:   p.Plans,
		metrics: p.Metrics,
	}
}

func (s *Service) Resolve(ctx context.Context, restaurantID snowflake.ID) (*entitlementdomain.Snapshot, error) {
	var snapshot *entitlementdomain.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		states, err := s.loadStates(ctx, tx, restaurantID)
		if err != nil {
			return err
		}
		snapshot, err = s.snapshot(ctx, tx, restaurantID, states)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Service) EffectiveFeatures(ctx context.Context, restaurantID snowflake.ID) ([]catalog.FeatureKey, error) {
	sub, err := s.subs.FindByRestaurantID(ctx, s.db, restaurantID)
	if err != nil {
		return nil, err
	}
	// Override state is preserved while access is cut off, so
	// reactivation restores the exact prior set.
	if sub == nil || !sub.Status.Servable() {
		return []catalog.FeatureKey{}, nil
	}

	snapshot, err := s.Resolve(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	enabled := make(map[catalog.FeatureKey]bool, len(snapshot.States))
	for _, state := range snapshot.States {
		enabled[state.FeatureKey] = state.Enabled
	}

	keys := make([]catalog.FeatureKey, 0, len(snapshot.States))
	for _, def := range s.catalog.All() {
		if enabled[def.Key] || def.AlwaysOn {
			keys = append(keys, def.Key)
		}
	}
	return keys, nil
}

func (s *Service) Toggle(ctx context.Context, restaurantID snowflake.ID, key catalog.FeatureKey, enabled bool, actor snowflake.ID) (*entitlementdomain.Snapshot, error) {
	def, ok := s.catalog.Get(key)
	if !ok {
		return nil, entitlementdomain.ErrUnknownFeature
	}
	if def.AlwaysOn {
		return nil, entitlementdomain.ErrAlwaysOnImmutable
	}

	var snapshot *entitlementdomain.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		states, err := s.loadStates(ctx, tx, restaurantID)
		if err != nil {
			return err
		}

		// Dependencies are never auto-toggled: every state change stays
		// attributable to one explicit admin action.
		if enabled {
			for _, dep := range def.RequiresAll {
				if state := states[dep]; state == nil || !state.Enabled {
					return entitlementdomain.ErrDependencyUnsatisfied
				}
			}
		} else {
			for _, other := range s.catalog.All() {
				if other.Key == key {
					continue
				}
				state := states[other.Key]
				if state == nil || !state.Enabled {
					continue
				}
				for _, dep := range other.RequiresAll {
					if dep == key {
						return entitlementdomain.ErrDependentStillEnabled
					}
				}
			}
		}

		state := states[key]
		state.Enabled = enabled
		state.OverriddenBy = actorRef(actor)
		state.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateState(ctx, tx, state); err != nil {
			return err
		}

		snapshot, err = s.snapshot(ctx, tx, restaurantID, states)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordFeatureToggle(ctx, string(key), enabled)
	s.log.Info("feature toggled",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("feature_key", string(key)),
		zap.Bool("enabled", enabled),
		zap.String("actor", actor.String()),
	)
	return snapshot, nil
}

func (s *Service) ApplyPlan(ctx context.Context, restaurantID snowflake.ID, tier catalog.PlanTier, actor snowflake.ID) (*entitlementdomain.Snapshot, error) {
	plan, ok := s.plans.Get(tier)
	if !ok {
		return nil, catalog.ErrUnknownPlan
	}

	var snapshot *entitlementdomain.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		states, err := s.loadStates(ctx, tx, restaurantID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		included := make(map[catalog.FeatureKey]bool, len(plan.Features))
		for _, key := range plan.Features {
			included[key] = true
		}

		// Full reset: every row matches the plan default, prior manual
		// overrides are discarded. Re-applying the same tier is a no-op.
		for _, def := range s.catalog.All() {
			want := included[def.Key] || def.AlwaysOn
			state := states[def.Key]
			if state.Enabled == want && state.OverriddenBy == nil {
				continue
			}
			state.Enabled = want
			state.OverriddenBy = nil
			state.UpdatedAt = now
			if err := s.repo.UpdateState(ctx, tx, state); err != nil {
				return err
			}
		}

		sub, err := s.subs.FindByRestaurantID(ctx, tx, restaurantID)
		if err != nil {
			return err
		}
		planRow := &entitlementdomain.RestaurantPlan{
			ID:           s.genID.Generate(),
			RestaurantID: restaurantID,
			PlanTier:     tier,
			OrderLimit:   plan.OrderLimit,
			UpdatedBy:    actorRef(actor),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if sub != nil {
			planRow.TrialEndsAt = sub.TrialEndsAt
		}
		if err := s.repo.SavePlan(ctx, tx, planRow); err != nil {
			return err
		}

		snapshot, err = s.snapshot(ctx, tx, restaurantID, states)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("plan applied",
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("plan_tier", string(tier)),
		zap.String("actor", actor.String()),
	)
	return snapshot, nil
}

// loadStates locks the restaurant's rows and backfills any catalog key that
// has no row yet: disabled by default, enabled for always-on features.
func (s *Service) loadStates(ctx context.Context, tx *gorm.DB, restaurantID snowflake.ID) (map[catalog.FeatureKey]*entitlementdomain.FeatureState, error) {
	rows, err := s.repo.ListStatesForUpdate(ctx, tx, restaurantID)
	if err != nil {
		return nil, err
	}

	states := make(map[catalog.FeatureKey]*entitlementdomain.FeatureState, len(rows))
	for i := range rows {
		states[rows[i].FeatureKey] = &rows[i]
	}

	now := s.clock.Now()
	var missing []entitlementdomain.FeatureState
	for _, def := range s.catalog.All() {
		if _, ok := states[def.Key]; ok {
			continue
		}
		missing = append(missing, entitlementdomain.FeatureState{
			ID:           s.genID.Generate(),
			RestaurantID: restaurantID,
			FeatureKey:   def.Key,
			Enabled:      def.AlwaysOn,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err := s.repo.InsertStates(ctx, tx, missing); err != nil {
		return nil, err
	}
	for i := range missing {
		states[missing[i].FeatureKey] = &missing[i]
	}

	return states, nil
}

func (s *Service) snapshot(ctx context.Context, tx *gorm.DB, restaurantID snowflake.ID, states map[catalog.FeatureKey]*entitlementdomain.FeatureState) (*entitlementdomain.Snapshot, error) {
	plan, err := s.repo.FindPlan(ctx, tx, restaurantID)
	if err != nil {
		return nil, err
	}

	sub, err := s.subs.FindByRestaurantID(ctx, tx, restaurantID)
	if err != nil {
		return nil, err
	}

	snapshot := &entitlementdomain.Snapshot{
		Plan:     plan,
		Servable: sub != nil && sub.Status.Servable(),
		States:   make([]entitlementdomain.FeatureState, 0, len(states)),
	}
	for _, def := range s.catalog.All() {
		snapshot.States = append(snapshot.States, *states[def.Key])
	}
	return snapshot, nil
}

func actorRef(actor snowflake.ID) *snowflake.ID {
	if actor == 0 {
		return nil
	}
	return &actor
}
