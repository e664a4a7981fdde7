package catalog

import (
	"fmt"
)

// Catalog is the read-only feature registry, loaded once at process start.
type Catalog struct {
	ordered []FeatureDefinition
	byKey   map[FeatureKey]FeatureDefinition
	// closure holds the transitive RequiresAll set per key, computed at load.
	closure map[FeatureKey]map[FeatureKey]struct{}
}

// NewCatalog builds the catalog from the built-in definitions, validating
// the dependency graph. A validation failure is a deploy-time configuration
// error; callers are expected to abort startup.
func NewCatalog() (*Catalog, error) {
	return newCatalog(features)
}

func newCatalog(defs []FeatureDefinition) (*Catalog, error) {
	c := &Catalog{
		ordered: defs,
		byKey:   make(map[FeatureKey]FeatureDefinition, len(defs)),
		closure: make(map[FeatureKey]map[FeatureKey]struct{}, len(defs)),
	}

	for _, def := range defs {
		if _, dup := c.byKey[def.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate feature key %q", def.Key)
		}
		c.byKey[def.Key] = def
	}

	for _, def := range defs {
		for _, dep := range def.RequiresAll {
			if _, ok := c.byKey[dep]; !ok {
				return nil, fmt.Errorf("catalog: feature %q requires unknown key %q", def.Key, dep)
			}
		}
	}

	for _, def := range defs {
		set, err := c.resolveClosure(def.Key, make(map[FeatureKey]bool))
		if err != nil {
			return nil, err
		}
		c.closure[def.Key] = set
	}

	for _, def := range defs {
		if !def.AlwaysOn {
			continue
		}
		for dep := range c.closure[def.Key] {
			if !c.byKey[dep].AlwaysOn {
				return nil, fmt.Errorf("catalog: always-on feature %q depends on toggleable %q", def.Key, dep)
			}
		}
	}

	return c, nil
}

// resolveClosure walks RequiresAll depth-first, rejecting cycles.
func (c *Catalog) resolveClosure(key FeatureKey, visiting map[FeatureKey]bool) (map[FeatureKey]struct{}, error) {
	if visiting[key] {
		return nil, fmt.Errorf("catalog: dependency cycle through %q", key)
	}
	visiting[key] = true
	defer delete(visiting, key)

	set := make(map[FeatureKey]struct{})
	for _, dep := range c.byKey[key].RequiresAll {
		set[dep] = struct{}{}
		sub, err := c.resolveClosure(dep, visiting)
		if err != nil {
			return nil, err
		}
		for k := range sub {
			set[k] = struct{}{}
		}
	}
	return set, nil
}

// Get returns the definition for key, or false if the key is unknown.
func (c *Catalog) Get(key FeatureKey) (FeatureDefinition, bool) {
	def, ok := c.byKey[key]
	return def, ok
}

// All returns every definition in declaration order.
func (c *Catalog) All() []FeatureDefinition {
	out := make([]FeatureDefinition, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// DependenciesOf returns the transitive dependency set of key.
func (c *Catalog) DependenciesOf(key FeatureKey) map[FeatureKey]struct{} {
	set, ok := c.closure[key]
	if !ok {
		return nil
	}
	out := make(map[FeatureKey]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}

// AlwaysOnKeys returns the keys every tenant holds permanently.
func (c *Catalog) AlwaysOnKeys() []FeatureKey {
	var keys []FeatureKey
	for _, def := range c.ordered {
		if def.AlwaysOn {
			keys = append(keys, def.Key)
		}
	}
	return keys
}

// PlanRegistry is the read-only plan registry, same lifecycle as the Catalog.
type PlanRegistry struct {
	ordered []PlanDefinition
	byTier  map[PlanTier]PlanDefinition
}

// NewPlanRegistry builds the registry and validates every plan against the
// catalog: only known keys, dependency-closed feature sets.
func NewPlanRegistry(c *Catalog) (*PlanRegistry, error) {
	return newPlanRegistry(c, plans)
}

func newPlanRegistry(c *Catalog, defs []PlanDefinition) (*PlanRegistry, error) {
	r := &PlanRegistry{
		byTier: make(map[PlanTier]PlanDefinition, len(defs)),
	}

	for _, plan := range defs {
		if _, dup := r.byTier[plan.Tier]; dup {
			return nil, fmt.Errorf("plans: duplicate tier %q", plan.Tier)
		}

		included := make(map[FeatureKey]struct{}, len(plan.Features))
		for _, key := range plan.Features {
			if _, ok := c.Get(key); !ok {
				return nil, fmt.Errorf("plans: tier %q includes unknown feature %q", plan.Tier, key)
			}
			included[key] = struct{}{}
		}
		for _, key := range plan.Features {
			for dep := range c.DependenciesOf(key) {
				if _, ok := included[dep]; !ok {
					return nil, fmt.Errorf("plans: tier %q includes %q without its dependency %q", plan.Tier, key, dep)
				}
			}
		}

		r.byTier[plan.Tier] = plan
	}

	for _, tier := range tierOrder {
		plan, ok := r.byTier[tier]
		if !ok {
			return nil, fmt.Errorf("plans: missing tier %q", tier)
		}
		r.ordered = append(r.ordered, plan)
	}

	return r, nil
}

// Get returns the plan for tier, or false if the tier is unknown.
func (r *PlanRegistry) Get(tier PlanTier) (PlanDefinition, bool) {
	plan, ok := r.byTier[tier]
	return plan, ok
}

// All returns every plan in canonical ascending-capability order.
func (r *PlanRegistry) All() []PlanDefinition {
	out := make([]PlanDefinition, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Includes reports whether tier grants key by default.
func (r *PlanRegistry) Includes(tier PlanTier, key FeatureKey) bool {
	plan, ok := r.byTier[tier]
	if !ok {
		return false
	}
	for _, k := range plan.Features {
		if k == key {
			return true
		}
	}
	return false
}
