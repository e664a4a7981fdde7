package server

import (
	"net/http"
	"strings"

	"github.com/foodyhq/entitlement/internal/catalog"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetFeatureCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"features": s.catalog.All(),
		"plans":    s.plans.All(),
	})
}

func (s *Server) GetRestaurantFeatures(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	snapshot, err := s.entitlementSvc.Resolve(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"features": snapshot.States})
}

func (s *Server) ToggleRestaurantFeature(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		FeatureKey string `json:"feature_key"`
		Enabled    *bool  `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	key := catalog.FeatureKey(strings.TrimSpace(req.FeatureKey))
	snapshot, err := s.entitlementSvc.Toggle(c.Request.Context(), id, key, *req.Enabled, s.actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"features": snapshot.States})
}

// UpdateRestaurantPlan resets entitlements to the new tier's defaults, then
// syncs the subscription record. Plan application is idempotent, so a retry
// after a mid-sequence failure converges.
func (s *Server) UpdateRestaurantPlan(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		PlanTier string `json:"plan_tier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tier := catalog.PlanTier(strings.TrimSpace(req.PlanTier))
	snapshot, err := s.entitlementSvc.ApplyPlan(c.Request.Context(), id, tier, s.actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.subscriptionSvc.RecordPlanChange(c.Request.Context(), id, tier); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": snapshot.Plan})
}

func (s *Server) GetEffectiveFeatures(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	keys, err := s.entitlementSvc.EffectiveFeatures(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if keys == nil {
		keys = []catalog.FeatureKey{}
	}

	c.JSON(http.StatusOK, gin.H{"features": keys})
}
