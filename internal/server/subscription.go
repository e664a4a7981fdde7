package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListSubscriptions(c *gin.Context) {
	var status *subscriptiondomain.Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		parsed := subscriptiondomain.Status(raw)
		switch parsed {
		case subscriptiondomain.StatusTrial,
			subscriptiondomain.StatusActive,
			subscriptiondomain.StatusPastDue,
			subscriptiondomain.StatusDeactivated,
			subscriptiondomain.StatusCancelled:
			status = &parsed
		default:
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	subscriptions, err := s.subscriptionSvc.List(c.Request.Context(), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subscriptions})
}

func (s *Server) GetRestaurantSubscription(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.subscriptionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": detail})
}

func (s *Server) ActivateSubscription(c *gin.Context) {
	s.transitionSubscription(c, s.subscriptionSvc.Activate)
}

func (s *Server) DeactivateSubscription(c *gin.Context) {
	s.transitionSubscription(c, s.subscriptionSvc.Deactivate)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	s.transitionSubscription(c, s.subscriptionSvc.Cancel)
}

func (s *Server) transitionSubscription(c *gin.Context, fn func(ctx context.Context, id snowflake.ID) error) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
