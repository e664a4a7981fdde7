package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

type billingWebhookRequest struct {
	RestaurantID snowflake.ID `json:"restaurant_id"`
	EventType    string       `json:"event_type"`
	Amount       *int64       `json:"amount"`
	Currency     *string      `json:"currency"`
	CardBrand    *string      `json:"card_brand"`
	CardLastFour *string      `json:"card_last_four"`
}

// HandleBillingWebhook accepts normalized payment events from the billing
// gateway integration. Gateway signature verification happens upstream.
func (s *Server) HandleBillingWebhook(c *gin.Context) {
	var req billingWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RestaurantID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if !s.webhookLimiter.Allow(req.RestaurantID.String()) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	eventType := subscriptiondomain.EventType(strings.TrimSpace(req.EventType))
	err := s.subscriptionSvc.HandlePaymentEvent(c.Request.Context(), subscriptiondomain.PaymentEventRequest{
		RestaurantID: req.RestaurantID,
		EventType:    eventType,
		Amount:       req.Amount,
		Currency:     req.Currency,
		CardBrand:    req.CardBrand,
		CardLastFour: req.CardLastFour,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
