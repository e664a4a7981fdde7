package server

import (
	"net/http"
	"strings"

	tenantdomain "github.com/foodyhq/entitlement/internal/tenant/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListRestaurants(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))

	restaurants, err := s.tenantSvc.List(c.Request.Context(), search)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"restaurants": restaurants})
}

func (s *Server) GetRestaurantByID(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	detail, err := s.tenantSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"restaurant": detail})
}

func (s *Server) OnboardRestaurant(c *gin.Context) {
	var req tenantdomain.OnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	detail, err := s.tenantSvc.Onboard(c.Request.Context(), req, s.actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"restaurant": detail})
}
