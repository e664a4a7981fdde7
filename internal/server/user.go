package server

import (
	"net/http"
	"strings"

	userdomain "github.com/foodyhq/entitlement/internal/user/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListUsers(c *gin.Context) {
	var query struct {
		Role   string `form:"role"`
		Search string `form:"search"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	users, err := s.userSvc.List(c.Request.Context(), userdomain.ListFilter{
		Role:   userdomain.Role(strings.TrimSpace(query.Role)),
		Search: strings.TrimSpace(query.Search),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) GetUserByID(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.userSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
