package server

import (
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const actorIDKey = "admin.actor_id"

// AdminAuthRequired verifies the shared platform bearer token. Session and
// role handling live in the host platform; it forwards the acting admin's
// id in X-Admin-Id and this engine records it as the mutation actor.
func (s *Server) AdminAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if s.cfg.AdminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if raw := strings.TrimSpace(c.GetHeader("X-Admin-Id")); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				c.Set(actorIDKey, snowflake.ID(id))
			}
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func (s *Server) actorID(c *gin.Context) snowflake.ID {
	if v, ok := c.Get(actorIDKey); ok {
		if id, ok := v.(snowflake.ID); ok {
			return id
		}
	}
	return 0
}

func pathID(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidRequest
	}
	return snowflake.ID(id), nil
}
