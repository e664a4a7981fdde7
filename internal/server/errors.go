package server

import (
	"errors"
	"net/http"

	"github.com/foodyhq/entitlement/internal/catalog"
	entitlementdomain "github.com/foodyhq/entitlement/internal/entitlement/domain"
	subscriptiondomain "github.com/foodyhq/entitlement/internal/subscription/domain"
	tenantdomain "github.com/foodyhq/entitlement/internal/tenant/domain"
	userdomain "github.com/foodyhq/entitlement/internal/user/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

// The console reads a flat {"error": "<code>"} payload and switches on the
// code, so every mapped error keeps its sentinel message as the body.
type errorResponse struct {
	Error string `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, code := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: code})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	switch {
	case isBadRequestError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case isConflictError(err):
		return http.StatusConflict, err.Error()
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case isNotFoundError(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func isBadRequestError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, catalog.ErrUnknownPlan),
		errors.Is(err, entitlementdomain.ErrUnknownFeature),
		errors.Is(err, tenantdomain.ErrNameRequired),
		errors.Is(err, tenantdomain.ErrOwnerRequired),
		errors.Is(err, subscriptiondomain.ErrUnknownEventType):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, entitlementdomain.ErrAlwaysOnImmutable),
		errors.Is(err, entitlementdomain.ErrDependencyUnsatisfied),
		errors.Is(err, entitlementdomain.ErrDependentStillEnabled),
		errors.Is(err, subscriptiondomain.ErrInvalidTransition),
		errors.Is(err, userdomain.ErrEmailTaken),
		errors.Is(err, tenantdomain.ErrSlugTaken):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, tenantdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog labels request-log lines for the access logger.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, code := mapError(err)
	switch {
	case status >= 500:
		return "internal", code
	case status == http.StatusConflict:
		return "conflict", code
	case status == http.StatusNotFound:
		return "not_found", code
	case status == http.StatusUnauthorized:
		return "unauthorized", code
	default:
		return "validation", code
	}
}
