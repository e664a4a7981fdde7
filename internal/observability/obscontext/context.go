package obscontext

import (
	"context"
	"strings"
)

type contextKey string

const (
	requestIDKey    contextKey = "request_id"
	restaurantIDKey contextKey = "restaurant_id"
	actorIDKey      contextKey = "actor_id"
)

// WithRequestID stores the request correlation id on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithRestaurantID stores the tenant scope on the context.
func WithRestaurantID(ctx context.Context, restaurantID string) context.Context {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return ctx
	}
	return context.WithValue(ctx, restaurantIDKey, restaurantID)
}

// RestaurantIDFromContext returns the tenant scope, or "" when absent.
func RestaurantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(restaurantIDKey).(string)
	return value
}

// WithActorID stores the admin actor performing the request.
func WithActorID(ctx context.Context, actorID string) context.Context {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorIDFromContext returns the admin actor id, or "" when absent.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(actorIDKey).(string)
	return value
}
