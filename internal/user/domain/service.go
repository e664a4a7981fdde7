package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound   = errors.New("user_not_found")
	ErrEmailTaken = errors.New("email_taken")
)

// CreateRequest registers a new platform user.
type CreateRequest struct {
	FullName string
	Email    string
	Phone    string
	Role     Role
	Password string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*User, error)
	Get(ctx context.Context, id snowflake.ID) (*WithRoles, error)
	List(ctx context.Context, filter ListFilter) ([]WithRoles, error)
}
