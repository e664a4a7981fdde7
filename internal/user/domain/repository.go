package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Role   Role
	Search string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]User, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)

	InsertRole(ctx context.Context, db *gorm.DB, role *RestaurantRole) error
	ListRolesByUser(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID) (map[snowflake.ID][]RoleInfo, error)
}
