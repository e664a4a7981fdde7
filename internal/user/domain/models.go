package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleOwner      Role = "owner"
	RoleStaff      Role = "staff"
)

type User struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	FullName     string       `json:"full_name"`
	Email        string       `json:"email" gorm:"uniqueIndex"`
	Phone        string       `json:"phone"`
	Role         Role         `json:"role"`
	PasswordHash string       `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// RestaurantRole links a user to a restaurant in a given capacity.
type RestaurantRole struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	RestaurantID snowflake.ID `json:"restaurant_id" gorm:"uniqueIndex:idx_restaurant_user"`
	UserID       snowflake.ID `json:"user_id" gorm:"uniqueIndex:idx_restaurant_user"`
	Role         Role         `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (RestaurantRole) TableName() string {
	return "restaurant_user_roles"
}

// RoleInfo is the role row joined with the restaurant it points at.
type RoleInfo struct {
	RestaurantID   snowflake.ID `json:"restaurant_id"`
	RestaurantName string       `json:"restaurant_name"`
	Role           Role         `json:"role"`
}

// WithRoles is a user plus the restaurants they belong to.
type WithRoles struct {
	User
	RestaurantRoles []RoleInfo `json:"restaurant_roles,omitempty"`
}
