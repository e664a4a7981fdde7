package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, restaurant *Restaurant) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Restaurant, error)
	SlugExists(ctx context.Context, db *gorm.DB, slug string) (bool, error)
	List(ctx context.Context, db *gorm.DB, search string) ([]Restaurant, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)

	InsertSettings(ctx context.Context, db *gorm.DB, settings *Settings) error
	FindSettings(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) (*Settings, error)
}
