package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, restaurant *domain.Restaurant) error {
	return db.WithContext(ctx).Create(restaurant).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Restaurant, error) {
	var restaurant domain.Restaurant
	err := db.WithContext(ctx).Where("id = ?", id).Take(&restaurant).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repo) SlugExists(ctx context.Context, db *gorm.DB, slug string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Restaurant{}).
		Where("slug = ?", slug).
		Count(&n).Error
	return n > 0, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, search string) ([]domain.Restaurant, error) {
	query := db.WithContext(ctx).Model(&domain.Restaurant{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(slug) LIKE ?", pattern, pattern)
	}

	var restaurants []domain.Restaurant
	if err := query.Order("created_at DESC, id DESC").Find(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Restaurant{}).Count(&n).Error
	return n, err
}

func (r *repo) InsertSettings(ctx context.Context, db *gorm.DB, settings *domain.Settings) error {
	return db.WithContext(ctx).Create(settings).Error
}

func (r *repo) FindSettings(ctx context.Context, db *gorm.DB, restaurantID snowflake.ID) (*domain.Settings, error) {
	var settings domain.Settings
	err := db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Take(&settings).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
