package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/user/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.User, error) {
	query := db.WithContext(ctx).Model(&domain.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"lower(full_name) LIKE ? OR lower(email) LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var users []domain.User
	if err := query.Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func (r *repo) InsertRole(ctx context.Context, db *gorm.DB, role *domain.RestaurantRole) error {
	return db.WithContext(ctx).Create(role).Error
}

func (r *repo) ListRolesByUser(ctx context.Context, db *gorm.DB, userIDs []snowflake.ID) (map[snowflake.ID][]domain.RoleInfo, error) {
	grouped := make(map[snowflake.ID][]domain.RoleInfo, len(userIDs))
	if len(userIDs) == 0 {
		return grouped, nil
	}

	type row struct {
		UserID         snowflake.ID
		RestaurantID   snowflake.ID
		RestaurantName string
		Role           domain.Role
	}
	var rows []row
	err := db.WithContext(ctx).
		Table("restaurant_user_roles").
		Select("restaurant_user_roles.user_id, restaurant_user_roles.restaurant_id, restaurants.name AS restaurant_name, restaurant_user_roles.role").
		Joins("JOIN restaurants ON restaurants.id = restaurant_user_roles.restaurant_id").
		Where("restaurant_user_roles.user_id IN ?", userIDs).
		Order("restaurant_user_roles.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		grouped[r.UserID] = append(grouped[r.UserID], domain.RoleInfo{
			RestaurantID:   r.RestaurantID,
			RestaurantName: r.RestaurantName,
			Role:           r.Role,
		})
	}
	return grouped, nil
}
