package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/foodyhq/entitlement/internal/clock"
	userdomain "github.com/foodyhq/entitlement/internal/user/domain"
	"github.com/foodyhq/entitlement/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  userdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  userdomain.Repository
}

func NewService(p ServiceParam) userdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req userdomain.CreateRequest) (*userdomain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, userdomain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &userdomain.User{
		ID:           s.genID.Generate(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         req.Role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, user); err != nil {
		// Concurrent signups racing past the lookup land on the unique
		// email index.
		if db.IsDuplicateKeyErr(err) {
			return nil, userdomain.ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*userdomain.WithRoles, error) {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userdomain.ErrNotFound
	}

	roles, err := s.repo.ListRolesByUser(ctx, s.db, []snowflake.ID{user.ID})
	if err != nil {
		return nil, err
	}

	return &userdomain.WithRoles{
		User:            *user,
		RestaurantRoles: roles[user.ID],
	}, nil
}

func (s *Service) List(ctx context.Context, filter userdomain.ListFilter) ([]userdomain.WithRoles, error) {
	users, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	roles, err := s.repo.ListRolesByUser(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]userdomain.WithRoles, 0, len(users))
	for _, u := range users {
		out = append(out, userdomain.WithRoles{
			User:            u,
			RestaurantRoles: roles[u.ID],
		})
	}
	return out, nil
}
