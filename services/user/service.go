package user

import (
	"context"
	"time"

	"unplan-backend/pkg/config"
	"unplan-backend/pkg/errutil"
	"unplan-backend/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"unplan-backend/pkg/middleware"
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	config *config.Config
	repo   repository.Repository[User]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		config: p.Config,
		repo:   repository.ProvideStore[User](p.DB),
	}
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Role     Role   `json:"role" binding:"omitempty,oneof=TRAVELER HOST"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	exist, err := s.repo.FindOne(ctx, &User{Email: in.Email})
	if err != nil {
		zap.L().Error("failed to query user by email", zap.Error(err))
		return nil, errutil.Internal("failed to register", err)
	}
	if exist != nil {
		return nil, errutil.Conflict("email already registered", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errutil.Internal("failed to register", err)
	}

	role := in.Role
	if role == "" {
		role = RoleTraveler
	}

	u := &User{
		ID:           s.node.Generate().String(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         role,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		zap.L().Error("failed to create user", zap.Error(err))
		return nil, errutil.Internal("failed to register", err)
	}

	return u, nil
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	u, err := s.repo.FindOne(ctx, &User{Email: in.Email})
	if err != nil {
		zap.L().Error("failed to query user by email", zap.Error(err))
		return nil, errutil.Internal("failed to login", err)
	}
	if u == nil {
		return nil, errutil.Unauthorized("invalid email or password", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errutil.Unauthorized("invalid email or password", nil)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, errutil.Internal("failed to login", err)
	}

	return &LoginResult{Token: token, User: u}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.FindOne(ctx, &User{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to get user", err)
	}
	if u == nil {
		return nil, errutil.NotFound("user not found", nil)
	}
	return u, nil
}

func (s *Service) issueToken(u *User) (string, error) {
	now := time.Now()
	claims := middleware.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.JWT.Issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWT.Expiry)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWT.Secret))
}
